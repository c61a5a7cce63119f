package config

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, raw string) []url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return []url.URL{*u}
}

func TestBuild_RejectsEmptySeeds(t *testing.T) {
	_, err := WithDefault(nil).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuild_DefaultsApplied(t *testing.T) {
	cfg, err := WithDefault(seed(t, "https://example.com/")).Build()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Concurrency())
	assert.Equal(t, 3, cfg.MaxRetries())
	assert.Equal(t, "example.com", cfg.MainHost())
	assert.Empty(t, cfg.PreferredPort())
}

func TestBuild_PreferredPortFromNonDefaultSeedPort(t *testing.T) {
	cfg, err := WithDefault(seed(t, "http://example.com:8080/")).Build()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.PreferredPort())
}

func TestBuild_DefaultPortNotTreatedAsPreferred(t *testing.T) {
	cfg, err := WithDefault(seed(t, "https://example.com:443/")).Build()
	require.NoError(t, err)
	assert.Empty(t, cfg.PreferredPort())
}

func TestWithConcurrency_Overrides(t *testing.T) {
	cfg, err := WithDefault(seed(t, "https://example.com/")).WithConcurrency(5).Build()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Concurrency())
}

func TestWithConfigFile_MissingFile(t *testing.T) {
	_, err := WithConfigFile("/nonexistent/path/webscout.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileDoesNotExist)
}
