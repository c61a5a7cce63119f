package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteDiscovered_SortsAndTerminatesWithNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovered.txt")
	err := WriteDiscovered(path, []string{"https://b/", "https://a/"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://a/\nhttps://b/\n", string(data))
}

func TestWriteDiscovered_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovered.txt")
	require.NoError(t, WriteDiscovered(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteFailed_GroupsSortsAndEmitsEmptyReferrers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.yaml")
	failed := map[string]string{
		"https://z/":  "HTTP 404",
		"https://a/":  "HTTP 500",
		"https://b/":  "HTTP 404",
		"https://no/": "timeout",
	}
	refs := map[string][]string{
		"https://z/": {"https://ref2/", "https://ref1/"},
		"https://b/": {"https://ref1/"},
	}

	err := WriteFailed(path, failed, func(u string) []string { return refs[u] })
	require.NoError(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)

	var groups []failedGroup
	require.NoError(t, yaml.Unmarshal(data, &groups))

	require.Len(t, groups, 3)
	assert.Equal(t, "HTTP 404", groups[0].Error)
	assert.Equal(t, "HTTP 500", groups[1].Error)
	assert.Equal(t, "timeout", groups[2].Error)

	require.Len(t, groups[0].URLs, 2)
	assert.Equal(t, "https://b/", groups[0].URLs[0].URL)
	assert.Equal(t, []string{"https://ref1/"}, groups[0].URLs[0].Referrers)
	assert.Equal(t, "https://z/", groups[0].URLs[1].URL)
	assert.Equal(t, []string{"https://ref1/", "https://ref2/"}, groups[0].URLs[1].Referrers)

	assert.Equal(t, []string{}, groups[1].URLs[0].Referrers)
}

func TestWriteFailed_EmptyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.yaml")
	require.NoError(t, WriteFailed(path, map[string]string{}, func(string) []string { return nil }))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
