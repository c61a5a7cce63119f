package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dnovak/webscout/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_MissOnEmptyCache(t *testing.T) {
	c := New(t.TempDir(), "")
	_, ok := c.Get("https://ex/")
	assert.False(t, ok)
}

func TestSetThenGet_RoundTrips(t *testing.T) {
	c := New(t.TempDir(), "")
	err := c.Set("https://ex/", 200, "text/html", "<html></html>")
	require.Nil(t, err)

	rec, ok := c.Get("https://ex/")
	require.True(t, ok)
	assert.Equal(t, "https://ex/", rec.URL)
	assert.Equal(t, 200, rec.Status)
	assert.Equal(t, "text/html", rec.ContentType)
	assert.Equal(t, "<html></html>", rec.Body)
}

func TestSet_KeyIsHashOfExactURLString(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, "")
	require.Nil(t, c.Set("https://ex/a", 200, "text/html", "x"))

	expected := filepath.Join(dir, hashutil.HashURL("https://ex/a"))
	assert.FileExists(t, expected)
}

func TestGet_CorruptJSONIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, "")
	require.Nil(t, c.Set("https://ex/a", 200, "text/html", "x"))

	path := filepath.Join(dir, hashutil.HashURL("https://ex/a"))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, ok := c.Get("https://ex/a")
	assert.False(t, ok)
}

func TestSet_WithBodyDir_WritesBodyFile(t *testing.T) {
	bodyDir := t.TempDir()
	c := New(t.TempDir(), bodyDir)
	require.Nil(t, c.Set("https://ex/", 200, "text/html", "body content"))

	rec, ok := c.Get("https://ex/")
	require.True(t, ok)
	assert.Equal(t, "body content", rec.Body)
	assert.FileExists(t, filepath.Join(bodyDir, hashutil.HashURL("https://ex/")))
}

func TestGet_RehydratesMissingBodyFileFromRecord(t *testing.T) {
	dir := t.TempDir()
	bodyDir := t.TempDir()

	// Write the cache record with no body store configured, the way a
	// prior run without --body-dir would have.
	c := New(dir, "")
	require.Nil(t, c.Set("https://ex/", 200, "text/html", "body content"))

	bodyPath := filepath.Join(bodyDir, hashutil.HashURL("https://ex/"))
	_, err := os.Stat(bodyPath)
	require.True(t, os.IsNotExist(err))

	// Now read it back with a body store configured - the hit must
	// rehydrate the missing body file from the record.
	withBodyDir := New(dir, bodyDir)
	rec, ok := withBodyDir.Get("https://ex/")
	require.True(t, ok)
	assert.Equal(t, "body content", rec.Body)

	got, err := os.ReadFile(bodyPath)
	require.NoError(t, err)
	assert.Equal(t, "body content", string(got))
}
