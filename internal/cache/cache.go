// Package cache implements the content-addressed response cache and its
// optional sibling body store described in spec.md §4.D: one file per
// entry, named by the hex-SHA256 of the exact URL string passed to it.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dnovak/webscout/pkg/failure"
	"github.com/dnovak/webscout/pkg/fileutil"
	"github.com/dnovak/webscout/pkg/hashutil"
)

// Record is the logical cache entry persisted as JSON.
type Record struct {
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
	Status      int       `json:"status"`
	ContentType string    `json:"contentType"`
	Body        string    `json:"body"`
}

// Cache is a flat-directory, hash-keyed store. BodyDir is optional; when
// set, both Set and a Get hit mirror the body under the same hash there,
// so the body store ends up populated even for entries that were only
// ever written in an earlier run whose body file has since gone missing.
type Cache struct {
	dir     string
	bodyDir string
}

func New(dir, bodyDir string) *Cache {
	return &Cache{dir: dir, bodyDir: bodyDir}
}

func (c *Cache) path(url string) string {
	return filepath.Join(c.dir, hashutil.HashURL(url))
}

func (c *Cache) bodyPath(url string) string {
	return filepath.Join(c.bodyDir, hashutil.HashURL(url))
}

// Get returns the cached record for url, or (Record{}, false) on a miss -
// missing file, I/O error, and JSON parse error are all treated as a miss,
// never surfaced as an error.
func (c *Cache) Get(url string) (Record, bool) {
	data, err := os.ReadFile(c.path(url))
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false
	}
	if c.bodyDir != "" {
		if _, err := os.Stat(c.bodyPath(url)); os.IsNotExist(err) {
			fileutil.WriteFileAtomic(c.bodyPath(url), []byte(rec.Body), 0644)
		}
	}
	return rec, true
}

// Set persists rec for url, writing it atomically enough per
// pkg/fileutil.WriteFileAtomic. Write failures are returned as
// failure.ClassifiedError for logging but callers must treat them as
// non-fatal: the fetch itself has already succeeded.
func (c *Cache) Set(url string, status int, contentType, body string) failure.ClassifiedError {
	rec := Record{
		URL:         url,
		Timestamp:   time.Now().UTC(),
		Status:      status,
		ContentType: contentType,
		Body:        body,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &Error{Message: err.Error(), Cause: ErrCauseEncodeFailure}
	}

	if classified := fileutil.WriteFileAtomic(c.path(url), data, 0644); classified != nil {
		return &Error{Message: classified.Error(), Cause: ErrCauseWriteFailure}
	}

	if c.bodyDir != "" {
		if classified := fileutil.WriteFileAtomic(c.bodyPath(url), []byte(body), 0644); classified != nil {
			return &Error{Message: classified.Error(), Cause: ErrCauseWriteFailure}
		}
	}

	return nil
}
