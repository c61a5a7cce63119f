package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashURL returns the lowercase hex SHA-256 digest of the exact URL string
// as passed in. Callers must not re-normalize the URL before hashing: the
// cache key is a property of the string, not of any canonical form.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
