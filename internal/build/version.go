// Package build holds version metadata stamped in at link time via
// -ldflags, surfaced through webscout's --version flag.
package build

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns "Version+Commit (BuildTime)", e.g.
// "1.0.0+abc123 (2026-01-02T15:04:05Z)".
func FullVersion() string {
	return Version + "+" + Commit + " (" + BuildTime + ")"
}
