// Package version holds build metadata injected via ldflags:
//
//	-X github.com/roomscout/visearch/internal/version.Version=...
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
