// Package version holds build information set with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/guimove/placefit/pkg/version.Version=v0.3.0"
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
