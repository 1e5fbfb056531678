// Package version reports the fixit release.
package version

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit may be set at build time:
//
//	go build -ldflags "-X github.com/chiziuwaga/fixitforme-contractor-sub002/internal/version.Commit=$(git rev-parse HEAD)"
var Commit string

// Get returns the release from the embedded VERSION file.
func Get() string {
	return strings.TrimSpace(versionContent)
}

// Revision returns the short commit the binary was built from, or "".
// Commit wins over the VCS stamp recorded by the Go toolchain.
func Revision() string {
	rev := Commit
	if rev == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					rev = s.Value
				}
			}
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return rev
}

// String returns the line printed by `fixit version`.
func String() string {
	s := "fixit version " + Get()
	if rev := Revision(); rev != "" {
		s += " (" + rev + ")"
	}
	return s
}
