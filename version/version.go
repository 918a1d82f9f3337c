// Package version describes the natspecdoc build reported by
// `natspecdoc --version`.
//
// The output is a single line holding the release version, the VCS revision
// the binary was built from, and the Go toolchain and platform it targets:
//
//	v0.3.0 (rev 4f1c2e9, go1.25.0 linux/amd64)
//
// Release builds set [Version] with -ldflags. Binaries installed with
// `go install` fall back to the module version recorded in the build info,
// and anything else reports "devel".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version, set via ldflags.
var Version string

// Info is the build description printed by `natspecdoc --version`.
type Info struct {
	Version   string
	Revision  string
	GoVersion string
	Platform  string
}

// Get returns the [Info] of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Revision:  "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	dirty := false

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if dirty {
		info.Revision += "-dirty"
	}

	return info
}

// String formats i as a single line, e.g.
// "v0.3.0 (rev 4f1c2e9, go1.25.0 linux/amd64)".
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = "devel"
	}

	rev := i.Revision
	if rev == "" {
		rev = "unknown"
	}

	return fmt.Sprintf("%s (rev %s, %s %s)", v, rev, i.GoVersion, i.Platform)
}

// String returns the one-line description of the running binary.
func String() string {
	return Get().String()
}
