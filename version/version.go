package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

// Set at build time via -ldflags "-X github.com/teranos/mithras-link/version.Version=...".
// Left at their defaults, Get falls back to the module build info that
// `go install github.com/teranos/mithras-link/cmd/mithras-link@v1.2.3` records.
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info describes the running binary
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Release    bool   `json:"release"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get collects version information from ldflags and the embedded build info
func Get() Info {
	info := Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withBuildInfo(info, bi)
	}
	info.Release = info.IsRelease()
	return info
}

// withBuildInfo fills fields still at their ldflags defaults from bi
func withBuildInfo(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.CommitHash == "dev" {
				info.CommitHash = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// Semver parses Version. Untagged builds ("dev") return an error.
func (i Info) Semver() (*semver.Version, error) {
	return semver.NewVersion(i.Version)
}

// IsRelease reports whether Version is a tagged, non-prerelease version.
// Pseudo-versions from untagged commits count as prereleases.
func (i Info) IsRelease() bool {
	v, err := i.Semver()
	return err == nil && v.Prerelease() == ""
}

// String renders "mithras-link v1.2.3 (commit abc1234, built ...)",
// marking anything that is not a release build
func (i Info) String() string {
	name := "mithras-link " + i.Version
	if v, err := i.Semver(); err == nil {
		name = "mithras-link v" + v.String()
	}
	s := fmt.Sprintf("%s (commit %s, built %s)", name, i.Short(), i.BuildTime)
	if !i.IsRelease() {
		s += " [development build]"
	}
	return s
}

// Short returns the abbreviated commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
