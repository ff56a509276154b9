// Package version carries build metadata for the directory, generate and
// healthcheck binaries.
//
// Release builds stamp the variables below with -ldflags, e.g.
//
//	-X merchantdir/internal/version.Version=v1.2.0
//	-X merchantdir/internal/version.GitCommit=$(git rev-parse --short HEAD)
//	-X merchantdir/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)
//
// A plain `go build` from a checkout falls back to the VCS stamp the Go
// toolchain embeds.
package version

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

const unknown = "unknown"

var (
	Version   = unknown
	BuildDate = unknown
	GitCommit = unknown
)

// Info is the build metadata plus per-process identity.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns the process's Info. The instance ID is generated on the
// first call and stays fixed for the life of the process.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.New().String(),
			Hostname:   hostname(),
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			fillFromBuildInfo(&info, bi)
		}
	})
	return info
}

// fillFromBuildInfo replaces fields still at "unknown" with the module
// version and vcs.* settings. Values set via ldflags always win.
func fillFromBuildInfo(i *Info, bi *debug.BuildInfo) {
	if i.Version == unknown && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}

	var fromVCS, modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == unknown && s.Value != "" {
				i.GitCommit = shortRevision(s.Value)
				fromVCS = true
			}
		case "vcs.time":
			if i.BuildDate == unknown && s.Value != "" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if fromVCS && modified {
		i.GitCommit += "-dirty"
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return unknown
	}
	return h
}

// LogAttrs returns the build fields attached to every log record.
func (i Info) LogAttrs() []any {
	return []any{
		slog.String("version", i.Version),
		slog.String("git_commit", i.GitCommit),
		slog.String("build_date", i.BuildDate),
	}
}

// UserAgent identifies an outbound client, e.g.
// "merchant-directory-healthcheck/v1.2.0".
func (i Info) UserAgent(component string) string {
	return fmt.Sprintf("merchant-directory-%s/%s", component, i.Version)
}

// String formats version info for -version output.
func (i Info) String() string {
	return fmt.Sprintf("merchant-directory version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}
