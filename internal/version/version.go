// Package version provides build information for the Arbor library.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information.
type BuildInfo struct {
	Version   string    `json:"version"`
	BuildDate string    `json:"build_date"`
	GitCommit string    `json:"git_commit"`
	GoVersion string    `json:"go_version"`
	BuildTime time.Time `json:"build_time"`
	Dirty     bool      `json:"dirty"`
	Module    string    `json:"module"`
}

// Info returns detailed build information.
func Info() BuildInfo {
	buildTime, _ := time.Parse(time.RFC3339, BuildDate)
	if buildTime.IsZero() {
		buildTime = time.Now()
	}

	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		BuildTime: buildTime,
		Dirty:     strings.Contains(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Module = buildInfo.Main.Path
	}

	return info
}

// String returns a formatted version string.
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("Arbor Expression Library\n")
	sb.WriteString(fmt.Sprintf("Version: %s", b.Version))
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		sb.WriteString(fmt.Sprintf("Build Date: %s\n", b.BuildDate))
	}
	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		sb.WriteString(fmt.Sprintf("Git Commit: %s\n", commit))
	}
	sb.WriteString(fmt.Sprintf("Go Version: %s\n", b.GoVersion))
	if b.Module != "" {
		sb.WriteString(fmt.Sprintf("Module: %s\n", b.Module))
	}

	return sb.String()
}

// IsRelease returns true if this is a release version (not dev).
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
