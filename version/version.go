// Package version holds build details, set with -ldflags at release time.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Build and version details
var (
	GitCommit = ""
	GitBranch = ""
	BuildDate = ""
	Version   = "unknown"
)

func init() {
	if GitCommit != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			GitCommit = s.Value
		case "vcs.time":
			if BuildDate == "" {
				BuildDate = s.Value
			}
		}
	}
}

// String formats the known version details, one per line.
func String() string {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"git commit", GitCommit},
		{"git branch", GitBranch},
		{"build date", BuildDate},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
		}
	}
	fmt.Fprintf(&b, "version: %s", Version)
	return b.String()
}

// LogFields returns the version details as logger key/value pairs.
func LogFields() []interface{} {
	return []interface{}{
		"GitCommit", GitCommit,
		"GitBranch", GitBranch,
		"BuildDate", BuildDate,
		"Version", Version,
	}
}
