package build

import (
	"fmt"
	"runtime"
)

// Set at link time, e.g.
//
//	go build -ldflags "-X github.com/rohmanhakim/event-scraper/internal/build.Version=1.2.0"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Info is the one-line banner printed by the version command.
func Info() string {
	return fmt.Sprintf("event-scraper %s (built %s, %s)", FullVersion(), BuildTime, runtime.Version())
}
