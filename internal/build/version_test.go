package build_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/event-scraper/internal/build"
)

func setVersion(t *testing.T, version, commit string) {
	t.Helper()
	prevVersion, prevCommit := build.Version, build.Commit
	build.Version, build.Commit = version, commit
	t.Cleanup(func() {
		build.Version, build.Commit = prevVersion, prevCommit
	})
}

func TestFullVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{
			name:    "default values",
			version: "dev",
			commit:  "none",
			want:    "dev+none",
		},
		{
			name:    "release with short commit",
			version: "0.4.0",
			commit:  "3f9c2e1",
			want:    "0.4.0+3f9c2e1",
		},
		{
			name:    "version with empty commit",
			version: "0.4.0",
			commit:  "",
			want:    "0.4.0+",
		},
		{
			name:    "prerelease with long commit hash",
			version: "1.0.0-rc.1",
			commit:  "b8e1f04a9d1c7e3366a0fd2d4f6a8b1c9e7d5a20",
			want:    "1.0.0-rc.1+b8e1f04a9d1c7e3366a0fd2d4f6a8b1c9e7d5a20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setVersion(t, tt.version, tt.commit)

			got := build.FullVersion()
			if got != tt.want {
				t.Errorf("FullVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	setVersion(t, "0.4.0", "3f9c2e1")

	got := build.Info()
	if !strings.HasPrefix(got, "event-scraper 0.4.0+3f9c2e1 (built ") {
		t.Errorf("Info() = %q", got)
	}
	if !strings.Contains(got, build.BuildTime) {
		t.Errorf("Info() = %q, missing build time %q", got, build.BuildTime)
	}
}
