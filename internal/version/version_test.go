package version

import (
	"strings"
	"testing"
)

func TestBannerShortensCommit(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		GitCommit: "0123456789abcdef",
		BuildDate: "2025-01-01",
		GoVersion: "go1.24.11",
		Platform:  "linux/amd64",
	}

	got := info.Banner()
	want := "rodopt 1.2.0 (0123456, built 2025-01-01, go1.24.11 linux/amd64)"
	if got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != String() {
		t.Errorf("Version = %q, want %q", info.Version, String())
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want os/arch", info.Platform)
	}
	if !strings.HasPrefix(info.Banner(), Name+" ") {
		t.Errorf("Banner() = %q", info.Banner())
	}
}
