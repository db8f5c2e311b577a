package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func stubVars(t *testing.T, version, commit, dirty string) {
	t.Helper()
	v, c, d := Version, Commit, Dirty
	Version, Commit, Dirty = version, commit, dirty
	t.Cleanup(func() { Version, Commit, Dirty = v, c, d })
}

// --- Get Tests ---

func TestGet_LdflagsWin(t *testing.T) {
	stubVars(t, "1.2.0", "abc", "false")
	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "zzz"}},
	})

	i := Get()
	if i.Version != "1.2.0" || i.Commit != "abc" {
		t.Errorf("Get() = %+v", i)
	}
}

func TestGet_BuildInfoFallback(t *testing.T) {
	stubVars(t, "dev", "unknown", "false")
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2030-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	i := Get()
	if i.Version != "0.4.1" || i.Commit != "0123456789abcdef0123" || i.BuildDate != "2030-01-02T03:04:05Z" || !i.Dirty {
		t.Errorf("Get() = %+v", i)
	}
	if String() != "0.4.1-dirty" {
		t.Errorf("String() = %q", String())
	}
	if !strings.Contains(Full(), "commit:  0123456789ab\n") {
		t.Errorf("Full() should shorten the commit:\n%s", Full())
	}
}

func TestGet_DevelBuild(t *testing.T) {
	stubVars(t, "dev", "unknown", "false")
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got := String(); got != "dev" {
		t.Errorf("String() = %q", got)
	}
}

func TestGet_NoBuildInfo(t *testing.T) {
	stubVars(t, "dev", "unknown", "false")
	stubBuildInfo(t, nil)
	if !strings.HasPrefix(Full(), "staylens dev\n") {
		t.Errorf("Full() = %q", Full())
	}
}
