// Package misc keeps program identification stamped at build time.
package misc

import (
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X atomcss/misc.version=... -X atomcss/misc.gitHash=...".
var (
	appName = "atomcss"
	version = ""
	gitHash = ""
)

var fromBuildInfo = sync.OnceValues(func() (string, string) {
	ver, hash := "dev", "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ver, hash
	}
	if v := info.Main.Version; len(v) > 0 && v != "(devel)" {
		ver = v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) > 0 {
			hash = s.Value
		}
	}
	return ver, hash
})

func GetAppName() string {
	return appName
}

func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	v, _ := fromBuildInfo()
	return v
}

func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	_, h := fromBuildInfo()
	return h
}
