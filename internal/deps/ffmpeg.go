package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// bundledCandidate maps binDir to the architecture-matched bundled binary
// path. Bundled binaries ship for linux amd64 and arm64 only.
func bundledCandidate(binDir, name string) (string, bool) {
	binDir = strings.TrimSpace(binDir)
	if binDir == "" || runtime.GOOS != "linux" {
		return "", false
	}
	arch := ""
	switch runtime.GOARCH {
	case "amd64":
		arch = "amd"
	case "arm64":
		arch = "arm"
	default:
		return "", false
	}
	return filepath.Join(binDir, arch, name), true
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
