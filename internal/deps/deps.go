// Package deps verifies the external tools framegrab invokes.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency framegrab relies on. Command is
// the bare executable name; when BundledDir is set, an architecture-matched
// bundled binary under it is preferred over PATH resolution.
type Requirement struct {
	Name        string
	Command     string
	BundledDir  string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Required returns the tools every capture run needs. binDir optionally
// holds bundled ffmpeg binaries laid out as {amd,arm}/ffmpeg; ffprobe always
// resolves from PATH, matching the probe client.
func Required(binDir string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			BundledDir:  binDir,
			Description: "Extracts screenshot frames",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Inspects media metadata and durations",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	if candidate, ok := bundledCandidate(req.BundledDir, cmd); ok {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			status.Command = candidate
			status.Available = true
			return status
		}
	}
	name := executableName(cmd)
	if path, err := exec.LookPath(name); err == nil {
		status.Command = path
		status.Available = true
		return status
	}
	status.Command = name
	status.Detail = fmt.Sprintf("binary %q not found", name)
	return status
}
