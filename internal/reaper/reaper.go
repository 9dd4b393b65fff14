// Package reaper terminates orphaned descendant processes after
// cancellation or a fatal pipeline error, so no ffmpeg invocation outlives
// its run.
package reaper

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"framegrab/internal/logging"
)

const (
	terminateWait = 3 * time.Second
	pollInterval  = 100 * time.Millisecond
)

// Reaper kills descendants of the current process.
type Reaper struct {
	logger *slog.Logger
	// procRoot is /proc in production; tests point it at a fixture tree.
	procRoot string
}

// New builds a reaper. A nil logger is replaced with a no-op.
func New(logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reaper{
		logger:   logging.NewComponentLogger(logger, "reaper"),
		procRoot: "/proc",
	}
}

// ReapChildren terminates every descendant of this process: SIGTERM first,
// a bounded wait, then SIGKILL for survivors. Permission errors from
// sandboxed environments are logged and swallowed.
func (r *Reaper) ReapChildren() {
	descendants := r.Descendants(os.Getpid())
	if len(descendants) == 0 {
		return
	}
	r.logger.Info("terminating orphaned descendants", logging.Int("count", len(descendants)))

	for _, pid := range descendants {
		r.signal(pid, unix.SIGTERM)
	}

	deadline := time.Now().Add(terminateWait)
	for time.Now().Before(deadline) {
		if len(r.alive(descendants)) == 0 {
			return
		}
		time.Sleep(pollInterval)
	}

	for _, pid := range r.alive(descendants) {
		r.logger.Warn("process survived terminate, killing", logging.Int("pid", pid))
		r.signal(pid, unix.SIGKILL)
	}
}

// Descendants returns every transitive child of root, depth-first so
// leaves are signaled before their parents.
func (r *Reaper) Descendants(root int) []int {
	children := r.childMap()
	var out []int
	var walk func(pid int)
	walk = func(pid int) {
		for _, child := range children[pid] {
			walk(child)
			out = append(out, child)
		}
	}
	walk(root)
	return out
}

// childMap builds a parent-to-children index from the proc tree.
func (r *Reaper) childMap() map[int][]int {
	entries, err := os.ReadDir(r.procRoot)
	if err != nil {
		r.logger.Warn("cannot read proc tree", logging.Error(err))
		return nil
	}
	children := make(map[int][]int)
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ppid, ok := r.parentOf(pid)
		if !ok {
			continue
		}
		children[ppid] = append(children[ppid], pid)
	}
	return children
}

// parentOf reads the PPid field from /proc/<pid>/status.
func (r *Reaper) parentOf(pid int) (int, bool) {
	data, err := os.ReadFile(filepath.Join(r.procRoot, strconv.Itoa(pid), "status"))
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "PPid:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "PPid:"))
		ppid, err := strconv.Atoi(value)
		if err != nil {
			return 0, false
		}
		return ppid, true
	}
	return 0, false
}

func (r *Reaper) signal(pid int, sig unix.Signal) {
	err := unix.Kill(pid, sig)
	switch {
	case err == nil:
	case errors.Is(err, unix.ESRCH):
	case errors.Is(err, unix.EPERM):
		r.logger.Warn("no permission to signal process",
			logging.Int("pid", pid),
			logging.String("signal", sig.String()))
	default:
		r.logger.Warn("signal failed",
			logging.Int("pid", pid),
			logging.Error(err))
	}
}

func (r *Reaper) alive(pids []int) []int {
	var out []int
	for _, pid := range pids {
		if err := unix.Kill(pid, 0); err == nil {
			out = append(out, pid)
		}
	}
	return out
}
