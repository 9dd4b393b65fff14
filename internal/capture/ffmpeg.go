package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/services"
	"framegrab/internal/tonemap"
)

// commandContext is swapped in tests to avoid invoking ffmpeg.
var commandContext = exec.CommandContext

// complexFilterHint is appended when ffmpeg reports a filter-graph
// initialization failure, which almost always means the build lacks a
// required filter (libplacebo, zscale).
const complexFilterHint = "the ffmpeg build is missing a required filter; install a build with libplacebo and zscale support or disable tonemapping"

// ResolveFFmpeg picks the ffmpeg binary: an architecture-matched bundled
// binary under binDir when present, otherwise the system binary on PATH.
func ResolveFFmpeg(binDir string) string {
	if strings.TrimSpace(binDir) == "" || runtime.GOOS != "linux" {
		return "ffmpeg"
	}
	arch := ""
	switch runtime.GOARCH {
	case "amd64":
		arch = "amd"
	case "arm64":
		arch = "arm"
	default:
		return "ffmpeg"
	}
	bundled := filepath.Join(binDir, arch, "ffmpeg")
	if info, err := os.Stat(bundled); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
		return bundled
	}
	return "ffmpeg"
}

// ExtractSpec describes one single-frame extraction.
type ExtractSpec struct {
	Input            string
	Output           string
	TimestampSec     float64
	FilterChain      string
	Strategy         tonemap.Strategy
	SkipNonKeyframes bool
	Timeout          time.Duration
}

// FrameInfo is the per-timestamp frame metadata rendered into overlays.
type FrameInfo struct {
	PictType string
	PTSSec   float64
}

// Extractor is the subprocess surface the orchestrator depends on.
// Implemented by Runner; faked in tests.
type Extractor interface {
	Extract(ctx context.Context, spec ExtractSpec) error
	FrameInfo(ctx context.Context, input string, timestampSec float64) (FrameInfo, error)
}

// Runner invokes ffmpeg for single-frame work.
type Runner struct {
	binary string
	cfg    config.Capture
	logger *slog.Logger

	// probeInput is the resolved input used for tonemap probes and warm-ups.
	probeInput string
	stages     func(tonemap.Strategy) string
}

// NewRunner builds a Runner for one resolved input. The stages function
// supplies the tonemap filter fragment for a strategy (the negotiator's
// FilterStage); it may be nil when tonemapping is disabled.
func NewRunner(cfg config.Capture, binDir, probeInput string, stages func(tonemap.Strategy) string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		binary:     ResolveFFmpeg(binDir),
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "ffmpeg"),
		probeInput: probeInput,
		stages:     stages,
	}
}

// Binary returns the resolved ffmpeg binary path.
func (r *Runner) Binary() string {
	return r.binary
}

// Extract captures the single frame described by spec. A non-zero exit is
// surfaced with the trimmed tool output, and filter-graph failures carry an
// actionable hint.
func (r *Runner) Extract(ctx context.Context, spec ExtractSpec) error {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if r.cfg.SingleThread {
		args = append(args, "-threads", "1")
	}
	args = append(args, tonemap.HardwareInputArgs(spec.Strategy)...)
	if spec.SkipNonKeyframes {
		args = append(args, "-skip_frame", "nokey")
	}
	args = append(args,
		"-ss", formatSeconds(spec.TimestampSec),
		"-i", spec.Input,
		"-map", "0:v:0",
		"-an", "-sn",
		"-frames:v", "1")
	if spec.FilterChain != "" {
		args = append(args, "-vf", spec.FilterChain)
	}
	args = append(args,
		"-compression_level", strconv.Itoa(r.cfg.CompressionLevel),
		"-pred", "mixed",
		spec.Output)

	cmd := commandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if strings.Contains(detail, "Error initializing complex filters") {
			detail = detail + "; " + complexFilterHint
		}
		return services.Wrap(services.ErrSubprocess, "capture", "extract",
			fmt.Sprintf("extract frame at %s", formatSeconds(spec.TimestampSec)),
			fmt.Errorf("%w: %s", err, detail))
	}
	return nil
}

// Probe attempts a throwaway single-frame extraction with the strategy's
// filter chain, discarding output. Satisfies the negotiator's prober.
func (r *Runner) Probe(ctx context.Context, strategy tonemap.Strategy) error {
	return r.nullExtract(ctx, strategy, 0)
}

// Warmup runs a discarded extraction at a 0.1s offset on the hardware chain.
func (r *Runner) Warmup(ctx context.Context) error {
	return r.nullExtract(ctx, tonemap.StrategyHardware, 0.1)
}

func (r *Runner) nullExtract(ctx context.Context, strategy tonemap.Strategy, offset float64) error {
	timeout := time.Duration(r.cfg.CaptureTimeoutSeconds) * time.Second
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	chain := ""
	if r.stages != nil {
		chain = r.stages(strategy)
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	args = append(args, tonemap.HardwareInputArgs(strategy)...)
	args = append(args,
		"-ss", formatSeconds(offset),
		"-i", r.probeInput,
		"-map", "0:v:0",
		"-an", "-sn",
		"-frames:v", "1")
	if chain != "" {
		args = append(args, "-vf", chain)
	}
	args = append(args, "-f", "null", "-")

	cmd := commandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrSubprocess, "capture", "probe",
			fmt.Sprintf("%s chain probe", strategy),
			fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))))
	}
	return nil
}

var (
	pictTypePattern = regexp.MustCompile(`pict_type:(\w)`)
	ptsTimePattern  = regexp.MustCompile(`pts_time:(\d+\.?\d*)`)
)

// FrameInfo probes the frame decoded at the timestamp via showinfo,
// parsing the picture type and exact presentation timestamp from stderr.
// The probed PTS replaces the requested timestamp only when it is plausible
// (above one second and within ten seconds of the seek point).
func (r *Runner) FrameInfo(ctx context.Context, input string, timestampSec float64) (FrameInfo, error) {
	timeout := time.Duration(r.cfg.CaptureTimeoutSeconds) * time.Second
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "info",
		"-ss", formatSeconds(timestampSec),
		"-i", input,
		"-map", "0:v:0",
		"-an", "-sn",
		"-vf", "showinfo",
		"-frames:v", "1",
		"-f", "null", "-",
	}
	cmd := commandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return FrameInfo{}, services.Wrap(services.ErrSubprocess, "capture", "frameinfo",
			fmt.Sprintf("probe frame at %s", formatSeconds(timestampSec)),
			fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))))
	}

	info := FrameInfo{PTSSec: timestampSec}
	if match := pictTypePattern.FindStringSubmatch(string(output)); match != nil {
		info.PictType = match[1]
	}
	if match := ptsTimePattern.FindStringSubmatch(string(output)); match != nil {
		if pts, parseErr := strconv.ParseFloat(match[1], 64); parseErr == nil {
			if pts > 1.0 && pts-timestampSec < 10 && timestampSec-pts < 10 {
				info.PTSSec = pts
			}
		}
	}
	return info, nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
