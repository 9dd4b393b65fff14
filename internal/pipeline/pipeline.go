// Package pipeline wires the capture and rehost stages into the end-to-end
// screenshot workflow for one unit of work.
//
// Control flow: the artifact scanner runs first and may short-circuit
// everything; otherwise timestamps are planned, the tonemap strategy is
// negotiated once, the capture batch runs with bounded concurrency, the
// validator retakes undersized frames, and the surviving set is handed to
// the rehost validator. Descendant processes are reaped on cancellation and
// fatal errors.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"framegrab/internal/artifacts"
	"framegrab/internal/capture"
	"framegrab/internal/config"
	"framegrab/internal/hosts"
	"framegrab/internal/imghost"
	"framegrab/internal/logging"
	"framegrab/internal/media"
	"framegrab/internal/planner"
	"framegrab/internal/reaper"
	"framegrab/internal/rehost"
	"framegrab/internal/services"
	"framegrab/internal/tonemap"
)

// FrameTool is the subprocess surface one run needs: captures plus tonemap
// probes. The production implementation is capture.Runner.
type FrameTool interface {
	capture.Extractor
	tonemap.Prober
}

// Request describes one unit of work.
type Request struct {
	// RunID keys the exclusive work directory. Generated when empty.
	RunID    string
	Source   media.Source
	Category planner.Category

	// ApprovedHosts and HostnameMapping come from the tracker registry.
	ApprovedHosts   []string
	HostnameMapping map[string]string

	// KnownURLs is the image list already recorded for this unit of work.
	KnownURLs []string
	// ReleaseURL scopes cover-art cache entries; empty for screenshots.
	ReleaseURL string
	// Covers selects the cover-art cache variant.
	Covers bool

	// ManualFrames bypasses planning and size validation.
	ManualFrames []int
	// Overlay burns frame diagnostics into each screenshot.
	Overlay bool
}

// Result is the outcome of a run.
type Result struct {
	RunID          string
	WorkDir        string
	Screenshots    []string
	Records        []artifacts.Record
	Reuploaded     bool
	ShortCircuited bool
	TonemapApplied bool
	// FailedIndices lists capture slots that exhausted their retake budget.
	FailedIndices []int
}

// Pipeline runs the capture and rehost stages.
type Pipeline struct {
	cfg      *config.Config
	uploader imghost.Uploader
	prober   media.Prober
	tool     FrameTool
	logger   *slog.Logger
	reaper   *reaper.Reaper
}

// New builds a pipeline. tool may be nil, in which case a capture.Runner is
// created per run against the resolved input.
func New(cfg *config.Config, uploader imghost.Uploader, prober media.Prober, tool FrameTool, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		uploader: uploader,
		prober:   prober,
		tool:     tool,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		reaper:   reaper.New(logger),
	}
}

// Run captures screenshots and rehosts them to an approved host.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	result, err := p.Capture(ctx, req)
	if err != nil {
		return result, err
	}
	// Cached records were already approval-checked during the scan.
	if len(result.Records) > 0 {
		return result, nil
	}
	return p.Rehost(ctx, req, result)
}

// Capture runs the scan, plan, tonemap, capture, and retake stages.
func (p *Pipeline) Capture(ctx context.Context, req Request) (Result, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, req.RunID)
	ctx = services.WithStage(ctx, "capture")
	logger := p.logger.With(logging.String("run_id", req.RunID))

	workDir := p.cfg.WorkDirFor(req.RunID)
	result := Result{RunID: req.RunID, WorkDir: workDir}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "capture", "workdir", workDir, err)
	}

	approvalSet := hosts.NewApprovalSet(req.ApprovedHosts, req.HostnameMapping)
	cache := p.cacheFor(workDir, req.Covers)

	scanner := artifacts.NewScanner(logger)
	scan, err := scanner.Scan(workDir, req.Source.BaseName(), p.cfg.Capture.Cutoff, req.KnownURLs, approvalSet, cache, req.ReleaseURL)
	if err != nil {
		return result, err
	}
	if scan.ShortCircuit {
		result.ShortCircuited = true
		return result, nil
	}
	if len(scan.CachedRecords) > 0 {
		result.Records = scan.CachedRecords
		result.ShortCircuited = true
		return result, nil
	}
	if len(req.ManualFrames) == 0 && len(scan.Paths) >= p.cfg.Capture.Screens {
		logger.Info("reusing existing screenshots",
			logging.Int("count", p.cfg.Capture.Screens))
		result.Screenshots = append(result.Screenshots, scan.Paths[:p.cfg.Capture.Screens]...)
		return result, nil
	}

	input, err := req.Source.ResolveInput(ctx, p.prober)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "capture", "resolve input", "", err)
	}
	if err := p.preflight(input.Meta); err != nil {
		return result, err
	}

	timestamps, manual := p.timestamps(req, input.Meta)
	if len(timestamps) == 0 {
		return result, services.Wrap(services.ErrConfiguration, "capture", "plan",
			"no capture timestamps for source", nil)
	}

	var negotiator *tonemap.Negotiator
	tool := p.tool
	if tool == nil {
		// The runner probes with the negotiator's filter chains; the
		// closure binds late, before the first probe runs.
		stages := func(s tonemap.Strategy) string { return negotiator.FilterStage(s) }
		tool = capture.NewRunner(p.cfg.Capture, p.cfg.Paths.FFmpegBinDir, input.Path, stages, logger)
	}
	negotiator = tonemap.NewNegotiator(p.cfg.Tonemap, tool, logger)
	decision := negotiator.Negotiate(ctx, input.Meta.HDR.IsHDR(), req.Overlay && p.cfg.Capture.FrameOverlay)
	negotiator.WarmUp(ctx)
	result.TonemapApplied = decision.Applied

	orchestrator := capture.NewOrchestrator(p.cfg.Capture, tool, negotiator, req.Source.SkipNonKeyframes(), logger)
	requests := capture.Requests(workDir, req.Source.BaseName(), timestamps)
	p.attachOverlays(ctx, orchestrator, input, requests, req, decision)

	results, err := orchestrator.CaptureBatch(ctx, input, requests, false)
	if err != nil {
		p.reaper.ReapChildren()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		return result, services.Wrap(services.ErrSubprocess, "capture", "batch", "", err)
	}

	required := p.cfg.Capture.Screens
	if len(results) > required {
		results = orchestrator.DropSmallest(results, required)
	}

	if !manual {
		host := p.validationHost(req.ApprovedHosts)
		results = orchestrator.ValidateAndRetake(ctx, input, req.Source.Kind(), results, host, true)
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })
	for _, res := range results {
		if res.Err != nil {
			logger.Warn("capture slot failed",
				logging.Int(logging.FieldIndex, res.Index),
				logging.Error(res.Err))
			result.FailedIndices = append(result.FailedIndices, res.Index)
			continue
		}
		result.Screenshots = append(result.Screenshots, res.Path)
	}
	if len(result.Screenshots) == 0 {
		return result, services.Wrap(services.ErrExhausted, "capture", "batch",
			"no screenshots produced", nil)
	}
	return result, nil
}

// Rehost validates hosting for a capture result's screenshots.
func (p *Pipeline) Rehost(ctx context.Context, req Request, result Result) (Result, error) {
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithStage(ctx, "rehost")
	logger := p.logger.With(logging.String("run_id", result.RunID))

	// The reupload cache and its lock file live in the work directory.
	if err := os.MkdirAll(result.WorkDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "rehost", "workdir", result.WorkDir, err)
	}

	approvalSet := hosts.NewApprovalSet(req.ApprovedHosts, req.HostnameMapping)
	cache := p.cacheFor(result.WorkDir, req.Covers)
	validator := rehost.NewValidator(p.uploader, approvalSet, p.cfg.Upload.Hosts, cache, logger)

	outcome, err := validator.EnsureApproved(ctx, req.KnownURLs, result.Screenshots, req.ReleaseURL)
	if err != nil {
		return result, err
	}
	result.Records = outcome.Records
	result.Reuploaded = outcome.Reuploaded
	return result, nil
}

func (p *Pipeline) cacheFor(workDir string, covers bool) *artifacts.Cache {
	if covers {
		return artifacts.NewCoverCache(workDir, p.logger)
	}
	return artifacts.NewCache(workDir, p.logger)
}

// preflight rejects sources the planner cannot sample.
func (p *Pipeline) preflight(meta media.Metadata) error {
	if meta.DurationSec <= 0 || meta.FrameRate <= 0 {
		return services.Wrap(services.ErrConfiguration, "capture", "preflight",
			fmt.Sprintf("unusable source metadata: duration %.2fs, frame rate %.3f",
				meta.DurationSec, meta.FrameRate), nil)
	}
	usable := meta.DurationSec * meta.FrameRate * 0.85
	if int(usable) <= 0 {
		return services.Wrap(services.ErrConfiguration, "capture", "preflight",
			"source too short to sample", nil)
	}
	return nil
}

// timestamps returns the capture plan. Manual frame selections convert
// directly to seconds and bypass planning; the second return reports that.
func (p *Pipeline) timestamps(req Request, meta media.Metadata) ([]float64, bool) {
	if len(req.ManualFrames) > 0 {
		out := make([]float64, 0, len(req.ManualFrames))
		for _, frame := range req.ManualFrames {
			if frame < 0 {
				continue
			}
			out = append(out, float64(frame)/meta.FrameRate)
		}
		sort.Float64s(out)
		return out, true
	}
	isDisc := req.Source.Kind() != media.KindSingleFile
	return planner.Plan(planner.Request{
		DurationSec: meta.DurationSec,
		FrameRate:   meta.FrameRate,
		NumScreens:  p.cfg.Capture.Screens,
		Category:    req.Category,
		IsDisc:      isDisc,
	}), false
}

// attachOverlays prefetches frame metadata and decorates requests when the
// diagnostic overlay is enabled.
func (p *Pipeline) attachOverlays(ctx context.Context, orchestrator *capture.Orchestrator, input media.Input, requests []capture.Request, req Request, decision tonemap.Decision) {
	if !req.Overlay || !p.cfg.Capture.FrameOverlay {
		return
	}
	timestamps := make([]float64, len(requests))
	for i, r := range requests {
		timestamps[i] = r.TimestampSec
	}
	infos := orchestrator.PrefetchFrameInfo(ctx, input, timestamps)
	for i := range requests {
		requests[i].TimestampSec = infos[i].PTSSec
		requests[i].Overlay = &capture.OverlayText{
			FrameNumber: int(infos[i].PTSSec * input.Meta.FrameRate),
			PictType:    infos[i].PictType,
			Tonemapped:  decision.Applied,
			TextSize:    p.cfg.Capture.OverlayTextSize,
		}
	}
}

// validationHost picks the host whose size policy governs retakes: the
// first configured priority host the tracker approves, falling back to the
// first approved host.
func (p *Pipeline) validationHost(approved []string) string {
	set := hosts.NewApprovalSet(approved, nil)
	for _, host := range p.cfg.Upload.Hosts {
		if set.Approved(host) {
			return host
		}
	}
	if len(approved) > 0 {
		return approved[0]
	}
	if len(p.cfg.Upload.Hosts) > 0 {
		return p.cfg.Upload.Hosts[0]
	}
	return ""
}
