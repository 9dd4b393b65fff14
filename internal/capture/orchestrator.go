package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"framegrab/internal/config"
	"framegrab/internal/logging"
	"framegrab/internal/media"
	"framegrab/internal/tonemap"
)

// Request is one planned capture. Index is the stable identifier used to
// restore ordering after concurrent completion.
type Request struct {
	Index        int
	TimestampSec float64
	OutputPath   string
	Overlay      *OverlayText
}

// Result is the outcome of one capture slot. A failed slot carries Err and
// an empty path; the batch continues around it.
type Result struct {
	Index        int
	Path         string
	TimestampSec float64
	SizeBytes    int64
	Err          error
}

// Orchestrator runs bounded concurrent capture batches and the retake loop.
type Orchestrator struct {
	cfg              config.Capture
	runner           Extractor
	negotiator       *tonemap.Negotiator
	skipNonKeyframes bool
	logger           *slog.Logger
}

// NewOrchestrator builds an orchestrator over a runner and the run's
// tonemap negotiator. skipNonKeyframes restricts extraction to keyframes,
// used for VC-1 and Dolby Vision Blu-ray streams.
func NewOrchestrator(cfg config.Capture, runner Extractor, negotiator *tonemap.Negotiator, skipNonKeyframes bool, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:              cfg,
		runner:           runner,
		negotiator:       negotiator,
		skipNonKeyframes: skipNonKeyframes,
		logger:           logging.NewComponentLogger(logger, "capture"),
	}
}

// Requests builds the capture requests for a batch, naming outputs
// `<base>-<index>.png` under the work directory.
func Requests(workDir, baseName string, timestamps []float64) []Request {
	requests := make([]Request, 0, len(timestamps))
	for i, ts := range timestamps {
		requests = append(requests, Request{
			Index:        i,
			TimestampSec: ts,
			OutputPath:   filepath.Join(workDir, fmt.Sprintf("%s-%d.png", baseName, i)),
		})
	}
	return requests
}

// PrefetchFrameInfo probes frame metadata for every timestamp concurrently,
// ahead of the capture batch. Slots whose probe fails fall back to the
// requested timestamp with no picture type.
func (o *Orchestrator) PrefetchFrameInfo(ctx context.Context, input media.Input, timestamps []float64) []FrameInfo {
	infos := make([]FrameInfo, len(timestamps))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.ProcessLimit)
	for i, ts := range timestamps {
		i, ts := i, ts
		group.Go(func() error {
			info, err := o.runner.FrameInfo(ctx, input.Path, ts)
			if err != nil {
				o.logger.Warn("frame info probe failed",
					logging.Int(logging.FieldIndex, i),
					logging.Float64(logging.FieldTimestamp, ts),
					logging.Error(err))
				infos[i] = FrameInfo{PTSSec: ts}
				return nil
			}
			infos[i] = info
			return nil
		})
	}
	_ = group.Wait()
	return infos
}

// CaptureBatch executes the requests with bounded concurrency, matches
// results to their planned indices, and re-sorts the set. Per-slot failures
// land in the corresponding Result; only cancellation aborts the batch.
func (o *Orchestrator) CaptureBatch(ctx context.Context, input media.Input, requests []Request, retakeMode bool) ([]Result, error) {
	results := make([]Result, len(requests))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.ProcessLimit)
	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			if !retakeMode {
				if size, err := fileSize(req.OutputPath); err == nil && size > 0 {
					o.logger.Info("reusing existing screenshot",
						logging.Int(logging.FieldIndex, req.Index),
						logging.String(logging.FieldPath, req.OutputPath),
						logging.Int64(logging.FieldSizeBytes, size))
					results[i] = Result{Index: req.Index, Path: req.OutputPath, TimestampSec: req.TimestampSec, SizeBytes: size}
					return nil
				}
			}
			results[i] = o.captureOne(groupCtx, input, req)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		o.cleanupPartials(requests)
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })
	return results, nil
}

// captureOne runs one extraction with the active tonemap strategy. A
// hardware failure gets exactly one retry with a longer deadline; if that
// also fails the run downgrades to the software chain permanently and the
// capture is attempted once more.
func (o *Orchestrator) captureOne(ctx context.Context, input media.Input, req Request) Result {
	timestamp := clampTimestamp(req.TimestampSec, input.Meta.DurationSec)
	decision := o.negotiator.Current()
	spec := o.buildSpec(input, req, timestamp, decision)

	err := o.runner.Extract(ctx, spec)
	if err != nil && decision.Strategy == tonemap.StrategyHardware && ctx.Err() == nil {
		o.logger.Warn("hardware capture failed, retrying with longer timeout",
			logging.Int(logging.FieldIndex, req.Index),
			logging.Error(err))
		spec.Timeout = time.Duration(o.cfg.CaptureRetryTimeoutSeconds) * time.Second
		err = o.runner.Extract(ctx, spec)
		if err != nil && ctx.Err() == nil {
			decision = o.negotiator.Downgrade()
			spec = o.buildSpec(input, req, timestamp, decision)
			err = o.runner.Extract(ctx, spec)
		}
	}
	if err != nil {
		o.logger.Error("capture failed",
			logging.Int(logging.FieldIndex, req.Index),
			logging.Float64(logging.FieldTimestamp, timestamp),
			logging.Error(err))
		removeIfEmpty(req.OutputPath)
		return Result{Index: req.Index, TimestampSec: timestamp, Err: err}
	}

	size, sizeErr := fileSize(req.OutputPath)
	if sizeErr != nil {
		return Result{Index: req.Index, TimestampSec: timestamp, Err: sizeErr}
	}
	o.logger.Info("captured frame",
		logging.Int(logging.FieldIndex, req.Index),
		logging.Float64(logging.FieldTimestamp, timestamp),
		logging.Int64(logging.FieldSizeBytes, size),
		logging.String(logging.FieldStrategy, string(decision.Strategy)))
	return Result{Index: req.Index, Path: req.OutputPath, TimestampSec: timestamp, SizeBytes: size}
}

func (o *Orchestrator) buildSpec(input media.Input, req Request, timestamp float64, decision tonemap.Decision) ExtractSpec {
	stage := ""
	if decision.Applied {
		stage = o.negotiator.FilterStage(decision.Strategy)
	}
	overlay := req.Overlay
	if overlay != nil {
		overlay.Tonemapped = decision.Applied
	}
	return ExtractSpec{
		Input:            input.Path,
		Output:           req.OutputPath,
		TimestampSec:     timestamp,
		FilterChain:      BuildFilterChain(input.Meta, stage, overlay),
		Strategy:         decision.Strategy,
		Timeout:          time.Duration(o.cfg.CaptureTimeoutSeconds) * time.Second,
		SkipNonKeyframes: o.skipNonKeyframes,
	}
}

// DropSmallest removes the smallest successful capture when the batch
// produced more results than required (the disc "+1" safety sample). Ties
// keep the first minimum. Returns results unchanged when the policy is off.
func (o *Orchestrator) DropSmallest(results []Result, required int) []Result {
	if !o.cfg.DropSmallestExtra {
		return results
	}
	successful := 0
	for _, res := range results {
		if res.Err == nil {
			successful++
		}
	}
	if successful <= required {
		return results
	}

	smallest := -1
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if smallest < 0 || res.SizeBytes < results[smallest].SizeBytes {
			smallest = i
		}
	}
	if smallest < 0 {
		return results
	}
	dropped := results[smallest]
	o.logger.Info("dropping smallest extra capture",
		logging.Int(logging.FieldIndex, dropped.Index),
		logging.String(logging.FieldPath, dropped.Path),
		logging.Int64(logging.FieldSizeBytes, dropped.SizeBytes))
	_ = os.Remove(dropped.Path)
	return append(results[:smallest:smallest], results[smallest+1:]...)
}

// cleanupPartials removes partially written outputs after cancellation.
func (o *Orchestrator) cleanupPartials(requests []Request) {
	for _, req := range requests {
		removeIfEmpty(req.OutputPath)
	}
}

// clampTimestamp keeps seek points strictly below the probed duration.
func clampTimestamp(timestamp, duration float64) float64 {
	if timestamp < 0 {
		return 0
	}
	if duration > 0 && timestamp >= duration {
		timestamp = duration - 1
		if timestamp < 0 {
			timestamp = 0
		}
	}
	return timestamp
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func removeIfEmpty(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
	}
}
