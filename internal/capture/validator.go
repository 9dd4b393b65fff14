package capture

import (
	"context"
	"fmt"
	"math/rand"

	"framegrab/internal/hosts"
	"framegrab/internal/logging"
	"framegrab/internal/media"
	"framegrab/internal/services"
)

// randFloat is swapped in tests for deterministic disc retake timestamps.
var randFloat = rand.Float64

// singleFileOffsets is the fixed retake schedule for single-file sources,
// in seconds relative to the original timestamp, each clamped at zero.
var singleFileOffsets = []float64{5, 10, -10, 100, -100}

const discRetakeAttempts = 3

// ValidateAndRetake applies the host size policy to every successful
// capture and drives the bounded retake loop over failures. Single-file
// sources walk the fixed offset schedule; disc sources draw uniform random
// timestamps across the full duration. Slots that exhaust their budget keep
// an ErrExhausted failure and the rest of the batch continues.
//
// firstPass tightens the DVD acceptance floor for initial captures; retakes
// always accept anything above the universal floor the host allows.
func (o *Orchestrator) ValidateAndRetake(ctx context.Context, input media.Input, kind media.Kind, results []Result, host string, firstPass bool) []Result {
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if o.acceptable(results[i].SizeBytes, kind, host, firstPass) {
			continue
		}
		o.logger.Info("capture rejected by size policy",
			logging.Int(logging.FieldIndex, results[i].Index),
			logging.Int64(logging.FieldSizeBytes, results[i].SizeBytes),
			logging.String(logging.FieldHost, host))
		results[i] = o.retake(ctx, input, kind, results[i], host)
	}
	return results
}

func (o *Orchestrator) acceptable(size int64, kind media.Kind, host string, firstPass bool) bool {
	if size <= hosts.RetakeFloorBytes {
		return false
	}
	if firstPass && kind == media.KindDVD && size <= hosts.DVDInitialFloorBytes {
		return false
	}
	return hosts.ValidateSize(host, size) == nil
}

func (o *Orchestrator) retake(ctx context.Context, input media.Input, kind media.Kind, failed Result, host string) Result {
	timestamps := o.retakeTimestamps(kind, failed.TimestampSec, input.Meta.DurationSec)
	for attempt, ts := range timestamps {
		if ctx.Err() != nil {
			failed.Err = ctx.Err()
			return failed
		}
		req := Request{Index: failed.Index, TimestampSec: ts, OutputPath: failed.Path}
		if req.OutputPath == "" {
			return exhausted(failed, "no output path to retake")
		}
		result := o.captureOne(ctx, input, req)
		o.logger.Info("retake attempt",
			logging.Int(logging.FieldAttempt, attempt+1),
			logging.Int(logging.FieldIndex, failed.Index),
			logging.Float64(logging.FieldTimestamp, ts),
			logging.Int64(logging.FieldSizeBytes, result.SizeBytes))
		if result.Err == nil && result.SizeBytes > hosts.RetakeFloorBytes && hosts.ValidateSize(host, result.SizeBytes) == nil {
			return result
		}
	}
	return exhausted(failed, fmt.Sprintf("%d retakes below size policy for host %s", len(timestamps), host))
}

// retakeTimestamps builds the retake schedule: the fixed offset sequence
// for single files, uniform random draws over the duration for discs.
func (o *Orchestrator) retakeTimestamps(kind media.Kind, original, duration float64) []float64 {
	if kind == media.KindSingleFile {
		timestamps := make([]float64, 0, len(singleFileOffsets))
		for _, offset := range singleFileOffsets {
			ts := original + offset
			if ts < 0 {
				ts = 0
			}
			timestamps = append(timestamps, ts)
		}
		return timestamps
	}
	timestamps := make([]float64, 0, discRetakeAttempts)
	for i := 0; i < discRetakeAttempts; i++ {
		timestamps = append(timestamps, randFloat()*duration)
	}
	return timestamps
}

func exhausted(failed Result, message string) Result {
	failed.Err = services.Wrap(services.ErrExhausted, "capture", "retake", message, nil)
	return failed
}
