// Package planner computes which timestamps in a source to sample for
// screenshots.
//
// The sampling window runs from 5% to 90% of the total frame count, skipping
// intros and credits. Retakes nudge the window start forward by 1% per
// attempt so repeated retakes do not resample the same region, and the start
// never passes 40% of the source.
package planner

import "sort"

// Category selects the base sampling fraction.
type Category string

const (
	CategoryMovie   Category = "movie"
	CategoryTV      Category = "tv"
	CategoryGeneric Category = "generic"
)

const (
	baseStartFraction     = 0.05
	tvRetakeStartFraction = 0.10
	retakeStepFraction    = 0.01
	endFraction           = 0.90
	maxStartFraction      = 0.40
)

// Request describes one planning call.
type Request struct {
	DurationSec   float64
	FrameRate     float64
	NumScreens    int
	Category      Category
	IsDisc        bool
	RetakeAttempt int
}

// Plan returns the capture timestamps in seconds, sorted ascending. Disc
// sources receive one extra sample so the worst frame can be dropped later.
// A non-positive screen count yields an empty plan; callers are expected to
// validate tiny durations before planning.
func Plan(req Request) []float64 {
	if req.NumScreens <= 0 || req.FrameRate <= 0 {
		return nil
	}

	totalFrames := req.DurationSec * req.FrameRate

	startFraction := baseStartFraction
	if req.Category == CategoryTV && req.RetakeAttempt > 0 {
		startFraction = tvRetakeStartFraction
	}
	startFraction += retakeStepFraction * float64(req.RetakeAttempt)

	startFrame := totalFrames * startFraction
	if max := totalFrames * maxStartFraction; startFrame > max {
		startFrame = max
	}
	endFrame := totalFrames * endFraction

	samples := req.NumScreens
	if req.IsDisc {
		samples++
	}

	usableFrames := int(endFrame - startFrame)
	if usableFrames <= 0 {
		return nil
	}
	interval := usableFrames / samples
	if interval <= 0 {
		interval = 1
	}

	timestamps := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		frame := startFrame + float64(i*interval)
		if frame > endFrame {
			frame = endFrame
		}
		timestamps = append(timestamps, frame/req.FrameRate)
	}
	sort.Float64s(timestamps)
	return timestamps
}
