// Package capture extracts screenshot frames from a resolved media input.
//
// The Runner wraps single-frame ffmpeg invocations (captures, tonemap
// probes, warm-ups, and showinfo frame probes). The Orchestrator plans
// concurrent bounded batches over it, matches results back to their planned
// indices, and drives the size-validation retake loop.
package capture
