// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including color and aspect data
//   - Format: container-level metadata (duration, size)
//
// Primary entry point:
//   - Client.Inspect: executes ffprobe and returns a parsed Result
//
// Helper methods on Result provide convenient access to the first video
// stream and duration parsing.
package ffprobe
