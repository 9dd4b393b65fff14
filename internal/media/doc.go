// Package media models the video sources screenshots are captured from.
//
// A Source is a tagged variant over the three supported layouts: a single
// video file, a Blu-ray playlist (BDMV), and a DVD title set (VIDEO_TS).
// Each variant knows how to resolve the concrete input file and duration the
// capture pipeline should use. Container probing goes through the Prober
// interface so tests can avoid invoking ffprobe.
package media
