package media

import "context"

// HDR classifies the high-dynamic-range format of a video stream.
type HDR string

const (
	HDRNone        HDR = ""
	HDR10          HDR = "HDR10"
	HDR10Plus      HDR = "HDR10+"
	HDRDolbyVision HDR = "DV"
	HDRHLG         HDR = "HLG"
)

// IsHDR reports whether the classification requires tone mapping for SDR output.
func (h HDR) IsHDR() bool {
	return h != HDRNone
}

// Kind identifies the source layout.
type Kind string

const (
	KindSingleFile Kind = "file"
	KindBluray     Kind = "bluray"
	KindDVD        Kind = "dvd"
)

// Metadata describes the video properties the planner and filter builder
// need. It is supplied by the metadata probe once per run and read-only
// thereafter.
type Metadata struct {
	DurationSec        float64
	FrameRate          float64
	Width              int
	Height             int
	PixelAspectRatio   float64
	DisplayAspectRatio float64
	Codec              string
	HDR                HDR
}

// Input is a resolved capture input: the concrete file ffmpeg reads from and
// the metadata governing seek times and scaling.
type Input struct {
	Path string
	Meta Metadata
}

// Prober supplies container durations for input resolution. Implemented by
// the ffprobe wrapper; faked in tests.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Source is the tagged variant over supported media layouts. Implementations
// are immutable for the run.
type Source interface {
	// Kind tags the variant for logging and strategy selection.
	Kind() Kind
	// BaseName is the prefix used for screenshot filenames.
	BaseName() string
	// ResolveInput picks the concrete input file and its metadata.
	ResolveInput(ctx context.Context, prober Prober) (Input, error)
	// SkipNonKeyframes reports whether captures should decode keyframes only.
	SkipNonKeyframes() bool
}
