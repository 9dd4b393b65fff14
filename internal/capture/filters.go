package capture

import (
	"fmt"
	"math"
	"strings"

	"framegrab/internal/media"
)

// OverlayText is the diagnostic overlay burned into a screenshot.
type OverlayText struct {
	FrameNumber int
	PictType    string
	Tonemapped  bool
	TextSize    int
}

// BuildFilterChain assembles the -vf chain for one capture: optional pixel
// aspect correction, optional tonemap stage, optional diagnostic overlay,
// in that order. Returns "" when no stage applies.
func BuildFilterChain(meta media.Metadata, tonemapStage string, overlay *OverlayText) string {
	stages := make([]string, 0, 3)
	if scale := aspectScale(meta); scale != "" {
		stages = append(stages, scale)
	}
	if tonemapStage != "" {
		stages = append(stages, tonemapStage)
	}
	if overlay != nil {
		stages = append(stages, overlay.drawtext(meta))
	}
	return strings.Join(stages, ",")
}

// aspectScale corrects non-square pixels to a square-pixel output, with
// both dimensions rounded to even values. Anamorphic DVDs (PAR < 1) scale
// the height up from the display aspect ratio; wide pixels scale the width.
func aspectScale(meta media.Metadata) string {
	par := meta.PixelAspectRatio
	dar := meta.DisplayAspectRatio
	if par <= 0 || par == 1 || dar <= 0 || meta.Width <= 0 || meta.Height <= 0 {
		return ""
	}
	width := meta.Width
	height := meta.Height
	if par < 1 {
		height = evenRound(float64(meta.Width) / dar)
	} else {
		width = evenRound(float64(meta.Height) * dar)
	}
	if width == meta.Width && height == meta.Height {
		return ""
	}
	return fmt.Sprintf("scale=%d:%d,setsar=1", width, height)
}

func evenRound(value float64) int {
	rounded := int(math.Round(value))
	if rounded%2 != 0 {
		rounded++
	}
	return rounded
}

func (o *OverlayText) drawtext(meta media.Metadata) string {
	text := fmt.Sprintf("Frame %d", o.FrameNumber)
	if o.PictType != "" {
		text += fmt.Sprintf(" (%s)", o.PictType)
	}
	if o.Tonemapped {
		text += " Tonemapped HDR"
	}

	size := o.TextSize
	if size <= 0 {
		size = 18
	}
	if meta.Height > 0 {
		scaled := float64(size) * float64(meta.Height) / 1080.0
		if scaled > float64(size) {
			size = int(math.Round(scaled))
		}
	}
	return fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:x=10:y=10:box=1:boxcolor=black@0.5",
		text, size)
}
