package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// commandContext is swapped in tests to avoid invoking ffprobe.
var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index              int        `json:"index"`
	CodecName          string     `json:"codec_name"`
	CodecType          string     `json:"codec_type"`
	CodecTag           string     `json:"codec_tag_string"`
	Duration           string     `json:"duration"`
	Width              int        `json:"width"`
	Height             int        `json:"height"`
	PixFmt             string     `json:"pix_fmt"`
	ColorTransfer      string     `json:"color_transfer"`
	ColorPrimaries     string     `json:"color_primaries"`
	ColorSpace         string     `json:"color_space"`
	SampleAspectRatio  string     `json:"sample_aspect_ratio"`
	DisplayAspectRatio string     `json:"display_aspect_ratio"`
	RFrameRate         string     `json:"r_frame_rate"`
	AvgFrameRate       string     `json:"avg_frame_rate"`
	SideDataList       []SideData `json:"side_data_list"`
}

// SideData carries per-stream side data entries such as Dolby Vision
// configuration records and HDR10+ dynamic metadata.
type SideData struct {
	SideDataType string `json:"side_data_type"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Client runs ffprobe inspections with a fixed binary.
type Client struct {
	binary string
}

// NewClient returns a Client using the given ffprobe binary, defaulting to
// "ffprobe" on PATH.
func NewClient(binary string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Client{binary: binary}
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (c *Client) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, c.binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration probes the container duration in seconds. Satisfies the prober
// interface used during input resolution.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	result, err := c.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return 0, fmt.Errorf("ffprobe duration: no usable duration for %q", path)
	}
	return duration, nil
}

// FirstVideoStream returns the first stream with codec type video.
func (r Result) FirstVideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
