package media

import (
	"strconv"
	"strings"

	"framegrab/internal/media/ffprobe"
)

// MetadataFromProbe builds run metadata from an ffprobe inspection of the
// capture input.
func MetadataFromProbe(result ffprobe.Result) Metadata {
	meta := Metadata{DurationSec: result.DurationSeconds()}
	stream, ok := result.FirstVideoStream()
	if !ok {
		return meta
	}
	meta.Width = stream.Width
	meta.Height = stream.Height
	meta.Codec = stream.CodecName
	meta.FrameRate = parseRational(stream.AvgFrameRate)
	if meta.FrameRate <= 0 {
		meta.FrameRate = parseRational(stream.RFrameRate)
	}
	meta.PixelAspectRatio = parseRatio(stream.SampleAspectRatio)
	meta.DisplayAspectRatio = parseRatio(stream.DisplayAspectRatio)
	meta.HDR = ClassifyHDR(stream)
	return meta
}

// ClassifyHDR derives the HDR classification from video stream properties.
func ClassifyHDR(stream ffprobe.Stream) HDR {
	for _, side := range stream.SideDataList {
		sideType := strings.ToLower(side.SideDataType)
		if strings.Contains(sideType, "dovi") || strings.Contains(sideType, "dolby vision") {
			return HDRDolbyVision
		}
	}
	if strings.HasPrefix(strings.ToLower(stream.CodecTag), "dvh") {
		return HDRDolbyVision
	}
	transfer := strings.ToLower(strings.TrimSpace(stream.ColorTransfer))
	switch transfer {
	case "smpte2084":
		for _, side := range stream.SideDataList {
			if strings.Contains(strings.ToLower(side.SideDataType), "2094") {
				return HDR10Plus
			}
		}
		return HDR10
	case "arib-std-b67":
		return HDRHLG
	}
	return HDRNone
}

// parseRational parses ffprobe rate strings like "24000/1001" or "25".
func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// parseRatio parses aspect strings like "16:9" or "853:480".
func parseRatio(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, ok := strings.Cut(value, ":")
	if !ok {
		return parseRational(value)
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
