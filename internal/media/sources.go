package media

import (
	"context"
	"errors"
	"strings"

	"framegrab/internal/fileutil"
)

// SingleFile is a plain video file release.
type SingleFile struct {
	Path  string
	Title string
	Meta  Metadata
}

func (s SingleFile) Kind() Kind { return KindSingleFile }

func (s SingleFile) BaseName() string {
	return fileutil.SanitizeName(s.Title)
}

func (s SingleFile) ResolveInput(ctx context.Context, prober Prober) (Input, error) {
	meta := s.Meta
	if meta.DurationSec <= 0 && prober != nil {
		duration, err := prober.Duration(ctx, s.Path)
		if err != nil {
			return Input{}, err
		}
		meta.DurationSec = duration
	}
	return Input{Path: s.Path, Meta: meta}, nil
}

func (s SingleFile) SkipNonKeyframes() bool { return false }

// StreamFile is one stream file referenced by a Blu-ray playlist, with the
// length reported by the playlist structure.
type StreamFile struct {
	Path        string
	DurationSec float64
}

// BlurayPlaylist is one playlist of a BDMV structure. The longest stream
// file carries the feature and is the capture input.
type BlurayPlaylist struct {
	Label string
	Files []StreamFile
	Meta  Metadata
}

func (b BlurayPlaylist) Kind() Kind { return KindBluray }

func (b BlurayPlaylist) BaseName() string {
	return fileutil.SanitizeName(b.Label)
}

func (b BlurayPlaylist) ResolveInput(ctx context.Context, prober Prober) (Input, error) {
	if len(b.Files) == 0 {
		return Input{}, errors.New("bluray playlist has no stream files")
	}
	longest := b.Files[0]
	for _, file := range b.Files[1:] {
		if file.DurationSec > longest.DurationSec {
			longest = file
		}
	}
	meta := b.Meta
	if longest.DurationSec > 0 {
		meta.DurationSec = longest.DurationSec
	}
	if meta.DurationSec <= 0 && prober != nil {
		duration, err := prober.Duration(ctx, longest.Path)
		if err != nil {
			return Input{}, err
		}
		meta.DurationSec = duration
	}
	return Input{Path: longest.Path, Meta: meta}, nil
}

// SkipNonKeyframes is set for VC-1 and Dolby Vision streams, where decoding
// arbitrary frames from a seek point is unreliable.
func (b BlurayPlaylist) SkipNonKeyframes() bool {
	if b.Meta.HDR == HDRDolbyVision {
		return true
	}
	codec := strings.ToLower(strings.TrimSpace(b.Meta.Codec))
	return codec == "vc1" || codec == "vc-1"
}

// dvdProbeLimit bounds how many VOB candidates are probed per title set.
const dvdProbeLimit = 6

// dvdFallbackDuration is assumed when no VOB candidate probes cleanly.
const dvdFallbackDuration = 300.0

// DVDTitleSet is one VIDEO_TS title set. The title may span several VOB
// files; candidates are probed in order and the longest valid track wins.
type DVDTitleSet struct {
	Label string
	VOBs  []string
	Meta  Metadata
}

func (d DVDTitleSet) Kind() Kind { return KindDVD }

func (d DVDTitleSet) BaseName() string {
	return fileutil.SanitizeName(d.Label)
}

func (d DVDTitleSet) ResolveInput(ctx context.Context, prober Prober) (Input, error) {
	if len(d.VOBs) == 0 {
		return Input{}, errors.New("dvd title set has no VOB files")
	}
	limit := len(d.VOBs)
	if limit > dvdProbeLimit {
		limit = dvdProbeLimit
	}

	bestPath := ""
	bestDuration := 0.0
	for _, vob := range d.VOBs[:limit] {
		if prober == nil {
			break
		}
		duration, err := prober.Duration(ctx, vob)
		if err != nil || duration <= 0 {
			continue
		}
		if duration > bestDuration {
			bestDuration = duration
			bestPath = vob
		}
	}
	if bestPath == "" {
		bestPath = d.VOBs[0]
		bestDuration = dvdFallbackDuration
	}

	meta := d.Meta
	meta.DurationSec = bestDuration
	return Input{Path: bestPath, Meta: meta}, nil
}

func (d DVDTitleSet) SkipNonKeyframes() bool { return false }
