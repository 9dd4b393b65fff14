package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"framegrab/internal/media"
	"framegrab/internal/media/ffprobe"
)

// streamProbeLimit bounds how many Blu-ray stream candidates are probed when
// detecting the feature; candidates are considered largest-first.
const streamProbeLimit = 6

var vobNamePattern = regexp.MustCompile(`^VTS_(\d{2})_(\d)\.VOB$`)

// detectSource classifies a path into a capture source. Directories holding
// a BDMV or VIDEO_TS structure become disc sources; everything else is
// treated as a plain video file.
func detectSource(ctx context.Context, prober *ffprobe.Client, path, title string) (media.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect input path: %w", err)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if !info.IsDir() {
		result, err := prober.Inspect(ctx, path)
		if err != nil {
			return nil, err
		}
		return media.SingleFile{Path: path, Title: title, Meta: media.MetadataFromProbe(result)}, nil
	}

	if streamDir, ok := blurayStreamDir(path); ok {
		return bluraySource(ctx, prober, streamDir, title)
	}
	if titleDir, ok := dvdTitleDir(path); ok {
		return dvdSource(ctx, prober, titleDir, title)
	}
	return nil, fmt.Errorf("directory %s holds neither a BDMV nor a VIDEO_TS structure", path)
}

func blurayStreamDir(path string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(path, "BDMV", "STREAM"),
		filepath.Join(path, "STREAM"),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// bluraySource probes the largest stream files for their durations so the
// playlist resolution can pick the feature.
func bluraySource(ctx context.Context, prober *ffprobe.Client, streamDir, title string) (media.Source, error) {
	matches, err := filepath.Glob(filepath.Join(streamDir, "*.m2ts"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no stream files under %s", streamDir)
	}
	sort.Slice(matches, func(a, b int) bool {
		return fileSizeOf(matches[a]) > fileSizeOf(matches[b])
	})

	limit := len(matches)
	if limit > streamProbeLimit {
		limit = streamProbeLimit
	}
	files := make([]media.StreamFile, 0, limit)
	for _, path := range matches[:limit] {
		duration, err := prober.Duration(ctx, path)
		if err != nil {
			duration = 0
		}
		files = append(files, media.StreamFile{Path: path, DurationSec: duration})
	}

	result, err := prober.Inspect(ctx, matches[0])
	if err != nil {
		return nil, err
	}
	return media.BlurayPlaylist{
		Label: title,
		Files: files,
		Meta:  media.MetadataFromProbe(result),
	}, nil
}

func dvdTitleDir(path string) (string, bool) {
	if strings.EqualFold(filepath.Base(path), "VIDEO_TS") {
		return path, true
	}
	candidate := filepath.Join(path, "VIDEO_TS")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate, true
	}
	return "", false
}

// dvdSource picks the title set with the most content. Menu VOBs (segment 0)
// are excluded.
func dvdSource(ctx context.Context, prober *ffprobe.Client, titleDir, title string) (media.Source, error) {
	entries, err := os.ReadDir(titleDir)
	if err != nil {
		return nil, fmt.Errorf("read VIDEO_TS: %w", err)
	}

	sets := map[string][]string{}
	for _, entry := range entries {
		match := vobNamePattern.FindStringSubmatch(strings.ToUpper(entry.Name()))
		if match == nil || match[2] == "0" {
			continue
		}
		sets[match[1]] = append(sets[match[1]], filepath.Join(titleDir, entry.Name()))
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no title VOB files under %s", titleDir)
	}

	bestSet := ""
	var bestSize int64
	for set, vobs := range sets {
		var total int64
		for _, vob := range vobs {
			total += fileSizeOf(vob)
		}
		if total > bestSize || (total == bestSize && (bestSet == "" || set < bestSet)) {
			bestSet = set
			bestSize = total
		}
	}
	vobs := sets[bestSet]
	sort.Strings(vobs)

	result, err := prober.Inspect(ctx, vobs[0])
	if err != nil {
		return nil, err
	}
	return media.DVDTitleSet{
		Label: title,
		VOBs:  vobs,
		Meta:  media.MetadataFromProbe(result),
	}, nil
}

func fileSizeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
