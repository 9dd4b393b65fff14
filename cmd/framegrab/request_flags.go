package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"framegrab/internal/pipeline"
	"framegrab/internal/planner"
)

// requestFlags collects the pipeline request surface shared by the run and
// capture commands.
type requestFlags struct {
	title         string
	category      string
	runID         string
	releaseURL    string
	frames        []int
	overlay       bool
	covers        bool
	approvedHosts []string
	imageURLs     []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Release title used for output naming (defaults to the input name)")
	cmd.Flags().StringVar(&f.category, "category", "movie", "Content category: movie, tv, or generic")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "Work directory key (defaults to a generated identifier)")
	cmd.Flags().StringVar(&f.releaseURL, "release-url", "", "Release URL scoping cover cache entries")
	cmd.Flags().IntSliceVar(&f.frames, "frame", nil, "Capture an exact frame number instead of planned timestamps (repeatable)")
	cmd.Flags().BoolVar(&f.overlay, "overlay", false, "Burn frame diagnostics into each screenshot")
	cmd.Flags().BoolVar(&f.covers, "covers", false, "Use the cover-art cache instead of the screenshot cache")
	cmd.Flags().StringSliceVar(&f.approvedHosts, "approved-host", nil, "Image host identifier the destination accepts (repeatable)")
	cmd.Flags().StringSliceVar(&f.imageURLs, "image-url", nil, "Image URL already recorded for this release (repeatable)")
}

func (f *requestFlags) categoryValue() (planner.Category, error) {
	switch strings.ToLower(strings.TrimSpace(f.category)) {
	case "", "movie":
		return planner.CategoryMovie, nil
	case "tv":
		return planner.CategoryTV, nil
	case "generic":
		return planner.CategoryGeneric, nil
	default:
		return "", fmt.Errorf("unknown category %q (expected movie, tv, or generic)", f.category)
	}
}

func (f *requestFlags) request(ctx *commandContext, cmd *cobra.Command, inputPath string) (pipeline.Request, error) {
	category, err := f.categoryValue()
	if err != nil {
		return pipeline.Request{}, err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return pipeline.Request{}, err
	}
	prober := newProbeClient(cfg)
	source, err := detectSource(cmd.Context(), prober, inputPath, strings.TrimSpace(f.title))
	if err != nil {
		return pipeline.Request{}, err
	}

	approved := f.approvedHosts
	if len(approved) == 0 {
		approved = cfg.Upload.Hosts
	}
	return pipeline.Request{
		RunID:         strings.TrimSpace(f.runID),
		Source:        source,
		Category:      category,
		ApprovedHosts: approved,
		KnownURLs:     f.imageURLs,
		ReleaseURL:    strings.TrimSpace(f.releaseURL),
		Covers:        f.covers,
		ManualFrames:  f.frames,
		Overlay:       f.overlay,
	}, nil
}
