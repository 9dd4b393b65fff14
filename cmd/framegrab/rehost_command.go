package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"framegrab/internal/pipeline"
)

func newRehostCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var releaseURL string
	var covers bool
	var approvedHosts []string
	var imageURLs []string

	cmd := &cobra.Command{
		Use:   "rehost [screenshot...]",
		Short: "Validate image hosting and reupload to an approved host if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}

			id := strings.TrimSpace(runID)
			if id == "" {
				id = uuid.NewString()
			}
			approved := approvedHosts
			if len(approved) == 0 {
				approved = cfg.Upload.Hosts
			}
			req := pipeline.Request{
				RunID:         id,
				ApprovedHosts: approved,
				KnownURLs:     imageURLs,
				ReleaseURL:    strings.TrimSpace(releaseURL),
				Covers:        covers,
			}
			seed := pipeline.Result{
				RunID:       id,
				WorkDir:     cfg.WorkDirFor(id),
				Screenshots: args,
			}
			result, err := p.Rehost(cmd.Context(), req, seed)
			if err != nil {
				return err
			}
			return printRunResult(ctx, cmd, result)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Work directory key holding the upload cache")
	cmd.Flags().StringVar(&releaseURL, "release-url", "", "Release URL scoping cover cache entries")
	cmd.Flags().BoolVar(&covers, "covers", false, "Use the cover-art cache instead of the screenshot cache")
	cmd.Flags().StringSliceVar(&approvedHosts, "approved-host", nil, "Image host identifier the destination accepts (repeatable)")
	cmd.Flags().StringSliceVar(&imageURLs, "image-url", nil, "Image URL already recorded for this release (repeatable)")
	return cmd
}
