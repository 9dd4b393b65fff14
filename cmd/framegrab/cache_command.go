package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"framegrab/internal/artifacts"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain upload caches",
	}

	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func cacheFromFlags(ctx *commandContext, runID string, covers bool) (*artifacts.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(runID)
	if id == "" {
		return nil, fmt.Errorf("--run-id is required")
	}
	workDir := cfg.WorkDirFor(id)
	if covers {
		return artifacts.NewCoverCache(workDir, logger), nil
	}
	return artifacts.NewCache(workDir, logger), nil
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var covers bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print cached upload records for a unit of work",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheFromFlags(ctx, runID, covers)
			if err != nil {
				return err
			}
			records, err := cache.Load()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No cached records at %s\n", cache.Path())
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{rec.RawURL, rec.WebURL, rec.ReleaseURL})
			}
			fmt.Fprintln(out, renderTable([]string{"Raw URL", "Web URL", "Release"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Work directory key holding the cache")
	cmd.Flags().BoolVar(&covers, "covers", false, "Inspect the cover-art cache")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var covers bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached upload records for a unit of work",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := cacheFromFlags(ctx, runID, covers)
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cache.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Work directory key holding the cache")
	cmd.Flags().BoolVar(&covers, "covers", false, "Clear the cover-art cache")
	return cmd
}
