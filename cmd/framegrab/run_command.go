package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framegrab/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Capture screenshots and validate their hosting end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(ctx, cmd, args[0])
			if err != nil {
				return err
			}
			p, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			result, err := p.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printRunResult(ctx, cmd, result)
		},
	}

	flags.register(cmd)
	return cmd
}

func printRunResult(ctx *commandContext, cmd *cobra.Command, result pipeline.Result) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	if result.ShortCircuited && len(result.Screenshots) == 0 {
		fmt.Fprintln(out, "Existing hosted images satisfy the cutoff; nothing captured.")
	}
	for _, path := range result.Screenshots {
		fmt.Fprintln(out, path)
	}
	if len(result.Records) > 0 {
		headers := []string{"Raw URL", "Web URL"}
		rows := make([][]string, 0, len(result.Records))
		for _, rec := range result.Records {
			rows = append(rows, []string{rec.RawURL, rec.WebURL})
		}
		fmt.Fprintln(out, renderTable(headers, rows, nil))
	}
	if result.Reuploaded {
		fmt.Fprintln(out, "Images were reuploaded to an approved host.")
	}
	for _, index := range result.FailedIndices {
		fmt.Fprintf(out, "Warning: screenshot %d could not be captured at an acceptable size.\n", index)
	}
	return nil
}
