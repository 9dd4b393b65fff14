package main

import (
	"github.com/spf13/cobra"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "capture <input>",
		Short: "Capture screenshots without uploading them",
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
			result, err := p.Capture(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printRunResult(ctx, cmd, result)
		},
	}

	flags.register(cmd)
	return cmd
}
