package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framegrab/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools framegrab needs are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Required(cfg.Paths.FFmpegBinDir))

			if ctx.jsonOutput() {
				return writeJSON(cmd, statuses)
			}

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					missing++
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				rows = append(rows, []string{status.Name, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Status", "Detail"}, rows, nil))
			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}
}
