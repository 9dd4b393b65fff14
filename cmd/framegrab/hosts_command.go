package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framegrab/internal/hosts"
)

func newHostsCommand(ctx *commandContext) *cobra.Command {
	var approvedHosts []string

	cmd := &cobra.Command{
		Use:         "hosts",
		Short:       "List known image hosts and their size policies",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			type hostRow struct {
				Host     string `json:"host"`
				Display  string `json:"display"`
				MinBytes int64  `json:"min_bytes"`
				MaxBytes int64  `json:"max_bytes"`
				Approved *bool  `json:"approved,omitempty"`
			}

			var approval *hosts.ApprovalSet
			if len(approvedHosts) > 0 {
				approval = hosts.NewApprovalSet(approvedHosts, hosts.DefaultHostnameMapping)
			}

			rows := make([]hostRow, 0)
			for _, host := range hosts.Hosts() {
				policy, _ := hosts.PolicyFor(host)
				row := hostRow{
					Host:     host,
					Display:  hostDisplayName(host),
					MinBytes: policy.MinBytes,
					MaxBytes: policy.MaxBytes,
				}
				if approval != nil {
					approved := approval.Approved(host)
					row.Approved = &approved
				}
				rows = append(rows, row)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}

			headers := []string{"Host", "Display", "Min Size", "Max Size"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight}
			if approval != nil {
				headers = append(headers, "Approved")
				aligns = append(aligns, alignLeft)
			}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				max := "none"
				if row.MaxBytes > 0 {
					max = formatBytes(row.MaxBytes)
				}
				cells := []string{row.Host, row.Display, formatBytes(row.MinBytes), max}
				if row.Approved != nil {
					cells = append(cells, yesNo(*row.Approved))
				}
				tableRows = append(tableRows, cells)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, tableRows, aligns))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&approvedHosts, "approved-host", nil, "Check each host against this approval list (repeatable)")
	return cmd
}

// hostDisplayName renders a host identifier as a human-facing label.
// Identifiers with conventional capitalizations keep them; the rest are
// title-cased.
func hostDisplayName(host string) string {
	switch host {
	case "ptpimg":
		return "PTPimg"
	case "imgbb":
		return "ImgBB"
	case "imgbox":
		return "Imgbox"
	case "pixhost":
		return "Pixhost"
	case "seedpool_cdn":
		return "Seedpool CDN"
	case "sharex":
		return "ShareX"
	case "utppm":
		return "UTP.pm"
	case "onlyimage":
		return "OnlyImage"
	case "passtheimage":
		return "PassTheImage"
	case "ptscreens":
		return "PTScreens"
	case "dalexni":
		return "DalexNI"
	default:
		return cases.Title(language.English).String(strings.ReplaceAll(host, "_", " "))
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatBytes(size int64) string {
	const unit = 1000
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "kMGTPE"[exp])
}
