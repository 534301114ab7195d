package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/niri-spacer/internal/niri"
	"github.com/bnema/niri-spacer/internal/spacer"
	"github.com/bnema/niri-spacer/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show workspace and spacer statistics",
	Long:  `Show how windows are distributed across workspaces, how many of them are spacers, and whether the layout looks balanced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := setupConfig(); err != nil {
			return err
		}

		client, err := niri.Connect()
		if err != nil {
			return sessionHint(err)
		}
		defer client.Close()

		manager := spacer.NewWorkspaceManager(client)
		stats, err := manager.Stats()
		if err != nil {
			return fmt.Errorf("failed to gather stats: %w", err)
		}
		workspaces, err := manager.Workspaces()
		if err != nil {
			return err
		}

		var output strings.Builder
		output.WriteString(ui.FormatAppHeader("WORKSPACE STATS", stats.Summary()))
		output.WriteString("\n\n")

		sort.Slice(workspaces, func(i, j int) bool {
			return workspaces[i].Idx < workspaces[j].Idx
		})
		for _, ws := range workspaces {
			name := fmt.Sprintf("workspace %d", ws.Idx)
			if ws.Name != nil {
				name = fmt.Sprintf("workspace %d (%s)", ws.Idx, *ws.Name)
			}
			count := stats.WorkspaceWindowCounts[ws.ID]
			label := fmt.Sprintf("%s: %d windows", name, count)
			if count == 0 {
				label = fmt.Sprintf("%s: empty", name)
			}
			output.WriteString(ui.FormatListItem(label, ws.IsFocused))
			output.WriteString("\n")
		}

		output.WriteString("\n")
		if stats.GoodTilingLayout() {
			output.WriteString(ui.FormatStatus(true, "window distribution looks balanced"))
		} else {
			output.WriteString(ui.FormatStatus(false, "window distribution looks uneven"))
		}
		output.WriteString("\n")

		fmt.Println(output.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
