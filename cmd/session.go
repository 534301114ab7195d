package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/niri-spacer/internal/session"
	"github.com/bnema/niri-spacer/internal/ui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Diagnose the compositor session",
	Long:  `Inspect the environment this tool depends on: the niri IPC socket, the Wayland display and the desktop identification variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := session.Detect()

		var output strings.Builder
		output.WriteString(ui.FormatAppHeader("SESSION CHECK", ""))
		output.WriteString("\n\n")

		output.WriteString(ui.FormatCheck(info.NiriSocket != "", "NIRI_SOCKET set"))
		output.WriteString("\n")
		output.WriteString(ui.FormatCheck(info.SocketExists, "IPC socket exists"))
		output.WriteString("\n")
		output.WriteString(ui.FormatCheck(info.SocketWritable, "IPC socket writable"))
		output.WriteString("\n")
		output.WriteString(ui.FormatCheck(info.WaylandDisplay != "", "Wayland display present"))
		output.WriteString("\n")
		output.WriteString(ui.FormatCheck(info.IsNiriDesktop(), "desktop identifies as niri"))
		output.WriteString("\n\n")

		output.WriteString(ui.SubtleStyle.Render(info.Summary()))

		if recs := info.Recommendations(); len(recs) > 0 {
			output.WriteString("\n")
			output.WriteString(ui.WarningStyle.Render(ui.IconSteps + " Recommendations:"))
			output.WriteString("\n")
			for _, rec := range recs {
				output.WriteString(ui.FormatListItem(rec, false))
				output.WriteString("\n")
			}
		}

		output.WriteString("\n")
		if info.IsValid() {
			output.WriteString(ui.FormatStatus(true, "session looks ready"))
		} else {
			output.WriteString(ui.FormatStatus(false, "session is not usable yet"))
		}

		fmt.Println(output.String())
		if !info.IsValid() {
			return fmt.Errorf("session check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}
