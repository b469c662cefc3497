package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show recent notifications",
	Run: func(cmd *cobra.Command, _ []string) {
		if wipe, _ := cmd.Flags().GetBool("clear"); wipe {
			if err := rt.center.Clear(rt.ctx); err != nil {
				fail("clearing notifications", err)
			}
			fmt.Println("Notifications cleared.")
			return
		}

		history := rt.center.History()
		if len(history) == 0 {
			fmt.Println("No notifications.")
			return
		}
		for _, n := range history {
			fmt.Printf("%s  %-7s  %s\n", n.Timestamp.Local().Format(time.RFC3339), n.Type, n.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.Flags().Bool("clear", false, "delete stored notifications")
}
