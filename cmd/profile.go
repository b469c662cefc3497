package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/worker-finder/internal/session"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"stats"},
	Short:   "Show your account and booking statistics",
	Run: func(cmd *cobra.Command, _ []string) {
		sess := requireSession()

		edits := session.Profile{
			Name:     flagString(cmd, "name"),
			Phone:    flagString(cmd, "phone"),
			Location: flagString(cmd, "location"),
		}
		if edits != (session.Profile{}) {
			if _, err := rt.sessions.UpdateProfile(rt.ctx, sess.User.ID, edits); err != nil {
				fail("saving profile", err)
			}
			sess.Apply(edits)
			rt.bus.Success("Profile updated")
		}

		bookings, err := rt.client.GetBookings(rt.ctx)
		if err != nil {
			fail("getting bookings", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Name:\t%s\n", sess.DisplayName())
		fmt.Fprintf(w, "Email:\t%s\n", sess.User.Email)
		fmt.Fprintf(w, "Role:\t%s\n", sess.User.Role)
		if phone := sess.DisplayPhone(); phone != "" {
			fmt.Fprintf(w, "Phone:\t%s\n", phone)
		}
		if sess.Profile.Location != "" {
			fmt.Fprintf(w, "Location:\t%s\n", sess.Profile.Location)
		}
		if exp, ok := sess.ExpiresAt(); ok {
			fmt.Fprintf(w, "Session expires:\t%s\n", exp.Local().Format("2006-01-02 15:04"))
		}

		if sess.IsWorker() {
			// bookings carry the account name, not the local edit
			stats := bookings.WorkerStats(sess.User.Name)
			fmt.Fprintf(w, "Total jobs:\t%d\n", stats.TotalBookings)
			fmt.Fprintf(w, "Completed:\t%d\n", stats.CompletedJobs)
			fmt.Fprintf(w, "Reviews:\t%d\n", stats.Reviews)
			fmt.Fprintf(w, "Earnings:\t₹%.0f\n", stats.Earnings)
		} else {
			favorites, err := rt.favorites.List(rt.ctx, sess.User.ID)
			if err != nil {
				fail("loading favorites", err)
			}
			stats := bookings.CustomerStats(len(favorites))
			fmt.Fprintf(w, "Total bookings:\t%d\n", stats.TotalBookings)
			fmt.Fprintf(w, "Completed:\t%d\n", stats.CompletedJobs)
			fmt.Fprintf(w, "Reviews given:\t%d\n", stats.Reviews)
			fmt.Fprintf(w, "Favorites:\t%d\n", stats.Favorites)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().String("name", "", "update display name")
	profileCmd.Flags().String("phone", "", "update phone")
	profileCmd.Flags().String("location", "", "update preferred location")
}
