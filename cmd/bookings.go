package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "List your bookings",
	Run: func(_ *cobra.Command, _ []string) {
		requireSession()

		bookings, err := rt.client.GetBookings(rt.ctx)
		if err != nil {
			fail("getting bookings", err)
		}

		if bookings.Len() == 0 {
			fmt.Println("No bookings yet.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWORKER\tSERVICE\tDATE\tTIME\tAMOUNT\tSTATUS\tREVIEW")
		for _, b := range bookings.Items {
			review := ""
			switch {
			case b.ReviewID != "":
				review = "reviewed"
			case b.Reviewable():
				review = "pending"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t₹%.0f\t%s\t%s\n",
				b.ID, b.WorkerName(), b.Service, b.Date, b.Time, b.TotalAmount, b.Status, review)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(bookingsCmd)

	for _, transition := range []struct {
		use    string
		short  string
		status marketplace.Status
	}{
		{use: "cancel <booking-id>", short: "Cancel a pending booking", status: marketplace.StatusCancelled},
		{use: "confirm <booking-id>", short: "Confirm a pending booking (workers)", status: marketplace.StatusConfirmed},
		{use: "complete <booking-id>", short: "Mark a confirmed booking as completed (workers)", status: marketplace.StatusCompleted},
	} {
		status := transition.status
		bookingsCmd.AddCommand(&cobra.Command{
			Use:   transition.use,
			Short: transition.short,
			Args:  cobra.ExactArgs(1),
			Run: func(_ *cobra.Command, args []string) {
				updateBooking(args[0], status)
			},
		})
	}
}

func updateBooking(id string, status marketplace.Status) {
	requireSession()

	bookings, err := rt.client.GetBookings(rt.ctx)
	if err != nil {
		fail("getting bookings", err)
	}

	booking := bookings.FindByID(id)
	if booking == nil {
		fail("updating booking", fmt.Errorf("booking %s not found", id))
	}

	if !marketplace.CanTransition(booking.Status, status) {
		fail("updating booking", fmt.Errorf("%w: %s -> %s", marketplace.ErrInvalidTransition, booking.Status, status),
			zap.String(logger.FieldBookingID, id))
	}

	updated, err := rt.client.UpdateStatus(rt.ctx, id, status)
	if err != nil {
		fail("updating booking", err, zap.String(logger.FieldBookingID, id))
	}

	rt.logger.Info("booking updated",
		zap.String(logger.FieldBookingID, updated.ID),
		zap.String("status", string(updated.Status)),
	)
	rt.bus.Success(fmt.Sprintf("Booking %s", updated.Status))
}
