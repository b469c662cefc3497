package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
)

var reviewCmd = &cobra.Command{
	Use:   "review <booking-id>",
	Short: "Rate a completed booking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireSession()

		bookings, err := rt.client.GetBookings(rt.ctx)
		if err != nil {
			fail("getting bookings", err)
		}

		rating, _ := cmd.Flags().GetInt("rating")
		rating, err = askInt("Rating", rating, 1, 5)
		if err != nil {
			fail("reading rating", err)
		}

		booking := bookings.FindByID(args[0])
		req, err := marketplace.NewReviewRequest(booking, rating, flagString(cmd, "comment"))
		if err != nil {
			fail("cannot review booking", err, zap.String(logger.FieldBookingID, args[0]))
		}

		review, err := rt.client.CreateReview(rt.ctx, req)
		if err != nil {
			fail("submitting review", err, zap.String(logger.FieldBookingID, args[0]))
		}

		rt.logger.Info("review submitted", zap.String("review_id", review.ID), zap.String(logger.FieldBookingID, args[0]))
		rt.bus.Success(fmt.Sprintf("Thanks! You rated %s %d/5", booking.WorkerName(), rating))
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().IntP("rating", "r", 0, "rating from 1 to 5")
	reviewCmd.Flags().StringP("comment", "c", "", "optional comment")
}
