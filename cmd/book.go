package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/logger"
	"github.com/spigell/worker-finder/internal/marketplace"
)

type bookingInput struct {
	Service string
	Date    string
	Time    string
	Address string
	Yes     bool
}

var bookCmd = &cobra.Command{
	Use:   "book <worker-id>",
	Short: "Book a worker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		worker, err := rt.client.GetWorker(rt.ctx, args[0])
		if err != nil {
			fail("getting worker", err, zap.String("worker_id", args[0]))
		}

		input := bookingInput{
			Service: flagString(cmd, "service"),
			Date:    flagString(cmd, "date"),
			Time:    flagString(cmd, "time"),
			Address: flagString(cmd, "address"),
		}
		input.Yes, _ = cmd.Flags().GetBool("yes")

		if _, err := bookWorker(worker, input); err != nil && err != errExit {
			fail("booking failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(bookCmd)

	bookCmd.Flags().String("service", "", "what needs to be done")
	bookCmd.Flags().String("date", "", "date, e.g. 2026-11-02")
	bookCmd.Flags().String("time", "", "time, e.g. 10:00")
	bookCmd.Flags().String("address", "", "service address")
	bookCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

// bookWorker validates and sends a booking, prompting for every missing detail.
func bookWorker(worker *marketplace.Worker, input bookingInput) (*marketplace.Booking, error) {
	sess := requireSession()
	if sess.IsWorker() {
		return nil, marketplace.ErrWorkerCannotBook
	}

	var err error
	details := marketplace.BookingDetails{}
	if details.Service, err = ask("Service", input.Service, false); err != nil {
		return nil, err
	}
	if details.Date, err = ask("Date", input.Date, false); err != nil {
		return nil, err
	}
	if details.Time, err = ask("Time", input.Time, false); err != nil {
		return nil, err
	}
	if details.Address, err = ask("Address", input.Address, false); err != nil {
		return nil, err
	}

	req, err := marketplace.NewBookingRequest(sess.User.Role, worker, details)
	if err != nil {
		return nil, err
	}

	if !input.Yes && !confirm(fmt.Sprintf("Book %s on %s at %s for ₹%.0f", worker.Name, req.Date, req.Time, req.TotalAmount)) {
		return nil, errExit
	}

	booking, err := rt.client.CreateBooking(rt.ctx, req)
	if err != nil {
		return nil, err
	}

	rt.logger.Info("booking created", logger.StringFields(
		logger.StringField{Key: logger.FieldBookingID, Value: booking.ID},
		logger.StringField{Key: logger.FieldWorkerID, Value: worker.ID},
	)...)
	rt.bus.Success(fmt.Sprintf("Booking request sent to %s", worker.Name))

	return booking, nil
}
