package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
)

const (
	PromptBook           = "Book this worker"
	PromptChat           = "Chat with this worker"
	PromptToggleFavorite = "Add to / remove from favorites"
	PromptReviews        = "Show reviews"
)

var workerCmd = &cobra.Command{
	Use:   "worker <id>",
	Short: "Show worker details, reviews and average rating",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		worker, err := rt.client.GetWorker(rt.ctx, args[0])
		if err != nil {
			fail("getting worker", err, zap.String("worker_id", args[0]))
		}

		printWorker(*worker)
		printReviews(worker.ID)

		if menu, _ := cmd.Flags().GetBool("menu"); menu {
			if err := workerMenu(*worker); err != nil && err != errExit {
				fail("handling action", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolP("menu", "m", false, "open the interactive action menu")
}

func workerMenu(worker marketplace.Worker) error {
	for {
		action, err := choose(worker.Name, []string{PromptBook, PromptChat, PromptToggleFavorite, PromptReviews, PromptBack})
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptBook:
			if _, err := bookWorker(&worker, bookingInput{}); err != nil {
				return err
			}
		case PromptChat:
			if err := runChat(worker); err != nil {
				return err
			}
		case PromptToggleFavorite:
			toggleFavorite(worker)
		case PromptReviews:
			printReviews(worker.ID)
		}
	}
}

func printWorker(worker marketplace.Worker) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", worker.Name)
	fmt.Fprintf(w, "Profession:\t%s\n", worker.Profession)
	fmt.Fprintf(w, "Location:\t%s\n", worker.Location)
	fmt.Fprintf(w, "Charges:\t₹%.0f/day\n", worker.Charges)
	if worker.Experience != "" {
		fmt.Fprintf(w, "Experience:\t%s\n", worker.Experience)
	}
	if worker.Contact != "" {
		fmt.Fprintf(w, "Contact:\t%s\n", worker.Contact)
	}
	if worker.Description != "" {
		fmt.Fprintf(w, "About:\t%s\n", worker.Description)
	}
	w.Flush()
}

func printReviews(workerID string) {
	reviews, err := rt.client.GetWorkerReviews(rt.ctx, workerID)
	if err != nil {
		rt.logger.Warn("getting reviews", zap.Error(err), zap.String("worker_id", workerID))
		return
	}

	if reviews.Len() == 0 {
		fmt.Println("No reviews yet.")
		return
	}

	fmt.Printf("Rating: %.1f/5 (%d reviews)\n", reviews.AverageRating(), reviews.Len())
	for _, r := range reviews.Items {
		fmt.Printf("  %s %s %s\n", strings.Repeat("★", int(r.Rating)), r.Author(), r.Comment)
	}
}
