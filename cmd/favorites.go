package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorite workers",
	Run: func(_ *cobra.Command, _ []string) {
		sess := requireSession()

		items, err := rt.favorites.List(rt.ctx, sess.User.ID)
		if err != nil {
			fail("loading favorites", err)
		}
		if len(items) == 0 {
			fmt.Println("No favorites yet.")
			return
		}
		printWorkers(items)
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <worker-id>",
	Short: "Add a worker to favorites",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		sess := requireSession()

		worker, err := rt.client.GetWorker(rt.ctx, args[0])
		if err != nil {
			fail("getting worker", err, zap.String("worker_id", args[0]))
		}

		added, err := rt.favorites.Add(rt.ctx, sess.User.ID, *worker)
		if err != nil {
			fail("saving favorite", err)
		}
		if added {
			rt.bus.Success(worker.Name + " added to favorites")
			return
		}
		rt.bus.Info(worker.Name + " is already a favorite")
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <worker-id>",
	Short: "Remove a worker from favorites",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		sess := requireSession()

		removed, err := rt.favorites.Remove(rt.ctx, sess.User.ID, args[0])
		if err != nil {
			fail("removing favorite", err)
		}
		if !removed {
			rt.bus.Info("Worker was not a favorite")
			return
		}
		rt.bus.Success("Removed from favorites")
	},
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesAddCmd, favoritesRemoveCmd)
}

func toggleFavorite(worker marketplace.Worker) {
	sess := requireSession()

	on, err := rt.favorites.Toggle(rt.ctx, sess.User.ID, worker)
	if err != nil {
		fail("toggling favorite", err)
	}
	if on {
		rt.bus.Success(worker.Name + " added to favorites")
		return
	}
	rt.bus.Info(worker.Name + " removed from favorites")
}
