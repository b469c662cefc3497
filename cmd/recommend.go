package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show workers recommended from your booking history",
	Run: func(cmd *cobra.Command, _ []string) {
		loader := recommend.NewLoader(rt.client, rt.client, rt.logger, recommend.WithOnChange(func(r recommend.Result) {
			if r.State == recommend.Loading {
				fmt.Println(recommend.LoadingMessage)
			}
		}))
		defer loader.Close()

		result, err := loader.Load(rt.ctx, rt.session)
		if err != nil {
			fail("loading recommendations", err)
		}

		switch result.State {
		case recommend.Hidden:
			rt.logger.Info("recommendations are only available to signed in customers")
			return
		case recommend.Empty:
			fmt.Println(recommend.EmptyMessage)
			return
		}

		fmt.Println("Recommended for you")
		items := make([]string, 0, len(result.Workers)+1)
		for _, w := range result.Workers {
			fmt.Printf("  %3d%% match  %s (%s, %s, ₹%.0f/day)  %s\n",
				w.MatchScore(), w.Name, w.Profession, w.Location, w.Charges, strings.Join(w.Reasons, " · "))
			items = append(items, fmt.Sprintf("%s %s / %s", w.ID, w.Name, w.Profession))
		}

		if interactive, _ := cmd.Flags().GetBool("menu"); !interactive {
			return
		}

		for {
			selected, err := choose("Choose a worker and press ENTER", append(items, PromptExit))
			if err != nil {
				fail("reading choice", err)
			}
			if selected == PromptExit {
				return
			}

			id := strings.Split(selected, " ")[0]
			for _, w := range result.Workers {
				if w.ID != id {
					continue
				}
				rt.logger.Debug("recommended worker chosen", zap.String("worker_id", id), zap.Int("score", w.MatchScore()))
				if err := workerMenu(w.Worker); err != nil && err != errExit {
					fail("handling action", err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().BoolP("menu", "m", true, "choose a recommended worker interactively")
}
