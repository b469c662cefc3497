package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/filtering"
	"github.com/spigell/worker-finder/internal/marketplace"
)

const (
	PromptReportByProfession  = "Report by profession"
	PromptWorkersToFile       = "Dump workers to file"
	PromptAppendToExcludeFile = "Append all workers to exclude file"
	PromptChooseWorker        = "Choose a worker"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Browse and filter the worker catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		workers := filteredWorkers(cmd)

		if workers.Len() == 0 {
			rt.logger.Info("exiting", zap.String("reason", "no workers left after filters"))
			return
		}

		printWorkers(workers.Items)

		if menu, _ := cmd.Flags().GetBool("menu"); !menu {
			return
		}

		for {
			action, err := choose("What next?", []string{
				PromptChooseWorker, PromptReportByProfession, PromptWorkersToFile, PromptAppendToExcludeFile, PromptExit,
			})
			if err != nil {
				fail("reading action", err)
			}

			if err := handleWorkersAction(action, workers); err != nil {
				if err == errExit {
					return
				}
				fail("handling action", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(workersCmd)

	workersCmd.Flags().StringP("search", "s", "", "search by name or profession")
	workersCmd.Flags().StringP("profession", "p", "", "exact profession: "+strings.Join(marketplace.Professions, ", "))
	workersCmd.Flags().StringP("location", "l", "", "location substring")
	workersCmd.Flags().Bool("favorites", false, "only show favorite workers")
	workersCmd.Flags().StringP("exclude-file", "e", "", "file with workers to hide. Default is unset.")
	workersCmd.Flags().BoolP("menu", "m", false, "open the interactive action menu after listing")

	viper.BindPFlag("exclude-file", workersCmd.Flags().Lookup("exclude-file"))
}

// filteredWorkers fetches the catalog with server side params and applies the local filter steps.
func filteredWorkers(cmd *cobra.Command) *marketplace.Workers {
	params := &marketplace.SearchParams{}
	if rt.config.Search != nil {
		*params = *rt.config.Search
	}

	cfg := &filtering.Config{
		Search:      firstNonEmpty(flagString(cmd, "search"), params.Search),
		Profession:  firstNonEmpty(flagString(cmd, "profession"), params.Profession),
		Location:    firstNonEmpty(flagString(cmd, "location"), params.Location),
		ExcludeFile: viper.GetString("exclude-file"),
	}
	cfg.FavoritesOnly, _ = cmd.Flags().GetBool("favorites")

	// Profession is also sent to the backend; search and location run locally.
	workers, err := rt.client.GetWorkers(rt.ctx, &marketplace.SearchParams{Profession: cfg.Profession})
	if err != nil {
		fail("getting workers", err)
	}
	rt.logger.Info("getting workers", zap.Int("count", workers.Len()))

	steps := filtering.Default()
	filtering.Configure(steps, cfg)

	deps := filtering.Deps{Logger: rt.logger, Favorites: rt.favorites, UserID: rt.session.User.ID}
	filtered, _, err := filtering.Run(rt.ctx, cfg, deps, steps, workers)
	if err != nil {
		fail("filtering failed", err)
	}

	for _, status := range filtering.Describe(steps) {
		rt.logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return filtered
}

func handleWorkersAction(action string, workers *marketplace.Workers) error {
	switch action {
	case PromptExit:
		return errExit
	case PromptChooseWorker:
		items := make([]string, 0, workers.Len()+1)
		for _, w := range workers.Items {
			items = append(items, workerLabel(w))
		}
		selected, err := choose("Choose a worker and press ENTER", append(items, PromptBack))
		if err != nil || selected == PromptBack {
			return err
		}
		worker := workers.FindByID(strings.Split(selected, " ")[0])
		if worker == nil {
			return fmt.Errorf("there is no such worker %s", selected)
		}
		return workerMenu(*worker)
	case PromptReportByProfession:
		pretty, _ := json.MarshalIndent(workers.ReportByProfession(), "", "  ")
		rt.logger.Info(string(pretty), zap.Int("workers count", workers.Len()))
		return nil
	case PromptWorkersToFile:
		filename, err := workers.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		rt.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := viper.GetString("exclude-file")
		if excludeFile == "" {
			rt.logger.Warn("exclude file is not set", zap.String("hint", "use --exclude-file or the 'exclude-file' config key"))
			return nil
		}
		excluded, err := marketplace.GetExcludedWorkersFromFile(excludeFile)
		if err != nil {
			return err
		}
		excluded.Append(workers.ToExcluded())
		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}
		rt.logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		workers.Exclude(marketplace.WorkerIDField, excluded.WorkerIDs())
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printWorkers(workers []marketplace.Worker) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROFESSION\tLOCATION\tCHARGES\tEXPERIENCE")
	for _, worker := range workers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t₹%.0f/day\t%s\n",
			worker.ID, worker.Name, worker.Profession, worker.Location, worker.Charges, worker.Experience)
	}
	w.Flush()
}

func workerLabel(w marketplace.Worker) string {
	return fmt.Sprintf("%s %s / %s / %s / ₹%.0f/day", w.ID, w.Name, w.Profession, w.Location, w.Charges)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
