package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
)

// Filter represents a single filtering step applied to workers.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error)
}

// FavoriteSource lists the worker ids a user marked as favorite.
type FavoriteSource interface {
	IDs(ctx context.Context, userID string) ([]string, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger    *zap.Logger
	Favorites FavoriteSource
	UserID    string
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains the filter values chosen by the user.
type Config struct {
	Search        string
	Profession    string
	Location      string
	ExcludeFile   string
	FavoritesOnly bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns the steps in the order they run.
func Default() []Filter {
	return []Filter{
		NewSearch(),
		NewProfession(),
		NewLocation(),
		NewExcludeFile(),
		NewFavoritesOnly(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates every enabled step, then applies them in order.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, w *marketplace.Workers) (*marketplace.Workers, []Step, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	results := make([]Step, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, w)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		results = append(results, info)
		w = next
	}

	return w, results, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
