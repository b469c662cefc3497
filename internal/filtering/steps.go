package filtering

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/worker-finder/internal/marketplace"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type searchFilter struct {
	toggle
	query string
}

// NewSearch keeps workers whose name or profession contains the search text.
func NewSearch() Filter {
	return &searchFilter{}
}

func (f *searchFilter) Name() string { return "search" }

func (f *searchFilter) Validate(cfg *Config) error {
	f.query = ""
	if cfg != nil {
		f.query = strings.ToLower(strings.TrimSpace(cfg.Search))
	}
	return nil
}

func (f *searchFilter) Apply(_ context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error) {
	initial := w.Len()
	if f.query == "" {
		return w, Step{Initial: initial, Left: initial}, nil
	}

	dropped := w.Keep(func(worker marketplace.Worker) bool {
		return strings.Contains(strings.ToLower(worker.Name), f.query) ||
			strings.Contains(strings.ToLower(worker.Profession), f.query)
	})
	logDropped(deps.Logger, "excluding workers not matching search", dropped, w.Len(), zap.String("query", f.query))

	return w, Step{Initial: initial, Dropped: len(dropped), Left: w.Len()}, nil
}

func (f *searchFilter) Status() Status {
	details := map[string]string{}
	if f.query != "" {
		details["query"] = f.query
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type professionFilter struct {
	toggle
	profession string
}

// NewProfession keeps workers of exactly one profession.
func NewProfession() Filter {
	return &professionFilter{}
}

func (f *professionFilter) Name() string { return "profession" }

func (f *professionFilter) Validate(cfg *Config) error {
	f.profession = ""
	if cfg == nil {
		return nil
	}
	profession := strings.TrimSpace(cfg.Profession)
	if profession != "" && !slices.Contains(marketplace.Professions, profession) {
		return fmt.Errorf("unknown profession %q, expected one of: %s", profession, strings.Join(marketplace.Professions, ", "))
	}
	f.profession = profession
	return nil
}

func (f *professionFilter) Apply(_ context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error) {
	initial := w.Len()
	if f.profession == "" {
		return w, Step{Initial: initial, Left: initial}, nil
	}

	dropped := w.Keep(func(worker marketplace.Worker) bool {
		return worker.GetStringField(marketplace.WorkerProfessionField) == f.profession
	})
	logDropped(deps.Logger, "excluding workers of other professions", dropped, w.Len(), zap.String("profession", f.profession))

	return w, Step{Initial: initial, Dropped: len(dropped), Left: w.Len()}, nil
}

func (f *professionFilter) Status() Status {
	details := map[string]string{}
	if f.profession != "" {
		details["profession"] = f.profession
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type locationFilter struct {
	toggle
	location string
}

// NewLocation keeps workers whose location contains the given text.
func NewLocation() Filter {
	return &locationFilter{}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Validate(cfg *Config) error {
	f.location = ""
	if cfg != nil {
		f.location = strings.ToLower(strings.TrimSpace(cfg.Location))
	}
	return nil
}

func (f *locationFilter) Apply(_ context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error) {
	initial := w.Len()
	if f.location == "" {
		return w, Step{Initial: initial, Left: initial}, nil
	}

	dropped := w.Keep(func(worker marketplace.Worker) bool {
		return strings.Contains(strings.ToLower(worker.Location), f.location)
	})
	logDropped(deps.Logger, "excluding workers outside location", dropped, w.Len(), zap.String("location", f.location))

	return w, Step{Initial: initial, Dropped: len(dropped), Left: w.Len()}, nil
}

func (f *locationFilter) Status() Status {
	details := map[string]string{}
	if f.location != "" {
		details["location"] = f.location
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile removes workers listed in the hidden workers file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error) {
	initial := w.Len()
	if f.path == "" {
		return w, Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := marketplace.GetExcludedWorkersFromFile(f.path)
	if err != nil {
		return w, Step{}, fmt.Errorf("getting excluded workers from file: %w", err)
	}

	removed := w.Exclude(marketplace.WorkerIDField, excluded.WorkerIDs())
	logDropped(deps.Logger, "excluding workers based on exclude file", removed, w.Len(), zap.String("path", f.path))

	return w, Step{Initial: initial, Dropped: len(removed), Left: w.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type favoritesOnlyFilter struct {
	toggle
}

// NewFavoritesOnly keeps only the user's favorite workers. It starts disabled.
func NewFavoritesOnly() Filter {
	return &favoritesOnlyFilter{toggle: toggle{disabled: true, reason: "not requested"}}
}

func (f *favoritesOnlyFilter) Name() string { return "favorites_only" }

func (f *favoritesOnlyFilter) Validate(*Config) error { return nil }

// Enable turns the filter on.
func (f *favoritesOnlyFilter) Enable() {
	f.disabled = false
	f.reason = ""
}

func (f *favoritesOnlyFilter) Apply(ctx context.Context, deps Deps, w *marketplace.Workers) (*marketplace.Workers, Step, error) {
	initial := w.Len()
	if deps.Favorites == nil {
		return w, Step{}, fmt.Errorf("favorites store is required")
	}
	if deps.UserID == "" {
		return w, Step{}, fmt.Errorf("favorites require a signed in user")
	}

	ids, err := deps.Favorites.IDs(ctx, deps.UserID)
	if err != nil {
		return w, Step{}, fmt.Errorf("loading favorites: %w", err)
	}

	dropped := w.Keep(func(worker marketplace.Worker) bool {
		return slices.Contains(ids, worker.ID)
	})
	logDropped(deps.Logger, "excluding workers that are not favorites", dropped, w.Len())

	return w, Step{Initial: initial, Dropped: len(dropped), Left: w.Len()}, nil
}

func (f *favoritesOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

// Configure enables or disables optional steps according to cfg.
func Configure(steps []Filter, cfg *Config) {
	for _, step := range steps {
		if fav, ok := step.(*favoritesOnlyFilter); ok && cfg != nil && cfg.FavoritesOnly {
			fav.Enable()
		}
	}
}

func logDropped(logger *zap.Logger, msg string, dropped []string, left int, fields ...zap.Field) {
	if logger == nil || len(dropped) == 0 {
		return
	}
	fields = append(fields,
		zap.Strings("excluded_workers", dropped),
		zap.Int("workers_left", left),
	)
	logger.Info(msg, fields...)
}
