package recommend

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/worker-finder/internal/marketplace"
)

const (
	LoadingMessage = "Analyzing your preferences..."
	EmptyMessage   = "Make your first booking to get personalized worker recommendations!"
)

// ErrStale is returned when a load finished after a newer load started or the loader was closed.
var ErrStale = errors.New("recommendations are stale")

// State is what the recommendations view should show.
type State int

const (
	// Hidden: anonymous session or worker account, nothing is shown or fetched.
	Hidden State = iota
	// Loading: fetches are in flight, show the placeholder.
	Loading
	// Empty: fetches finished but there is nothing to recommend.
	Empty
	// Ready: Workers holds the ranked recommendations.
	Ready
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

type Result struct {
	State   State
	Workers []ScoredWorker
}

// Viewer is the session asking for recommendations.
type Viewer interface {
	CanSeeRecommendations() bool
}

type BookingSource interface {
	GetBookings(ctx context.Context) (*marketplace.Bookings, error)
}

type CatalogSource interface {
	GetWorkers(ctx context.Context, params *marketplace.SearchParams) (*marketplace.Workers, error)
}

// Loader fetches the booking history and the catalog together and scores them.
// Fetch failures degrade to empty inputs; they are logged and never returned.
type Loader struct {
	bookings BookingSource
	catalog  CatalogSource
	logger   *zap.Logger
	onChange func(Result)

	mu         sync.Mutex
	generation uint64
	closed     bool
	current    Result
}

type LoaderOption func(*Loader)

// WithOnChange registers a callback invoked on every state change, including Loading.
func WithOnChange(fn func(Result)) LoaderOption {
	return func(l *Loader) {
		l.onChange = fn
	}
}

func NewLoader(bookings BookingSource, catalog CatalogSource, logger *zap.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Loader{
		bookings: bookings,
		catalog:  catalog,
		logger:   logger,
		current:  Result{State: Hidden},
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load computes recommendations for viewer. Only the newest load may publish its result;
// an older one gets ErrStale and its data is dropped.
func (l *Loader) Load(ctx context.Context, viewer Viewer) (Result, error) {
	if viewer == nil || !viewer.CanSeeRecommendations() {
		gen, ok := l.begin()
		if !ok {
			return Result{}, ErrStale
		}
		return l.publish(gen, Result{State: Hidden})
	}

	gen, ok := l.begin()
	if !ok {
		return Result{}, ErrStale
	}
	if _, err := l.publish(gen, Result{State: Loading}); err != nil {
		return Result{}, err
	}

	var (
		bookings []marketplace.Booking
		workers  []marketplace.Worker
	)

	// Both fetches always run to completion; a failure in one must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		resp, err := l.bookings.GetBookings(ctx)
		if err != nil {
			l.logger.Warn("failed to fetch booking history, treating as empty", zap.Error(err))
			return nil
		}
		bookings = resp.Items
		return nil
	})
	g.Go(func() error {
		resp, err := l.catalog.GetWorkers(ctx, nil)
		if err != nil {
			l.logger.Warn("failed to fetch worker catalog, treating as empty", zap.Error(err))
			return nil
		}
		workers = resp.Items
		return nil
	})
	_ = g.Wait()

	scored := Recommend(bookings, workers)
	l.logger.Debug("scored recommendations",
		zap.Int("bookings", len(bookings)),
		zap.Int("workers", len(workers)),
		zap.Int("recommended", len(scored)),
	)

	result := Result{State: Ready, Workers: scored}
	if len(scored) == 0 {
		result = Result{State: Empty, Workers: scored}
	}

	return l.publish(gen, result)
}

// Current returns the last published result.
func (l *Loader) Current() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Close tears the view down; in-flight loads are discarded.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.generation++
}

func (l *Loader) begin() (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, false
	}
	l.generation++
	return l.generation, true
}

func (l *Loader) publish(gen uint64, result Result) (Result, error) {
	l.mu.Lock()
	if l.closed || gen != l.generation {
		l.mu.Unlock()
		l.logger.Debug("discarding stale recommendations", zap.Stringer("state", result.State))
		return Result{}, ErrStale
	}
	l.current = result
	onChange := l.onChange
	l.mu.Unlock()

	if onChange != nil {
		onChange(result)
	}

	return result, nil
}
