// Package favorites keeps a per-user list of worker snapshots.
package favorites

import (
	"context"
	"errors"
	"slices"

	"github.com/spigell/worker-finder/internal/marketplace"
	"github.com/spigell/worker-finder/internal/store"
)

var ErrNoUser = errors.New("favorites require a signed in user")

type Favorites struct {
	ns *store.Namespace[[]marketplace.Worker]
}

func New(s store.Store) *Favorites {
	return &Favorites{ns: store.NewNamespace[[]marketplace.Worker](s, "favorites")}
}

func (f *Favorites) List(ctx context.Context, userID string) ([]marketplace.Worker, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	return f.ns.LoadOr(ctx, userID, []marketplace.Worker{})
}

func (f *Favorites) IDs(ctx context.Context, userID string) ([]string, error) {
	items, err := f.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, w := range items {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (f *Favorites) Contains(ctx context.Context, userID, workerID string) (bool, error) {
	ids, err := f.IDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, workerID), nil
}

// Add stores a snapshot of w. It reports false when w is already a favorite.
func (f *Favorites) Add(ctx context.Context, userID string, w marketplace.Worker) (bool, error) {
	if userID == "" {
		return false, ErrNoUser
	}

	added := false
	_, err := f.ns.Update(ctx, userID, func(items []marketplace.Worker) ([]marketplace.Worker, error) {
		if indexOf(items, w.ID) >= 0 {
			return items, nil
		}
		added = true
		return append(items, w), nil
	})
	return added, err
}

// Remove reports false when the worker was not a favorite.
func (f *Favorites) Remove(ctx context.Context, userID, workerID string) (bool, error) {
	if userID == "" {
		return false, ErrNoUser
	}

	removed := false
	_, err := f.ns.Update(ctx, userID, func(items []marketplace.Worker) ([]marketplace.Worker, error) {
		i := indexOf(items, workerID)
		if i < 0 {
			return items, nil
		}
		removed = true
		return slices.Delete(items, i, i+1), nil
	})
	return removed, err
}

// Toggle flips the favorite state of w and returns the new state.
func (f *Favorites) Toggle(ctx context.Context, userID string, w marketplace.Worker) (bool, error) {
	removed, err := f.Remove(ctx, userID, w.ID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	return f.Add(ctx, userID, w)
}

func indexOf(items []marketplace.Worker, id string) int {
	return slices.IndexFunc(items, func(w marketplace.Worker) bool { return w.ID == id })
}
