package store

import (
	"context"
	"sync"

	"burnt-bistro/internal/model"
)

// UpdateFunc receives the full current menu, newest first.
type UpdateFunc func(items []model.MenuItem)

// Unsubscribe stops delivery to an UpdateFunc. Once it returns, the
// UpdateFunc is not called again. It must not be called from inside the
// UpdateFunc itself.
type Unsubscribe func()

// MenuStore is the persistence capability shared by the local and remote
// backends.
type MenuStore interface {
	// Subscribe delivers the current menu once and again after every change.
	Subscribe(ctx context.Context, onUpdate UpdateFunc) (Unsubscribe, error)

	// Add persists a new item and returns it with its identity assigned.
	// Subscribers see it with their next update.
	Add(ctx context.Context, item model.NewMenuItem) (model.MenuItem, error)

	// Remove deletes the item with the given ID and reports whether it
	// existed. Unknown IDs are a no-op.
	Remove(ctx context.Context, id string) (bool, error)

	// Close stops all subscriptions.
	Close() error
}

// subscription gates deliveries so none happen after it is cancelled.
type subscription struct {
	mu       sync.Mutex
	onUpdate UpdateFunc
	active   bool
}

func newSubscription(onUpdate UpdateFunc) *subscription {
	return &subscription{onUpdate: onUpdate, active: true}
}

func (s *subscription) deliver(items []model.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	view := model.CloneItems(items)
	model.SortNewestFirst(view)
	s.onUpdate(view)
}

func (s *subscription) cancel() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}
