package service

import (
	"context"

	"burnt-bistro/internal/model"
)

// MenuService defines operations for menu management.
type MenuService interface {
	// Start subscribes to the store. Items stays in the loading state until
	// the first snapshot arrives.
	Start(ctx context.Context) error

	// Stop unsubscribes from the store and closes all listeners.
	Stop()

	// Items returns the latest menu, newest first, and whether it has loaded.
	Items() ([]model.MenuItem, bool)

	// Listen returns a channel receiving every new menu snapshot, and a func
	// to stop listening. Slow listeners only see the latest snapshot.
	Listen() (<-chan []model.MenuItem, func())

	// Add validates the form and adds the item to the store.
	Add(ctx context.Context, form model.MenuItemForm) (model.MenuItem, error)

	// Remove deletes an item once the deletion has been confirmed.
	Remove(ctx context.Context, id string, confirmed bool) error
}
