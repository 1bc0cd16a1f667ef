package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"burnt-bistro/internal/events"
	"burnt-bistro/internal/model"
	"burnt-bistro/internal/store"
	"burnt-bistro/internal/view"

	"github.com/rs/zerolog"
)

// menuService implements MenuService.
type menuService struct {
	store     store.MenuStore
	publisher events.Publisher
	userID    string
	logger    zerolog.Logger

	mu          sync.RWMutex
	items       []model.MenuItem
	loaded      bool
	listeners   map[int]chan []model.MenuItem
	nextID      int
	unsubscribe store.Unsubscribe
	stopped     bool
}

// NewMenuService creates a new menu service for the session user.
func NewMenuService(menuStore store.MenuStore, publisher events.Publisher, userID string, logger zerolog.Logger) MenuService {
	return &menuService{
		store:     menuStore,
		publisher: publisher,
		userID:    userID,
		logger:    logger.With().Str("service", "menu").Str("user_id", userID).Logger(),
		items:     []model.MenuItem{},
		listeners: make(map[int]chan []model.MenuItem),
	}
}

// Start subscribes to the store.
func (s *menuService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return fmt.Errorf("menu service already started")
	}
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("menu service stopped")
	}
	s.mu.Unlock()

	unsubscribe, err := s.store.Subscribe(ctx, s.onUpdate)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to menu store")
		return fmt.Errorf("failed to subscribe to menu: %w", err)
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.logger.Info().Msg("menu service started")
	return nil
}

// Stop unsubscribes and closes every listener channel.
func (s *menuService) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	alreadyStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()

	if alreadyStopped {
		return
	}
	if unsubscribe != nil {
		unsubscribe()
	}

	s.mu.Lock()
	for id, ch := range s.listeners {
		close(ch)
		delete(s.listeners, id)
	}
	s.mu.Unlock()

	s.logger.Info().Msg("menu service stopped")
}

func (s *menuService) onUpdate(items []model.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = model.CloneItems(items)
	model.SortNewestFirst(s.items)
	s.loaded = true

	for _, ch := range s.listeners {
		offer(ch, model.CloneItems(s.items))
	}

	s.logger.Debug().Int("count", len(items)).Msg("menu updated")
}

// offer replaces any undelivered snapshot in ch with items.
func offer(ch chan []model.MenuItem, items []model.MenuItem) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- items:
	default:
	}
}

// Items returns the latest menu snapshot.
func (s *menuService) Items() ([]model.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneItems(s.items), s.loaded
}

// Listen registers a listener. The current menu is delivered first when it
// has already loaded. After Stop the returned channel is already closed.
func (s *menuService) Listen() (<-chan []model.MenuItem, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []model.MenuItem, 1)
	if s.stopped {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = ch

	if s.loaded {
		ch <- model.CloneItems(s.items)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.listeners[id]; ok {
				delete(s.listeners, id)
				close(ch)
			}
		})
	}
}

// Add validates the form before touching the store.
func (s *menuService) Add(ctx context.Context, form model.MenuItemForm) (model.MenuItem, error) {
	newItem, err := view.ParseForm(form)
	if err != nil {
		s.logger.Debug().Err(err).Str("name", form.Name).Msg("menu item rejected")
		return model.MenuItem{}, err
	}

	item, err := s.store.Add(ctx, newItem)
	if err != nil {
		s.logger.Error().Err(err).Str("name", newItem.Name).Msg("failed to add menu item")
		return model.MenuItem{}, fmt.Errorf("failed to add menu item: %w", errors.Join(model.ErrStoreUnavailable, err))
	}

	s.publish(ctx, events.ActionAdded, item.ID, item.Name)

	return item, nil
}

// Remove deletes the item with id. Unknown IDs are a no-op.
func (s *menuService) Remove(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		s.logger.Debug().Str("item_id", id).Msg("delete not confirmed")
		return model.ErrDeleteNotConfirmed
	}

	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("failed to remove menu item")
		return fmt.Errorf("failed to remove menu item: %w", errors.Join(model.ErrStoreUnavailable, err))
	}

	if !removed {
		return nil
	}

	s.publish(ctx, events.ActionRemoved, id, "")

	return nil
}

// publish is best effort: a failed event never fails the mutation.
func (s *menuService) publish(ctx context.Context, action, itemID, name string) {
	change := events.MenuChange{
		Action: action,
		ItemID: itemID,
		Name:   name,
		UserID: s.userID,
		At:     time.Now().UTC(),
	}

	if err := s.publisher.PublishMenuChange(ctx, change); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Str("item_id", itemID).Msg("failed to publish menu change")
	}
}
