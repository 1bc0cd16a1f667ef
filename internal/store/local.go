package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"burnt-bistro/internal/blob"
	"burnt-bistro/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalStore keeps the whole menu as one JSON blob under a fixed key.
// Every mutation rewrites the blob. Writers in other processes sharing the
// same blob race with last-writer-wins semantics.
type LocalStore struct {
	blobs  blob.Store
	key    string
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex // serialises read-modify-write cycles

	subMu   sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

// LocalOption customises a LocalStore.
type LocalOption func(*LocalStore)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) { s.now = now }
}

// WithIDGenerator overrides the item ID generator.
func WithIDGenerator(newID func() string) LocalOption {
	return func(s *LocalStore) { s.newID = newID }
}

// NewLocalStore creates a local store persisting under key in blobs.
func NewLocalStore(blobs blob.Store, key string, logger zerolog.Logger, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		blobs:  blobs,
		key:    key,
		logger: logger.With().Str("store", "local").Str("key", key).Logger(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		subs:   make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted menu in stored order.
// A missing blob yields an empty menu. A corrupt blob is reset to an empty
// menu and reported as a warning rather than an error.
func (s *LocalStore) Load(ctx context.Context) ([]model.MenuItem, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return []model.MenuItem{}, nil
		}
		s.logger.Error().Err(err).Msg("failed to read menu blob")
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}

	var items []model.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("menu blob is corrupt, resetting to empty menu")
		if putErr := s.blobs.Put(ctx, s.key, []byte("[]")); putErr != nil {
			s.logger.Error().Err(putErr).Msg("failed to reset corrupt menu blob")
		}
		return []model.MenuItem{}, nil
	}

	if items == nil {
		items = []model.MenuItem{}
	}

	return items, nil
}

// Save overwrites the blob with items and notifies subscribers with the
// written list.
func (s *LocalStore) Save(ctx context.Context, items []model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx, items)
}

func (s *LocalStore) save(ctx context.Context, items []model.MenuItem) error {
	if items == nil {
		items = []model.MenuItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}

	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		s.logger.Error().Err(err).Int("count", len(items)).Msg("failed to write menu blob")
		return fmt.Errorf("failed to save menu: %w", err)
	}

	s.logger.Debug().Int("count", len(items)).Msg("menu saved")

	s.notify(items)
	return nil
}

// Add prepends a new item with a fresh ID and the current time.
func (s *LocalStore) Add(ctx context.Context, in model.NewMenuItem) (model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return model.MenuItem{}, err
	}

	item := model.MenuItem{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   s.now().UTC(),
	}

	updated := make([]model.MenuItem, 0, len(current)+1)
	updated = append(updated, item)
	updated = append(updated, current...)

	if err := s.save(ctx, updated); err != nil {
		return model.MenuItem{}, err
	}

	s.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("menu item added")

	return item, nil
}

// Remove drops the item with the given ID. If no item matches, nothing is
// written and subscribers are not notified.
func (s *LocalStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return false, err
	}

	updated := make([]model.MenuItem, 0, len(current))
	for _, item := range current {
		if item.ID != id {
			updated = append(updated, item)
		}
	}

	if len(updated) == len(current) {
		s.logger.Debug().Str("item_id", id).Msg("menu item not found, nothing to remove")
		return false, nil
	}

	if err := s.save(ctx, updated); err != nil {
		return false, err
	}

	s.logger.Info().Str("item_id", id).Msg("menu item removed")

	return true, nil
}

// Subscribe registers onUpdate and delivers the current menu immediately.
func (s *LocalStore) Subscribe(ctx context.Context, onUpdate UpdateFunc) (Unsubscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(onUpdate)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.subMu.Unlock()

	sub.deliver(current)

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		sub.cancel()
	}, nil
}

// Close cancels all subscriptions.
func (s *LocalStore) Close() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, sub := range s.subs {
		sub.cancel()
		delete(s.subs, id)
	}
	return nil
}

func (s *LocalStore) notify(items []model.MenuItem) {
	s.subMu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.deliver(items)
	}
}
