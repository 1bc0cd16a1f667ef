package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"burnt-bistro/internal/database"
	"burnt-bistro/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CollectionPath returns the namespaced collection path for a deployment.
func CollectionPath(appID string) string {
	return appID + "/public/data/menuItems"
}

// RetryPolicy controls reconnects of subscriptions and retries of writes.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// WriteAttempts is the number of retries after a failed write.
	WriteAttempts uint64
}

// DefaultRetryPolicy returns the retry policy used by NewRemoteStore.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		WriteAttempts:   2,
	}
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RemoteStore keeps the menu as rows of a shared PostgreSQL collection and
// pushes every change to subscribers through LISTEN/NOTIFY.
// Writes never update subscribers directly: they see a change with the
// next notification.
type RemoteStore struct {
	pool       *pgxpool.Pool
	collection string
	retry      RetryPolicy
	logger     zerolog.Logger

	mu      sync.Mutex
	cancels map[int]func()
	nextSub int
	closed  bool
}

// NewRemoteStore creates a remote store over the collection for appID.
func NewRemoteStore(pool *pgxpool.Pool, appID string, retry RetryPolicy, logger zerolog.Logger) *RemoteStore {
	collection := CollectionPath(appID)
	return &RemoteStore{
		pool:       pool,
		collection: collection,
		retry:      retry,
		logger:     logger.With().Str("store", "remote").Str("collection", collection).Logger(),
		cancels:    make(map[int]func()),
	}
}

// List returns the current collection, newest first.
func (r *RemoteStore) List(ctx context.Context) ([]model.MenuItem, error) {
	return r.list(ctx, r.pool)
}

func (r *RemoteStore) list(ctx context.Context, q querier) ([]model.MenuItem, error) {
	query := `
		SELECT id::text, name, description, price, created_at
		FROM menu_items
		WHERE collection = $1
		ORDER BY created_at DESC
	`

	rows, err := q.Query(ctx, query, r.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// Add inserts the item; the database assigns its ID and CreatedAt.
func (r *RemoteStore) Add(ctx context.Context, in model.NewMenuItem) (model.MenuItem, error) {
	query := `
		INSERT INTO menu_items (collection, name, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`

	item := model.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	}

	err := r.withRetry(ctx, "add", func() error {
		return r.pool.QueryRow(ctx, query, r.collection, in.Name, in.Description, in.Price).
			Scan(&item.ID, &item.CreatedAt)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("name", in.Name).Msg("failed to add menu item")
		return model.MenuItem{}, fmt.Errorf("failed to add menu item: %w", err)
	}

	r.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("menu item added")

	return item, nil
}

// Remove deletes the item by ID. Unknown or malformed IDs are a no-op.
func (r *RemoteStore) Remove(ctx context.Context, id string) (bool, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		r.logger.Debug().Str("item_id", id).Msg("malformed item ID, nothing to remove")
		return false, nil
	}

	query := `DELETE FROM menu_items WHERE collection = $1 AND id = $2`

	var tag pgconn.CommandTag
	err = r.withRetry(ctx, "remove", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, query, r.collection, itemID)
		return execErr
	})
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", id).Msg("failed to remove menu item")
		return false, fmt.Errorf("failed to remove menu item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("item_id", id).Msg("menu item not found, nothing to remove")
		return false, nil
	}

	r.logger.Info().Str("item_id", id).Msg("menu item removed")

	return true, nil
}

// withRetry runs op with bounded exponential backoff. Statements the server
// rejected are not retried. A retried insert may be applied twice.
func (r *RemoteStore) withRetry(ctx context.Context, action string, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(r.retry.newBackOff(), r.retry.WriteAttempts), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		r.logger.Warn().Err(err).Str("action", action).Dur("retry_in", wait).Msg("menu write failed, retrying")
	})
}

// Subscribe starts a live query. The first snapshot arrives asynchronously;
// after that a fresh snapshot follows every insert or delete in the
// collection, whichever session made it. Connection failures are logged and
// the subscription reconnects with exponential backoff until ctx is done or
// the returned Unsubscribe is called.
func (r *RemoteStore) Subscribe(ctx context.Context, onUpdate UpdateFunc) (Unsubscribe, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("remote store is closed")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(onUpdate)
	done := make(chan struct{})

	id := r.nextSub
	r.nextSub++
	stop := func() {
		cancel()
		sub.cancel()
		<-done
	}
	r.cancels[id] = stop
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.run(subCtx, sub)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.cancels, id)
			r.mu.Unlock()
			stop()
		})
	}, nil
}

func (r *RemoteStore) run(ctx context.Context, sub *subscription) {
	b := r.retry.newBackOff()

	err := backoff.RetryNotify(func() error {
		err := r.listen(ctx, sub, b)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		r.logger.Error().Err(err).Dur("reconnect_in", wait).Msg("menu subscription failed, reconnecting")
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Error().Err(err).Msg("menu subscription stopped")
		return
	}

	r.logger.Debug().Msg("menu subscription closed")
}

// listen holds one connection until it fails or ctx is done.
func (r *RemoteStore) listen(ctx context.Context, sub *subscription, b backoff.BackOff) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		// Drop the LISTEN before the connection goes back to the pool
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(cleanupCtx, "UNLISTEN *"); err != nil {
			conn.Conn().Close(cleanupCtx)
		}
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+database.NotifyChannel); err != nil {
		return fmt.Errorf("failed to listen for menu changes: %w", err)
	}

	items, err := r.list(ctx, conn)
	if err != nil {
		return err
	}
	sub.deliver(items)
	b.Reset()

	r.logger.Debug().Int("count", len(items)).Msg("menu subscription established")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for menu changes: %w", err)
		}

		if notification.Payload != r.collection {
			continue
		}

		items, err := r.list(ctx, conn)
		if err != nil {
			return err
		}
		sub.deliver(items)
	}
}

// Close stops every active subscription and waits for them to finish.
// The pool is owned by the caller and stays open.
func (r *RemoteStore) Close() error {
	r.mu.Lock()
	r.closed = true
	stops := make([]func(), 0, len(r.cancels))
	for id, stop := range r.cancels {
		stops = append(stops, stop)
		delete(r.cancels, id)
	}
	r.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	return nil
}
