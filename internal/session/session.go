package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"burnt-bistro/internal/blob"
	"burnt-bistro/internal/config"
	"burnt-bistro/internal/database"
	"burnt-bistro/internal/model"
	"burnt-bistro/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// LocalUserID is the fixed identity of local sessions.
const LocalUserID = "local-dev-user-001"

// State is the lifecycle state of a session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateUnconfigured    State = "unconfigured"
	StateClosed          State = "closed"
)

var transitions = map[State][]State{
	StateUnauthenticated: {StateAuthenticating, StateUnconfigured, StateClosed},
	StateAuthenticating:  {StateAuthenticated, StateUnauthenticated, StateClosed},
	StateAuthenticated:   {StateClosed},
	StateUnconfigured:    {StateClosed},
}

// Session carries the user identity and the connection handles a client
// needs. It is created by Bootstrap and torn down with Close.
type Session struct {
	mu      sync.RWMutex
	state   State
	userID  string
	backend string
	store   store.MenuStore
	pool    *pgxpool.Pool
	logger  zerolog.Logger
}

func newSession(backend string, logger zerolog.Logger) *Session {
	return &Session{
		state:   StateUnauthenticated,
		backend: backend,
		logger:  logger.With().Str("component", "session").Str("backend", backend).Logger(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID returns the opaque user identity, empty until authenticated.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Backend returns the configured store backend name.
func (s *Session) Backend() string {
	return s.backend
}

// Store returns the menu store, nil unless authenticated.
func (s *Session) Store() store.MenuStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.logger.Debug().Str("from", string(s.state)).Str("to", string(to)).Msg("session state changed")
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid session transition from %s to %s", s.state, to)
}

func (s *Session) authenticate(userID string, st store.MenuStore, pool *pgxpool.Pool) error {
	s.mu.Lock()
	s.userID = userID
	s.store = st
	s.pool = pool
	s.mu.Unlock()

	if err := s.transition(StateAuthenticated); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("session authenticated")
	return nil
}

// Close stops the store and releases the database pool.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	st, pool := s.store, s.pool
	s.mu.Unlock()

	var err error
	if st != nil {
		err = st.Close()
	}
	if pool != nil {
		pool.Close()
	}

	if tErr := s.transition(StateClosed); tErr != nil && err == nil {
		err = tErr
	}

	s.logger.Info().Msg("session closed")
	return err
}

// Bootstrap establishes a session for the configured backend.
// For the remote backend without credentials it returns the session in the
// unconfigured state together with model.ErrUnconfigured.
func Bootstrap(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Session, error) {
	s := newSession(cfg.Store.Backend, logger)

	switch cfg.Store.Backend {
	case config.BackendLocal:
		if err := bootstrapLocal(ctx, s, cfg, logger); err != nil {
			return nil, err
		}
	case config.BackendRemote:
		if err := bootstrapRemote(ctx, s, cfg, logger); err != nil {
			if errors.Is(err, model.ErrUnconfigured) {
				return s, err
			}
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}

	return s, nil
}

func bootstrapLocal(ctx context.Context, s *Session, cfg *config.Config, logger zerolog.Logger) error {
	if err := s.transition(StateAuthenticating); err != nil {
		return err
	}

	// Stand-in for a sign-in round trip
	if cfg.Store.BootstrapDelay > 0 {
		select {
		case <-ctx.Done():
			_ = s.transition(StateUnauthenticated)
			return ctx.Err()
		case <-time.After(cfg.Store.BootstrapDelay):
		}
	}

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		_ = s.transition(StateUnauthenticated)
		return err
	}

	st := store.NewLocalStore(blobs, cfg.Local.Key, logger)
	return s.authenticate(LocalUserID, st, nil)
}

func newBlobStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (blob.Store, error) {
	switch cfg.Local.BlobBackend {
	case config.BlobS3:
		return blob.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	case config.BlobFile:
		return blob.NewFileStore(cfg.Local.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.Local.BlobBackend)
	}
}

func bootstrapRemote(ctx context.Context, s *Session, cfg *config.Config, logger zerolog.Logger) error {
	if !cfg.Database.Configured() {
		s.logger.Error().Msg("remote store credentials are missing")
		if err := s.transition(StateUnconfigured); err != nil {
			return err
		}
		return model.ErrUnconfigured
	}

	if err := s.transition(StateAuthenticating); err != nil {
		return err
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		_ = s.transition(StateUnauthenticated)
		return fmt.Errorf("failed to connect to remote store: %w", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		_ = s.transition(StateUnauthenticated)
		return err
	}

	st := store.NewRemoteStore(pool, cfg.Store.AppID, store.DefaultRetryPolicy(), logger)

	// Anonymous sign-in: every remote session gets a fresh opaque identity
	return s.authenticate(uuid.NewString(), st, pool)
}
