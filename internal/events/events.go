package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Menu change actions.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// MenuChange describes one mutation of the menu.
type MenuChange struct {
	Action string    `json:"action"`
	ItemID string    `json:"itemId"`
	Name   string    `json:"name,omitempty"`
	UserID string    `json:"userId,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher fans menu changes out to other services.
type Publisher interface {
	PublishMenuChange(ctx context.Context, change MenuChange) error
	Close() error
}

type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher returns a Publisher that only logs changes.
func NewNopPublisher(logger zerolog.Logger) Publisher {
	return &nopPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *nopPublisher) PublishMenuChange(ctx context.Context, change MenuChange) error {
	p.logger.Debug().
		Str("action", change.Action).
		Str("item_id", change.ItemID).
		Msg("menu change (events disabled)")
	return nil
}

func (p *nopPublisher) Close() error { return nil }
