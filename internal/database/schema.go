package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the LISTEN/NOTIFY channel carrying the collection path of
// every inserted or deleted menu item.
const NotifyChannel = "menu_items_changed"

const schema = `
	SELECT pg_advisory_xact_lock(727001);

	CREATE TABLE IF NOT EXISTS menu_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		collection TEXT NOT NULL,
		name TEXT NOT NULL CHECK (name <> ''),
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
	);

	CREATE INDEX IF NOT EXISTS idx_menu_items_collection_created_at
		ON menu_items(collection, created_at DESC);

	CREATE OR REPLACE FUNCTION notify_menu_items_changed() RETURNS trigger AS $$
	BEGIN
		IF TG_OP = 'DELETE' THEN
			PERFORM pg_notify('menu_items_changed', OLD.collection);
		ELSE
			PERFORM pg_notify('menu_items_changed', NEW.collection);
		END IF;
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;

	DROP TRIGGER IF EXISTS menu_items_changed ON menu_items;
	CREATE TRIGGER menu_items_changed
		AFTER INSERT OR DELETE ON menu_items
		FOR EACH ROW EXECUTE FUNCTION notify_menu_items_changed();
`

// EnsureSchema creates the menu_items table and its change trigger.
// The statements run as one implicit transaction under an advisory lock, so
// sessions bootstrapping at the same time do not trip over each other.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create menu schema: %w", err)
	}
	return nil
}
