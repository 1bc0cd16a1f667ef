package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"burnt-bistro/internal/config"
	"burnt-bistro/internal/database"
	"burnt-bistro/internal/store"
	"burnt-bistro/internal/view"
)

// Connects to the remote store configured by the environment, makes sure the
// schema exists and prints the menu of the configured collection.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Database.Configured() {
		fmt.Fprintln(os.Stderr, "DB_HOST, DB_USER and DB_NAME must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to remote store: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Schema setup failed: %v\n", err)
		os.Exit(1)
	}

	remote := store.NewRemoteStore(pool, cfg.Store.AppID, store.DefaultRetryPolicy(), logger)
	items, err := remote.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing menu failed: %v\n", err)
		os.Exit(1)
	}

	page := view.Render(view.Input{Items: items})
	fmt.Printf("%s: %s\n", store.CollectionPath(cfg.Store.AppID), page.Heading)
	for _, item := range page.Items {
		fmt.Printf("  %s  %-30s %8s\n", item.ShortID, item.Name, item.Price)
	}
}
