package model

import (
	"sort"
	"time"
)

// DefaultDescription is shown for items added without a description.
const DefaultDescription = "No description provided."

// MenuItem represents a dish on the bistro menu.
type MenuItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// MenuItemForm is the raw add-item form as submitted by the client.
// Price stays a string so that an empty field can be told apart from zero.
type MenuItemForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// NewMenuItem is a validated add request, ready to be handed to a store.
type NewMenuItem struct {
	Name        string
	Description string
	Price       float64
}

// SortNewestFirst orders items by CreatedAt descending.
// Items with equal timestamps keep their relative order.
func SortNewestFirst(items []MenuItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// CloneItems returns a copy of items that never aliases the input.
func CloneItems(items []MenuItem) []MenuItem {
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}
