// Package view turns the menu into the view model shown to clients.
// Everything here is a pure function of its input.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"burnt-bistro/internal/model"
)

const (
	Title        = "Burnt Bob's Bistro"
	LoadingText  = "Loading data..."
	EmptyText    = "Database is empty. Switch to Admin Mode to add items."
	ConfirmText  = "Delete this item?"
	shortIDChars = 4
)

// Input is everything the view depends on.
type Input struct {
	Items   []model.MenuItem
	Loading bool
	Admin   bool
	Form    model.MenuItemForm
	Notice  string
}

// Page is the rendered menu.
type Page struct {
	Title   string     `json:"title"`
	Heading string     `json:"heading"`
	Count   int        `json:"count"`
	Admin   bool       `json:"admin"`
	Loading bool       `json:"loading"`
	Status  string     `json:"status,omitempty"`
	Form    *FormView  `json:"form,omitempty"`
	Items   []ItemView `json:"items"`
	Notice  string     `json:"notice,omitempty"`
}

// FormView echoes the add form; only present in admin mode.
type FormView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// ItemView is one menu card.
type ItemView struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"shortId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	Deletable   bool      `json:"deletable"`
	Confirm     string    `json:"confirm,omitempty"`
}

// Render builds the page for in. Items are shown newest first regardless of
// the order they arrive in.
func Render(in Input) Page {
	items := model.CloneItems(in.Items)
	model.SortNewestFirst(items)

	page := Page{
		Title:   Title,
		Heading: fmt.Sprintf("Current Menu (%d Items)", len(items)),
		Count:   len(items),
		Admin:   in.Admin,
		Loading: in.Loading,
		Items:   make([]ItemView, 0, len(items)),
		Notice:  in.Notice,
	}

	if in.Admin {
		page.Form = &FormView{
			Name:        in.Form.Name,
			Description: in.Form.Description,
			Price:       in.Form.Price,
		}
	}

	switch {
	case in.Loading:
		page.Status = LoadingText
	case len(items) == 0:
		page.Status = EmptyText
	}

	for _, item := range items {
		card := ItemView{
			ID:          item.ID,
			ShortID:     ShortID(item.ID),
			Name:        item.Name,
			Description: item.Description,
			Price:       FormatPrice(item.Price),
			CreatedAt:   item.CreatedAt,
			Deletable:   in.Admin,
		}
		if in.Admin {
			card.Confirm = ConfirmText
		}
		page.Items = append(page.Items, card)
	}

	return page
}

// FormatPrice renders a price with two decimals.
func FormatPrice(price float64) string {
	if price == 0 {
		// -0 renders as "-0.00"
		price = 0
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// ShortID returns "#" followed by the last four characters of id.
func ShortID(id string) string {
	if len(id) > shortIDChars {
		id = id[len(id)-shortIDChars:]
	}
	return "#" + id
}

// ParseForm validates an add form. Name and price must be present; price
// must parse as a non-negative number. A blank description gets the
// placeholder text.
func ParseForm(form model.MenuItemForm) (model.NewMenuItem, error) {
	name := strings.TrimSpace(form.Name)
	priceText := strings.TrimSpace(form.Price)

	if name == "" || priceText == "" {
		return model.NewMenuItem{}, model.ErrMissingField
	}

	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.NewMenuItem{}, model.ErrInvalidPrice
	}
	if price == 0 {
		price = 0
	}

	description := strings.TrimSpace(form.Description)
	if description == "" {
		description = model.DefaultDescription
	}

	return model.NewMenuItem{
		Name:        name,
		Description: description,
		Price:       price,
	}, nil
}
