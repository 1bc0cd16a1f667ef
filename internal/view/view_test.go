package view

import (
	"math"
	"testing"
	"time"

	"burnt-bistro/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	items := []model.MenuItem{
		{ID: "a-0001", Name: "Burnt Toast", Price: 3.5, CreatedAt: base},
		{ID: "b-0002", Name: "Cinder Cake", Price: 4, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c-0003", Name: "Ash Soup", Price: 7, CreatedAt: base.Add(time.Minute)},
	}

	page := Render(Input{Items: items})

	require.Len(t, page.Items, 3)
	assert.Equal(t, "Cinder Cake", page.Items[0].Name)
	assert.Equal(t, "Ash Soup", page.Items[1].Name)
	assert.Equal(t, "Burnt Toast", page.Items[2].Name)
	assert.Equal(t, "Current Menu (3 Items)", page.Heading)
	assert.Empty(t, page.Status)

	// Input is left untouched
	assert.Equal(t, "Burnt Toast", items[0].Name)
}

func TestRender_AdminMode(t *testing.T) {
	items := []model.MenuItem{{ID: "1736939182000", Name: "Burnt Toast", Price: 3.5}}
	form := model.MenuItemForm{Name: "Ash", Price: "7"}

	tests := []struct {
		name       string
		admin      bool
		expectForm bool
	}{
		{name: "Guest view", admin: false, expectForm: false},
		{name: "Admin view", admin: true, expectForm: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Render(Input{Items: items, Admin: tt.admin, Form: form})

			assert.Equal(t, tt.admin, page.Admin)
			require.Len(t, page.Items, 1)
			assert.Equal(t, tt.admin, page.Items[0].Deletable)

			if tt.expectForm {
				require.NotNil(t, page.Form)
				assert.Equal(t, "Ash", page.Form.Name)
				assert.Equal(t, "7", page.Form.Price)
				assert.Equal(t, ConfirmText, page.Items[0].Confirm)
			} else {
				assert.Nil(t, page.Form)
				assert.Empty(t, page.Items[0].Confirm)
			}
		})
	}
}

func TestRender_StatusText(t *testing.T) {
	assert.Equal(t, LoadingText, Render(Input{Loading: true}).Status)
	assert.Equal(t, EmptyText, Render(Input{}).Status)

	page := Render(Input{Notice: "The menu store is temporarily unavailable"})
	assert.Equal(t, "The menu store is temporarily unavailable", page.Notice)
	assert.NotNil(t, page.Items)
	assert.Equal(t, "Current Menu (0 Items)", page.Heading)
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    float64
		expected string
	}{
		{3.5, "3.50"},
		{7, "7.00"},
		{0, "0.00"},
		{math.Copysign(0, -1), "0.00"},
		{12.345, "12.35"},
		{1234.5, "1234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPrice(tt.price))
		})
	}
}

func TestParseForm_NegativeZeroPrice(t *testing.T) {
	for _, price := range []string{"-0", "-0.00", " -0 "} {
		t.Run(price, func(t *testing.T) {
			item, err := ParseForm(model.MenuItemForm{Name: "Tap Water", Price: price})
			require.NoError(t, err)
			assert.False(t, math.Signbit(item.Price))
			assert.Equal(t, "0.00", FormatPrice(item.Price))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "#2000", ShortID("1736939182000"))
	assert.Equal(t, "#ab", ShortID("ab"))
	assert.Equal(t, "#", ShortID(""))
}

func TestParseForm(t *testing.T) {
	tests := []struct {
		name        string
		form        model.MenuItemForm
		expected    model.NewMenuItem
		expectedErr error
	}{
		{
			name:     "Valid with description",
			form:     model.MenuItemForm{Name: "Burnt Toast", Description: "Extra crispy", Price: "3.5"},
			expected: model.NewMenuItem{Name: "Burnt Toast", Description: "Extra crispy", Price: 3.5},
		},
		{
			name:     "Blank description gets placeholder",
			form:     model.MenuItemForm{Name: " Ash Soup ", Description: "  ", Price: "7"},
			expected: model.NewMenuItem{Name: "Ash Soup", Description: model.DefaultDescription, Price: 7},
		},
		{
			name:     "Zero price is allowed",
			form:     model.MenuItemForm{Name: "Tap Water", Price: "0"},
			expected: model.NewMenuItem{Name: "Tap Water", Description: model.DefaultDescription, Price: 0},
		},
		{
			name:        "Missing name",
			form:        model.MenuItemForm{Price: "3.5"},
			expectedErr: model.ErrMissingField,
		},
		{
			name:        "Missing price",
			form:        model.MenuItemForm{Name: "Burnt Toast"},
			expectedErr: model.ErrMissingField,
		},
		{
			name:        "Whitespace name",
			form:        model.MenuItemForm{Name: "   ", Price: "1"},
			expectedErr: model.ErrMissingField,
		},
		{
			name:        "Non-numeric price",
			form:        model.MenuItemForm{Name: "Burnt Toast", Price: "cheap"},
			expectedErr: model.ErrInvalidPrice,
		},
		{
			name:        "Negative price",
			form:        model.MenuItemForm{Name: "Burnt Toast", Price: "-1"},
			expectedErr: model.ErrInvalidPrice,
		},
		{
			name:        "NaN price",
			form:        model.MenuItemForm{Name: "Burnt Toast", Price: "NaN"},
			expectedErr: model.ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ParseForm(tt.form)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, item)
			}
		})
	}
}
