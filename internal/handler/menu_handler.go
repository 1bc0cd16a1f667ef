package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"burnt-bistro/internal/middleware"
	"burnt-bistro/internal/model"
	"burnt-bistro/internal/service"
	"burnt-bistro/internal/view"

	"github.com/rs/zerolog"
)

// MenuHandler handles menu-related HTTP requests.
type MenuHandler struct {
	service service.MenuService
	logger  zerolog.Logger
}

// NewMenuHandler creates a new menu handler.
func NewMenuHandler(service service.MenuService, logger zerolog.Logger) *MenuHandler {
	return &MenuHandler{
		service: service,
		logger:  logger.With().Str("handler", "menu").Logger(),
	}
}

func (h *MenuHandler) page(r *http.Request, form model.MenuItemForm) view.Page {
	items, loaded := h.service.Items()
	return view.Render(view.Input{
		Items:   items,
		Loading: !loaded,
		Admin:   middleware.IsAdmin(r.Context()),
		Form:    form,
	})
}

// Get handles GET /api/menu requests.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.page(r, model.MenuItemForm{}))
}

// Add handles POST /api/menu requests.
func (h *MenuHandler) Add(w http.ResponseWriter, r *http.Request) {
	var form model.MenuItemForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	item, err := h.service.Add(r.Context(), form)
	if err != nil {
		writeDomainError(w, err, noticeAddFailed, h.logger)
		return
	}

	h.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("menu item added")

	writeJSON(w, http.StatusCreated, h.page(r, model.MenuItemForm{}))
}

// Remove handles DELETE /api/menu/{id}?confirm=true requests.
func (h *MenuHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "item ID is required", h.logger)
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	if err := h.service.Remove(r.Context(), id, confirmed); err != nil {
		writeDomainError(w, err, noticeRemoveFailed, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.page(r, model.MenuItemForm{}))
}

// Stream handles GET /api/menu/stream requests, sending a "menu" server-sent
// event with the rendered page on every menu update.
func (h *MenuHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	updates, cancel := h.service.Listen()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	admin := middleware.IsAdmin(r.Context())

	send := func(items []model.MenuItem, loading bool) error {
		page := view.Render(view.Input{Items: items, Loading: loading, Admin: admin})
		data, err := json.Marshal(page)
		if err != nil {
			return fmt.Errorf("failed to encode menu page: %w", err)
		}
		if _, err := fmt.Fprintf(w, "event: menu\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if _, loaded := h.service.Items(); !loaded {
		if err := send(nil, true); err != nil {
			h.logger.Debug().Err(err).Msg("menu stream closed")
			return
		}
	}

	h.logger.Debug().Bool("admin", admin).Msg("menu stream opened")

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug().Msg("menu stream closed by client")
			return
		case items, ok := <-updates:
			if !ok {
				h.logger.Debug().Msg("menu stream closed by server")
				return
			}
			if err := send(items, false); err != nil {
				h.logger.Debug().Err(err).Msg("menu stream closed")
				return
			}
		}
	}
}
