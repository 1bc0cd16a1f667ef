package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"burnt-bistro/internal/model"

	"github.com/rs/zerolog"
)

// Notices shown to clients when the store could not be reached.
const (
	noticeAddFailed    = "Could not save the menu item. Please try again."
	noticeRemoveFailed = "Could not delete the menu item. Please try again."
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeNotice reports a transient failure the client may dismiss and retry.
func writeNotice(w http.ResponseWriter, notice string, logger zerolog.Logger) {
	logger.Warn().Str("notice", notice).Msg("store unavailable")
	writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{
		Error:   model.ErrCodeStoreUnavailable,
		Message: model.ErrStoreUnavailable.Message,
		Notice:  notice,
	})
}

// writeDomainError maps err to a response. Store failures become a notice.
func writeDomainError(w http.ResponseWriter, err error, notice string, logger zerolog.Logger) {
	if errors.Is(err, model.ErrStoreUnavailable) {
		writeNotice(w, notice, logger)
		return
	}

	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Code {
	case model.ErrCodeDeleteNotConfirmed:
		status = http.StatusConflict
	case model.ErrCodeUnconfigured:
		status = http.StatusServiceUnavailable
	}

	writeError(w, status, domainErr.Code, domainErr.Message, logger)
}

// Unconfigured answers every request with the static configuration error.
func Unconfigured(logger zerolog.Logger) http.HandlerFunc {
	logger = logger.With().Str("handler", "unconfigured").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		writeDomainError(w, model.ErrUnconfigured, "", logger)
	}
}
