package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"self-order/internal/model"

	"github.com/rs/zerolog"
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

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeDomainError maps a service error to an HTTP response. Unrecognised
// errors become an opaque 500 with the provided fallback message.
func writeDomainError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, fallback, logger)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case model.ErrCodeEmptyOrder, model.ErrCodeInvalidQuantity,
		model.ErrCodeProductNotFound, model.ErrCodeInvalidStatus:
		status = http.StatusBadRequest
	case model.ErrCodeOrderNotFound, model.ErrCodePaymentNotFound:
		status = http.StatusNotFound
	case model.ErrCodeConflictingState:
		status = http.StatusConflict
	case model.ErrCodeGatewayUnavailable:
		status = http.StatusServiceUnavailable
	}

	logger.Warn().
		Str("code", domainErr.Code).
		Int("status", status).
		Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message})
}
