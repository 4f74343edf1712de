package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"self-order/internal/model"
	"self-order/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles the gateway's settlement notifications and the
// settlement status query.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Notify handles POST /api/payments/notifications requests from the
// payment gateway. Duplicate deliveries are acknowledged as success, and
// so are reconciliation conflicts: local retries cannot fix a conflicting
// order state, so the gateway must not be made to retry indefinitely.
func (h *PaymentHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req model.PaymentNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if req.PaymentID == "" {
		writeError(w, http.StatusBadRequest, "payment ID is required", h.logger)
		return
	}

	status, ok := model.ParsePaymentStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "status must be APPROVED or REJECTED", h.logger)
		return
	}

	err := h.service.ApplyStatus(r.Context(), req.PaymentID, status)
	if err != nil {
		if errors.Is(err, model.ErrConflictingOrderState) {
			// Anomaly is already logged by the service; acknowledge so
			// the gateway stops redelivering.
			w.WriteHeader(http.StatusOK)
			return
		}
		writeDomainError(w, err, "failed to process payment notification", h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Status handles GET /api/payments/status/{orderCode} requests.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	codeStr := strings.TrimPrefix(r.URL.Path, "/api/payments/status/")
	if codeStr == "" {
		writeError(w, http.StatusBadRequest, "order code is required", h.logger)
		return
	}

	code, err := strconv.ParseInt(codeStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order code format", h.logger)
		return
	}

	status, err := h.service.StatusByOrderCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve payment status", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
