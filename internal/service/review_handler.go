package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/forteleaf/bill-and-pay-sub001/internal/middleware"
	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

const defaultReviewLimit = 100

// ReviewHandler is the operator surface for settlement batches that failed
// balance validation. Operators either release a batch back to PENDING or
// cancel it.
type ReviewHandler struct {
	store storage.Store
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(store storage.Store) *ReviewHandler {
	return &ReviewHandler{store: store}
}

// List serves GET requests returning settlements awaiting manual review,
// oldest first.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultReviewLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "invalid limit"})
			return
		}
		limit = parsed
	}

	settlements, err := h.store.ListSettlementsByStatus(r.Context(), models.StatusPendingReview, limit)
	if err != nil {
		slog.Error("failed to list review queue", "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to list review queue"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settlements": settlements,
		"count":       len(settlements),
	})
}

type resolveRequest struct {
	EventID string `json:"event_id"`
	Action  string `json:"action"`
}

// Resolve serves POST requests resolving a quarantined batch: action
// "release" moves it to PENDING, "cancel" moves it to CANCELLED. The whole
// batch moves together.
func (h *ReviewHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "invalid request body"})
		return
	}
	if req.EventID == "" {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "event_id required"})
		return
	}

	var target models.SettlementStatus
	switch req.Action {
	case "release":
		target = models.StatusPending
	case "cancel":
		target = models.StatusCancelled
	default:
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "action must be release or cancel"})
		return
	}

	err := h.store.UpdateSettlementStatusByEvent(r.Context(), req.EventID, models.StatusPendingReview, target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, webhookResponse{Status: "error", Message: "no batch under review for event"})
			return
		}
		slog.Error("failed to resolve review batch", "event_id", req.EventID, "error", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: err.Error()})
		return
	}

	slog.Info("review batch resolved",
		"event_id", req.EventID,
		"action", req.Action,
		"operator_id", middleware.GetOperatorID(r.Context()),
	)
	writeJSON(w, http.StatusOK, webhookResponse{Status: "ok", EventID: req.EventID})
}
