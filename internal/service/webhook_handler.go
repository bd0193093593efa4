package service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/forteleaf/bill-and-pay-sub001/internal/calculator"
	"github.com/forteleaf/bill-and-pay-sub001/internal/middleware"
	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
	"github.com/forteleaf/bill-and-pay-sub001/internal/webhook"
)

// maxWebhookBody caps webhook request bodies at 64 KiB.
const maxWebhookBody = 64 << 10

// WebhookHandler receives payment gateway notifications and feeds them to
// the settlement service. Deliveries are verified, deduplicated on the
// (pgTid, otid) pair, and recorded as immutable events before settlement.
type WebhookHandler struct {
	verifier    *webhook.Verifier
	store       storage.Store
	settlements *SettlementService
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(verifier *webhook.Verifier, store storage.Store, settlements *SettlementService) *WebhookHandler {
	return &WebhookHandler{
		verifier:    verifier,
		store:       store,
		settlements: settlements,
	}
}

type webhookResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	Settlements int    `json:"settlements,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ServeHTTP handles POST deliveries from the gateway.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, webhookResponse{Status: "error", Message: "method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "failed to read body"})
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(webhook.SignatureHeader)); err != nil {
		slog.Warn("webhook signature rejected", "error", err)
		middleware.WebhooksRejected.WithLabelValues("signature").Inc()
		writeJSON(w, http.StatusUnauthorized, webhookResponse{Status: "error", Message: err.Error()})
		return
	}

	payload, err := webhook.ParsePayload(body)
	if err != nil {
		middleware.WebhooksRejected.WithLabelValues("payload").Inc()
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: err.Error()})
		return
	}

	event, err := payload.Event()
	if err != nil {
		middleware.WebhooksRejected.WithLabelValues("payload").Inc()
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: err.Error()})
		return
	}

	ctx := r.Context()

	merchant, err := h.store.GetOrganizationByCode(ctx, event.MerchantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			middleware.WebhooksRejected.WithLabelValues("unknown_merchant").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, webhookResponse{Status: "error", Message: "unknown merchant " + event.MerchantID})
			return
		}
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "merchant lookup failed"})
		return
	}
	event.MerchantPath = merchant.Path

	claimed, keyStatus, err := h.store.ClaimWebhookKey(ctx, event.PgTID, event.OTID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to record delivery"})
		return
	}
	if !claimed {
		// At-least-once transport. Only a COMPLETED key makes the
		// redelivery a duplicate; a PROCESSING or FAILED key marks a
		// delivery that never settled (missing fee config since fixed,
		// transient store error) and the redelivery re-drives it.
		if keyStatus == models.WebhookCompleted {
			slog.Info("duplicate webhook delivery acknowledged", "pg_tid", event.PgTID, "otid", event.OTID)
			middleware.WebhooksRejected.WithLabelValues("duplicate").Inc()
			writeJSON(w, http.StatusOK, webhookResponse{Status: "duplicate"})
			return
		}

		existing, err := h.store.FindEventByWebhookKey(ctx, event.PgTID, event.OTID)
		switch {
		case err == nil:
			settled, err := h.store.FindSettlementsByEvent(ctx, existing.ID)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to inspect delivery"})
				return
			}
			if len(settled) > 0 {
				// The earlier delivery did settle; only the key update
				// was lost. Repair it and acknowledge.
				if err := h.store.MarkWebhookKey(ctx, event.PgTID, event.OTID, models.WebhookCompleted); err != nil {
					slog.Warn("failed to mark webhook key", "pg_tid", event.PgTID, "otid", event.OTID, "error", err)
				}
				middleware.WebhooksRejected.WithLabelValues("duplicate").Inc()
				writeJSON(w, http.StatusOK, webhookResponse{Status: "duplicate", EventID: existing.ID})
				return
			}
			event = existing
		case errors.Is(err, storage.ErrNotFound):
			// Claimed but the event was never recorded; record it now.
			if err := h.store.CreateEvent(ctx, event); err != nil {
				writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to record event"})
				return
			}
		default:
			writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to inspect delivery"})
			return
		}
		slog.Info("re-driving unsettled webhook delivery",
			"pg_tid", event.PgTID,
			"otid", event.OTID,
			"key_status", keyStatus,
		)
	} else {
		if err := h.store.CreateEvent(ctx, event); err != nil {
			writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "failed to record event"})
			return
		}
	}
	middleware.WebhooksReceived.WithLabelValues(string(event.EventType)).Inc()

	batch, err := h.settlements.ProcessEvent(ctx, event)
	if err != nil {
		if markErr := h.store.MarkWebhookKey(ctx, event.PgTID, event.OTID, models.WebhookFailed); markErr != nil {
			slog.Warn("failed to mark webhook key", "pg_tid", event.PgTID, "otid", event.OTID, "error", markErr)
		}
		status, message := settlementErrorStatus(err)
		slog.Error("settlement processing failed",
			"event_id", event.ID,
			"transaction_id", event.TransactionID,
			"error", err,
		)
		writeJSON(w, status, webhookResponse{Status: "error", Message: message, EventID: event.ID})
		return
	}

	if err := h.store.MarkWebhookKey(ctx, event.PgTID, event.OTID, models.WebhookCompleted); err != nil {
		// The batch is persisted; a redelivery will find it and repair
		// the key instead of settling twice.
		slog.Warn("failed to mark webhook key", "pg_tid", event.PgTID, "otid", event.OTID, "error", err)
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Status:      "ok",
		EventID:     event.ID,
		Settlements: len(batch),
	})
}

// settlementErrorStatus maps processing failures to HTTP statuses.
// Configuration, lineage, and over-cancel problems need operator
// remediation, not redelivery, and get 422; everything else is a 500 so
// the gateway retries. Either way the claimed key stays re-drivable until
// the delivery settles.
func settlementErrorStatus(err error) (int, string) {
	var (
		feeNotFound *calculator.FeeConfigNotFoundError
		lineage     *calculator.OriginalSettlementNotFoundError
		chainErr    *calculator.ChainError
		overCancel  *OverCancelError
	)
	switch {
	case errors.As(err, &feeNotFound),
		errors.As(err, &lineage),
		errors.As(err, &chainErr),
		errors.As(err, &overCancel),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "settlement processing failed"
	}
}
