package webhook_handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"
)

// MondayWebhookHandler receives board events from Monday.com and applies
// status changes back onto orders. Monday retries failed deliveries, so every
// handled condition short of a server fault answers 200.
type MondayWebhookHandler struct {
	orders   *application.OrderService
	settings ports.SettingsRepository
	logs     ports.WebhookLogRepository
	labels   application.LabelConfig
	logger   zerolog.Logger
	now      func() time.Time
}

func NewMondayWebhookHandler(orders *application.OrderService, settings ports.SettingsRepository, logs ports.WebhookLogRepository, logger zerolog.Logger) *MondayWebhookHandler {
	return &MondayWebhookHandler{
		orders:   orders,
		settings: settings,
		logs:     logs,
		labels:   application.DefaultLabelConfig(),
		logger:   logger,
		now:      time.Now,
	}
}

// mondayEvent is the slice of Monday's webhook envelope this handler reads.
type mondayEvent struct {
	Type    string          `json:"type"`
	PulseID json.RawMessage `json:"pulseId"`
	BoardID json.RawMessage `json:"boardId"`
	Value   json.RawMessage `json:"value"`
}

type mondayEnvelope struct {
	Challenge string       `json:"challenge"`
	Event     *mondayEvent `json:"event"`
}

func (h *MondayWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
		return
	}

	var envelope mondayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return
	}

	// Monday verifies the endpoint with a challenge handshake before any
	// other configuration exists, so this must run before auth.
	if envelope.Challenge != "" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return
	}

	ctx := r.Context()

	settings, err := h.settings.Get(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load monday settings")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load settings"})
		return
	}

	if settings.MondayWebhookSecret != "" {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != settings.MondayWebhookSecret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
	}

	if !settings.Enabled {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Monday sync is disabled"})
		return
	}

	if envelope.Event == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing event"})
		return
	}
	event := envelope.Event

	if event.Type != "update_column_value" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Event type ignored"})
		return
	}

	itemID := rawToString(event.PulseID)
	label := extractStatusLabel(event.Value)
	if itemID == "" || label == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "No status label in event"})
		return
	}

	status, ok := h.labels.StatusFor(label)
	if !ok {
		h.logSync(ctx, &domain.MondayWebhookLog{
			MondayItemID: itemID,
			MondayLabel:  label,
			Result:       domain.SyncResultUnknownLabel,
			RawEvent:     json.RawMessage(body),
			Timestamp:    h.now(),
		})
		mondaySyncRequests.WithLabelValues(domain.SyncResultUnknownLabel).Inc()

		h.logger.Warn().Str("label", label).Str("itemId", itemID).Msg("Unknown monday status label")
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Unknown status label, skipped"})
		return
	}

	order, err := h.orders.FindOrderByMondayItem(ctx, itemID)
	if err != nil {
		h.logger.Error().Err(err).Str("itemId", itemID).Msg("Order lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Order lookup failed"})
		return
	}
	if order == nil {
		h.logSync(ctx, &domain.MondayWebhookLog{
			MondayItemID: itemID,
			MondayLabel:  label,
			NewStatus:    status,
			Result:       domain.SyncResultOrderNotFound,
			RawEvent:     json.RawMessage(body),
			Timestamp:    h.now(),
		})
		mondaySyncRequests.WithLabelValues(domain.SyncResultOrderNotFound).Inc()

		h.logger.Warn().Str("itemId", itemID).Msg("No order for monday item")
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "No matching order, skipped"})
		return
	}

	if order.Status == status {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Status unchanged, skipped",
			"status":  string(status),
		})
		return
	}

	previous := order.Status
	if err := h.orders.ApplySyncedStatus(ctx, order.ID, status); err != nil {
		h.logSync(ctx, &domain.MondayWebhookLog{
			MondayItemID:   itemID,
			OrderID:        order.ID,
			PreviousStatus: previous,
			NewStatus:      status,
			MondayLabel:    label,
			Result:         domain.SyncResultError,
			Error:          err.Error(),
			RawEvent:       json.RawMessage(body),
			Timestamp:      h.now(),
		})
		mondaySyncRequests.WithLabelValues(domain.SyncResultError).Inc()

		h.logger.Error().Err(err).Str("orderId", order.ID).Msg("Failed to apply synced status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update order"})
		return
	}

	h.logSync(ctx, &domain.MondayWebhookLog{
		MondayItemID:   itemID,
		OrderID:        order.ID,
		PreviousStatus: previous,
		NewStatus:      status,
		MondayLabel:    label,
		Result:         domain.SyncResultSuccess,
		RawEvent:       json.RawMessage(body),
		Timestamp:      h.now(),
	})
	mondaySyncRequests.WithLabelValues(domain.SyncResultSuccess).Inc()

	h.logger.Info().
		Str("orderId", order.ID).
		Str("previousStatus", string(previous)).
		Str("newStatus", string(status)).
		Msg("Order status synced from monday")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"order_id":        order.ID,
		"previous_status": string(previous),
		"new_status":      string(status),
	})
}

// extractStatusLabel digs the status text out of a column value event. Monday
// sends three shapes depending on board and API version: an object with
// label.text, a plain label string, and a bare name field.
func extractStatusLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var value struct {
		Label json.RawMessage `json:"label"`
		Name  string          `json:"name"`
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}

	if len(value.Label) > 0 {
		var labelObj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(value.Label, &labelObj); err == nil && labelObj.Text != "" {
			return labelObj.Text
		}
		var labelStr string
		if err := json.Unmarshal(value.Label, &labelStr); err == nil && labelStr != "" {
			return labelStr
		}
	}

	return value.Name
}

func (h *MondayWebhookHandler) logSync(ctx context.Context, entry *domain.MondayWebhookLog) {
	if err := h.logs.LogMondaySync(ctx, entry); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write monday webhook log entry")
	}
}
