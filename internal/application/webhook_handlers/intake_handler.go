package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"
)

// Intake acting users credited on auto-created orders.
const (
	sallaActor   = "salla-webhook"
	genericActor = "webhook-system"
)

// IntakeHandler receives order-creation webhooks from the Salla store and
// from generic automation tools, normalizes them and feeds them into the
// order engine. Every accepted request leaves an audit log entry.
type IntakeHandler struct {
	orders *application.OrderService
	logs   ports.WebhookLogRepository
	apiKey string
	logger zerolog.Logger
	now    func() time.Time
}

func NewIntakeHandler(orders *application.OrderService, logs ports.WebhookLogRepository, apiKey string, logger zerolog.Logger) *IntakeHandler {
	return NewIntakeHandlerWithOptions(orders, logs, apiKey, logger, time.Now)
}

// NewIntakeHandlerWithOptions allows injecting the clock.
func NewIntakeHandlerWithOptions(orders *application.OrderService, logs ports.WebhookLogRepository, apiKey string, logger zerolog.Logger, now func() time.Time) *IntakeHandler {
	return &IntakeHandler{
		orders: orders,
		logs:   logs,
		apiKey: apiKey,
		logger: logger,
		now:    now,
	}
}

func (h *IntakeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		key = r.URL.Query().Get("apiKey")
	}
	if h.apiKey == "" || key != h.apiKey {
		intakeRequests.WithLabelValues("unknown", "unauthorized").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
		return
	}

	payload, err := classifyIntake(body)
	if err != nil {
		intakeRequests.WithLabelValues("unknown", "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if payload.Salla != nil {
		h.handleSalla(w, r, payload.Salla, body)
		return
	}
	h.handleGeneric(w, r, payload.Generic, body)
}

func (h *IntakeHandler) handleSalla(w http.ResponseWriter, r *http.Request, p *sallaPayload, body []byte) {
	ctx := r.Context()
	transform := transformSallaOrder(p, h.now())

	entry := &domain.WebhookLog{
		Source:        domain.IntakeSourceSalla,
		Event:         p.Event,
		Merchant:      p.Merchant,
		ShouldProcess: transform.ShouldProcess,
		Reason:        transform.Reason,
		UserAgent:     r.UserAgent(),
		RawPayload:    json.RawMessage(body),
		Timestamp:     h.now(),
	}

	if !transform.ShouldProcess {
		entry.Status = domain.IntakeOutcomeIgnored
		h.logIntake(ctx, entry)
		intakeRequests.WithLabelValues(domain.IntakeSourceSalla, domain.IntakeOutcomeIgnored).Inc()

		h.logger.Info().Str("event", p.Event).Str("reason", transform.Reason).Msg("Salla order ignored")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":        true,
			"should_process": false,
			"reason":         transform.Reason,
		})
		return
	}

	orderID, err := h.orders.CreateOrder(ctx, transform.Input, sallaActor)
	if err != nil {
		entry.Status = domain.IntakeOutcomeError
		entry.Error = err.Error()
		h.logIntake(ctx, entry)
		intakeRequests.WithLabelValues(domain.IntakeSourceSalla, domain.IntakeOutcomeError).Inc()

		h.logger.Error().Err(err).Str("event", p.Event).Msg("Failed to create order from Salla webhook")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create order"})
		return
	}

	entry.Status = domain.IntakeOutcomeSuccess
	entry.OrderID = orderID
	entry.OrderNumber = transform.Input.OrderNumber
	h.logIntake(ctx, entry)
	intakeRequests.WithLabelValues(domain.IntakeSourceSalla, domain.IntakeOutcomeSuccess).Inc()

	h.logger.Info().Str("orderId", orderID).Str("orderNumber", transform.Input.OrderNumber).Msg("Order created from Salla webhook")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"should_process": true,
		"order_id":       orderID,
		"order_number":   transform.Input.OrderNumber,
	})
}

func (h *IntakeHandler) handleGeneric(w http.ResponseWriter, r *http.Request, p *genericPayload, body []byte) {
	ctx := r.Context()

	if missing := p.missingFields(); len(missing) > 0 {
		intakeRequests.WithLabelValues(domain.IntakeSourceGeneric, domain.IntakeOutcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "Missing required fields",
			"missing":  missing,
			"received": p.receivedKeys,
		})
		return
	}

	quantity, err := parseLooseInt(p.Quantity)
	if err != nil || quantity <= 0 {
		intakeRequests.WithLabelValues(domain.IntakeSourceGeneric, domain.IntakeOutcomeError).Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Quantity must be a positive number"})
		return
	}

	orderNumber := rawToString(p.OrderID)
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("WEB-%d", h.now().UnixMilli())
	}

	config := p.ProductConfig
	if config == nil {
		config = map[string]interface{}{}
	}
	config["source"] = domain.IntakeSourceGeneric

	input := application.CreateOrderInput{
		OrderNumber:          orderNumber,
		ProductType:          p.ProductType,
		ProductConfig:        config,
		Quantity:             quantity,
		DeliveryDate:         p.DeliveryDate,
		SalesNotes:           p.Notes,
		AssignedDesignerID:   p.DesignerID,
		AssignedDesignerName: p.DesignerName,
		CustomFields:         p.CustomFields,
	}

	entry := &domain.WebhookLog{
		Source:        domain.IntakeSourceGeneric,
		ShouldProcess: true,
		UserAgent:     r.UserAgent(),
		RawPayload:    json.RawMessage(body),
		Timestamp:     h.now(),
	}

	orderID, err := h.orders.CreateOrder(ctx, input, genericActor)
	if err != nil {
		entry.Status = domain.IntakeOutcomeError
		entry.Error = err.Error()
		h.logIntake(ctx, entry)
		intakeRequests.WithLabelValues(domain.IntakeSourceGeneric, domain.IntakeOutcomeError).Inc()

		h.logger.Error().Err(err).Str("orderNumber", orderNumber).Msg("Failed to create order from webhook")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create order"})
		return
	}

	entry.Status = domain.IntakeOutcomeSuccess
	entry.OrderID = orderID
	entry.OrderNumber = orderNumber
	h.logIntake(ctx, entry)
	intakeRequests.WithLabelValues(domain.IntakeSourceGeneric, domain.IntakeOutcomeSuccess).Inc()

	h.logger.Info().Str("orderId", orderID).Str("orderNumber", orderNumber).Msg("Order created from webhook")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"order_id":     orderID,
		"order_number": orderNumber,
	})
}

// logIntake writes the audit entry; a failed write must never fail the
// webhook itself.
func (h *IntakeHandler) logIntake(ctx context.Context, entry *domain.WebhookLog) {
	if err := h.logs.LogIntake(ctx, entry); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write webhook log entry")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out, nothing left to do.
		_ = err
	}
}
