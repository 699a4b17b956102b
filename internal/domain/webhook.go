package domain

import (
	"encoding/json"
	"time"
)

// SyncActor is the system actor credited for mutations applied by the
// reverse-sync webhook rather than a human user.
const SyncActor = "monday-sync"

// Intake webhook sources.
const (
	IntakeSourceSalla   = "salla"
	IntakeSourceGeneric = "custom"
)

// Intake log outcomes.
const (
	IntakeOutcomeSuccess = "success"
	IntakeOutcomeIgnored = "ignored"
	IntakeOutcomeError   = "error"
)

// WebhookLog is an append-only audit record of an order-intake webhook call.
type WebhookLog struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty"`
	Source        string          `json:"source" bson:"source"`
	Event         string          `json:"event,omitempty" bson:"event,omitempty"`
	Merchant      int64           `json:"merchant,omitempty" bson:"merchant,omitempty"`
	OrderID       string          `json:"order_id,omitempty" bson:"orderId,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty" bson:"orderNumber,omitempty"`
	ShouldProcess bool            `json:"should_process" bson:"shouldProcess"`
	Reason        string          `json:"reason,omitempty" bson:"reason,omitempty"`
	Status        string          `json:"status" bson:"status"`
	Error         string          `json:"error,omitempty" bson:"error,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty" bson:"userAgent,omitempty"`
	RawPayload    json.RawMessage `json:"raw_payload,omitempty" bson:"rawPayload,omitempty"`
	Timestamp     time.Time       `json:"timestamp" bson:"timestamp"`
}

// Reverse-sync log results.
const (
	SyncResultSuccess       = "success"
	SyncResultOrderNotFound = "order_not_found"
	SyncResultUnknownLabel  = "unknown_label"
	SyncResultError         = "error"
)

// MondayWebhookLog is an append-only audit record of a reverse-sync webhook
// call from Monday.com.
type MondayWebhookLog struct {
	ID             string          `json:"id,omitempty" bson:"_id,omitempty"`
	MondayItemID   string          `json:"monday_item_id,omitempty" bson:"mondayItemId,omitempty"`
	OrderID        string          `json:"order_id,omitempty" bson:"orderId,omitempty"`
	PreviousStatus Status          `json:"previous_status,omitempty" bson:"previousStatus,omitempty"`
	NewStatus      Status          `json:"new_status,omitempty" bson:"newStatus,omitempty"`
	MondayLabel    string          `json:"monday_label,omitempty" bson:"mondayLabel,omitempty"`
	Result         string          `json:"result" bson:"result"`
	Error          string          `json:"error,omitempty" bson:"error,omitempty"`
	RawEvent       json.RawMessage `json:"raw_event,omitempty" bson:"rawEvent,omitempty"`
	Timestamp      time.Time       `json:"timestamp" bson:"timestamp"`
}
