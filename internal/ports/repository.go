package ports

import (
	"context"
	"time"

	"printflow-core-monday-layer/internal/domain"
)

// OrderRepository defines the persistence interface for orders and their
// sub-items. Not-found lookups return (nil, nil), not an error.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (string, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// FindByMondayItemID resolves an order by external item ID, checking the
	// design-board correlation field before the production-board one.
	FindByMondayItemID(ctx context.Context, itemID string) (*domain.Order, error)

	ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	ListByCreator(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)

	StartDesign(ctx context.Context, id, userID string, at time.Time) error
	CompleteDesign(ctx context.Context, id string, design domain.DesignUpdate, userID string, at time.Time) error
	UpdateBusinessData(ctx context.Context, id string, patch domain.OrderPatch) error
	SetStatus(ctx context.Context, id string, status domain.Status, productionNotes, completedBy string, at time.Time) error

	// ApplySyncedStatus is the reverse-sync write path: sets status and
	// lastSyncedFromMonday, attributing completion to the system actor.
	ApplySyncedStatus(ctx context.Context, id string, status domain.Status, at time.Time) error

	// SetMondayItemID / SetMondayProductionItemID store a successful outbound
	// sync's item ID, and the board it was created on, at most once; a second
	// call for the same order is a no-op.
	SetMondayItemID(ctx context.Context, id, itemID, boardID string) error
	SetMondayProductionItemID(ctx context.Context, id, itemID, boardID string) error

	// CreateSubItem inserts a child work unit, marks the parent order as a
	// parent and atomically increments its subitemsCount.
	CreateSubItem(ctx context.Context, sub *domain.SubItem) (string, error)
	ListSubItems(ctx context.Context, parentOrderID string) ([]*domain.SubItem, error)
	UpdateSubItemDesign(ctx context.Context, parentOrderID, subItemID string, design domain.SubItemDesignUpdate, userID string, at time.Time) error
	SetSubItemStatus(ctx context.Context, parentOrderID, subItemID string, status domain.Status, at time.Time) error

	// Subscribe delivers the full current result set (optionally status
	// filtered, createdAt descending) to fn whenever any matching order
	// changes. The returned func cancels the subscription.
	Subscribe(ctx context.Context, status *domain.Status, fn func([]*domain.Order)) (func(), error)
	SubscribeSubItems(ctx context.Context, parentOrderID string, fn func([]*domain.SubItem)) (func(), error)
}

// SettingsRepository defines the interface for the Monday integration
// configuration singleton.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.MondaySettings, error)
	Save(ctx context.Context, settings *domain.MondaySettings) error
}

// UserRepository defines read access to user accounts.
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// WebhookLogRepository defines the append-only webhook audit trail.
type WebhookLogRepository interface {
	LogIntake(ctx context.Context, log *domain.WebhookLog) error
	LogMondaySync(ctx context.Context, log *domain.MondayWebhookLog) error
}
