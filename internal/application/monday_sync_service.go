package application

import (
	"context"
	"fmt"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SyncResult is the outcome of one outbound sync attempt. Skipped means the
// integration was disabled or no board applied: a no-op, not a failure.
type SyncResult struct {
	ItemID  string
	BoardID string
	Skipped bool
	Reason  string
}

func skipped(reason string) SyncResult {
	return SyncResult{Skipped: true, Reason: reason}
}

// MondaySyncService translates orders and status transitions into Monday
// board items. It reads the integration settings on every call so admin
// changes apply without a restart, and it never fails an order mutation:
// callers run it behind their own error boundary.
type MondaySyncService struct {
	settingsRepo ports.SettingsRepository
	client       ports.MondayClient
	labels       LabelConfig
	logger       zerolog.Logger
}

// NewMondaySyncService creates a new outbound sync dispatcher with the
// default label mapping.
func NewMondaySyncService(settingsRepo ports.SettingsRepository, client ports.MondayClient, logger zerolog.Logger) *MondaySyncService {
	return NewMondaySyncServiceWithLabels(settingsRepo, client, DefaultLabelConfig(), logger)
}

// NewMondaySyncServiceWithLabels creates a dispatcher with a per-deployment
// label mapping.
func NewMondaySyncServiceWithLabels(settingsRepo ports.SettingsRepository, client ports.MondayClient, labels LabelConfig, logger zerolog.Logger) *MondaySyncService {
	return &MondaySyncService{
		settingsRepo: settingsRepo,
		client:       client,
		labels:       labels,
		logger:       logger,
	}
}

// Labels exposes the active label mapping for the reverse-sync direction.
func (s *MondaySyncService) Labels() LabelConfig {
	return s.labels
}

// resolveBoard applies the three-tier board precedence: an explicit target
// board wins, then the assignee's personal board, then the configured default
// for the order's status. Completed orders never get a new item.
func (s *MondaySyncService) resolveBoard(settings *domain.MondaySettings, order *domain.Order, explicitBoardID, designerBoardID string) (string, string) {
	if explicitBoardID != "" {
		return explicitBoardID, ""
	}
	if designerBoardID != "" {
		return designerBoardID, ""
	}
	switch order.Status {
	case domain.StatusPendingDesign:
		if settings.DesignBoardID == "" {
			return "", "design board not configured"
		}
		return settings.DesignBoardID, ""
	case domain.StatusPendingProduction, domain.StatusInProduction:
		if settings.ProductionBoardID == "" {
			return "", "production board not configured"
		}
		return settings.ProductionBoardID, ""
	default:
		return "", "completed orders only update existing items"
	}
}

// CreateItemForOrder creates a Monday item representing the order on the
// resolved board and returns its ID. Callers cache the ID on the order so the
// creation runs at most once per order/board pair.
func (s *MondaySyncService) CreateItemForOrder(ctx context.Context, order *domain.Order, explicitBoardID, designerBoardID string) (SyncResult, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to load monday settings: %w", err)
	}
	if !settings.Enabled {
		return skipped("monday integration disabled"), nil
	}

	boardID, reason := s.resolveBoard(settings, order, explicitBoardID, designerBoardID)
	if boardID == "" {
		return skipped(reason), nil
	}

	itemName := fmt.Sprintf("%s - %s", order.OrderNumber, order.ProductLabel())
	columnValues := map[string]interface{}{
		"order_id": order.ID,
		"status":   s.labels.LabelFor(order.Status),
	}
	if order.DeliveryDate != "" {
		columnValues["delivery_date"] = order.DeliveryDate
	}

	itemID, err := s.client.CreateItem(ctx, settings.APIToken, boardID, itemName, columnValues)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to create monday item: %w", err)
	}

	s.logger.Info().
		Str("orderId", order.ID).
		Str("boardId", boardID).
		Str("itemId", itemID).
		Msg("Order synced to Monday board")

	return SyncResult{ItemID: itemID, BoardID: boardID}, nil
}

// PushStatus updates an existing Monday item's status label. Safe to repeat:
// the remote update is last-write-wins.
func (s *MondaySyncService) PushStatus(ctx context.Context, itemID, boardID string, status domain.Status) (SyncResult, error) {
	if itemID == "" {
		return skipped("order has no monday item"), nil
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to load monday settings: %w", err)
	}
	if !settings.Enabled {
		return skipped("monday integration disabled"), nil
	}

	if err := s.client.UpdateItemStatus(ctx, settings.APIToken, boardID, itemID, s.labels.LabelFor(status)); err != nil {
		return SyncResult{}, fmt.Errorf("failed to push status: %w", err)
	}
	return SyncResult{ItemID: itemID, BoardID: boardID}, nil
}

// AddOrderNote attaches a comment to an order's Monday item.
func (s *MondaySyncService) AddOrderNote(ctx context.Context, itemID, note string) error {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monday settings: %w", err)
	}
	if !settings.Enabled {
		return nil
	}
	return s.client.AddNote(ctx, settings.APIToken, itemID, note)
}

// BoardColumns lists a board's columns using the stored token, for the admin
// column-mapping screen.
func (s *MondaySyncService) BoardColumns(ctx context.Context, boardID string) ([]ports.MondayColumn, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load monday settings: %w", err)
	}
	if settings.APIToken == "" {
		return nil, fmt.Errorf("api token is not configured")
	}
	return s.client.GetBoardColumns(ctx, settings.APIToken, boardID)
}

// TestConnection probes the Monday API with an explicit token, used by the
// admin settings screen before saving.
func (s *MondaySyncService) TestConnection(ctx context.Context, token, boardID string) (*ports.MondayAccount, *ports.MondayBoard, error) {
	return s.client.TestConnection(ctx, token, boardID)
}
