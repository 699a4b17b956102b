package application

import (
	"context"
	"fmt"
	"time"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderService owns the order lifecycle: every mutation entry point lives
// here. Persistence failures surface to the caller as descriptive errors;
// outbound Monday sync runs detached and never blocks or fails an order
// mutation.
type OrderService struct {
	orders ports.OrderRepository
	users  ports.UserRepository
	sync   *MondaySyncService
	logger zerolog.Logger

	now      func() time.Time
	runAsync func(func())
}

// NewOrderService creates a new order service.
func NewOrderService(orders ports.OrderRepository, users ports.UserRepository, sync *MondaySyncService, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		sync:     sync,
		logger:   logger,
		now:      time.Now,
		runAsync: func(fn func()) { go fn() },
	}
}

// NewOrderServiceWithOptions creates an order service with an injected clock
// and async runner, used by tests to make fire-and-forget paths deterministic.
func NewOrderServiceWithOptions(orders ports.OrderRepository, users ports.UserRepository, sync *MondaySyncService, logger zerolog.Logger, now func() time.Time, runAsync func(func())) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		sync:     sync,
		logger:   logger,
		now:      now,
		runAsync: runAsync,
	}
}

// CreateOrderInput carries the sales data for a new order.
type CreateOrderInput struct {
	OrderNumber          string                 `json:"order_number"`
	CustomerName         string                 `json:"customer_name,omitempty"`
	CustomerPhone        string                 `json:"customer_phone,omitempty"`
	OrderType            string                 `json:"order_type,omitempty"`
	ProductType          string                 `json:"product_type"`
	ProductConfig        map[string]interface{} `json:"product_config,omitempty"`
	Quantity             int                    `json:"quantity"`
	DeliveryDate         string                 `json:"delivery_date"`
	SalesNotes           string                 `json:"sales_notes,omitempty"`
	AssignedDesignerID   string                 `json:"assigned_designer_id,omitempty"`
	AssignedDesignerName string                 `json:"assigned_designer_name,omitempty"`
	CustomFields         []domain.CustomField   `json:"custom_fields,omitempty"`
}

func (in CreateOrderInput) validate() error {
	if in.ProductType == "" {
		return fmt.Errorf("product type is required")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("quantity must be a positive number")
	}
	if in.DeliveryDate == "" {
		return fmt.Errorf("delivery date is required")
	}
	return nil
}

// CreateOrder persists a new order in pending-design and triggers the design
// board sync. The returned ID is valid regardless of the sync's outcome.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput, userID string) (string, error) {
	if err := input.validate(); err != nil {
		return "", err
	}

	now := s.now()
	order := &domain.Order{
		OrderNumber:          input.OrderNumber,
		CustomerName:         input.CustomerName,
		CustomerPhone:        input.CustomerPhone,
		OrderType:            input.OrderType,
		ProductType:          input.ProductType,
		ProductConfig:        input.ProductConfig,
		Quantity:             input.Quantity,
		DeliveryDate:         input.DeliveryDate,
		SalesNotes:           input.SalesNotes,
		AssignedDesignerID:   input.AssignedDesignerID,
		AssignedDesignerName: input.AssignedDesignerName,
		CustomFields:         stampCustomFields(input.CustomFields, userID, now),
		CreatedBy:            userID,
		CreatedAt:            now,
		Status:               domain.StatusPendingDesign,
		SentToDesignAt:       &now,
	}

	id, err := s.orders.Create(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	synced := *order
	s.runAsync(func() { s.syncNewOrder(&synced) })

	return id, nil
}

// syncNewOrder pushes a freshly created order to the design board (or the
// assigned designer's personal board) and caches the returned item ID.
// Failures are logged and dropped: order creation already succeeded.
func (s *OrderService) syncNewOrder(order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	designerBoardID := ""
	if order.AssignedDesignerID != "" {
		designer, err := s.users.Get(ctx, order.AssignedDesignerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("designerId", order.AssignedDesignerID).Msg("Designer lookup failed, using default board")
		} else if designer != nil {
			designerBoardID = designer.MondayBoardID
		}
	}

	result, err := s.sync.CreateItemForOrder(ctx, order, "", designerBoardID)
	if err != nil {
		s.logger.Warn().Err(err).Str("orderId", order.ID).Msg("Monday sync failed, order was created successfully")
		return
	}
	if result.Skipped {
		s.logger.Debug().Str("orderId", order.ID).Str("reason", result.Reason).Msg("Monday sync skipped")
		return
	}

	if err := s.orders.SetMondayItemID(ctx, order.ID, result.ItemID, result.BoardID); err != nil {
		s.logger.Warn().Err(err).Str("orderId", order.ID).Msg("Failed to store monday item id")
	}
}

// StartDesignWork records the acting designer and the start timestamp. The
// status does not change, and repeating the call overwrites the timestamp;
// callers gate on UI state.
func (s *OrderService) StartDesignWork(ctx context.Context, orderID, userID string) error {
	if err := s.orders.StartDesign(ctx, orderID, userID, s.now()); err != nil {
		return fmt.Errorf("failed to start design work: %w", err)
	}
	return nil
}

func validateDesign(design domain.DesignUpdate) error {
	switch {
	case design.DesignFileURL == "":
		return fmt.Errorf("design file is required")
	case design.Dimensions == "":
		return fmt.Errorf("dimensions are required")
	case design.Colors == "":
		return fmt.Errorf("colors are required")
	case design.Material == "":
		return fmt.Errorf("material is required")
	case design.Finishing == "":
		return fmt.Errorf("finishing is required")
	}
	if design.ThermalSubType != "" && design.PrintingType != domain.PrintingThermal {
		return fmt.Errorf("thermal sub-type only applies to thermal printing")
	}
	return nil
}

// CompleteDesign merges design attributes into the order, advances it to
// pending-production and triggers the production board sync.
func (s *OrderService) CompleteDesign(ctx context.Context, orderID string, design domain.DesignUpdate, userID string) error {
	if err := validateDesign(design); err != nil {
		return err
	}

	now := s.now()
	design.CustomFields = stampCustomFields(design.CustomFields, userID, now)

	if err := s.orders.CompleteDesign(ctx, orderID, design, userID, now); err != nil {
		return fmt.Errorf("failed to update order with design: %w", err)
	}

	s.runAsync(func() { s.syncProductionBoard(orderID) })
	return nil
}

// syncProductionBoard creates the production board item for an order that just
// finished design. Skips when the order already carries a production item so
// the creation runs at most once.
func (s *OrderService) syncProductionBoard(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil || order == nil {
		s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Failed to load order for production sync")
		return
	}
	if order.MondayProductionItemID != "" {
		return
	}

	result, err := s.sync.CreateItemForOrder(ctx, order, "", "")
	if err != nil {
		s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Monday production sync failed, order was updated successfully")
		return
	}
	if result.Skipped {
		s.logger.Debug().Str("orderId", orderID).Str("reason", result.Reason).Msg("Monday production sync skipped")
		return
	}

	if err := s.orders.SetMondayProductionItemID(ctx, orderID, result.ItemID, result.BoardID); err != nil {
		s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Failed to store monday production item id")
	}
}

// UpdateOrder applies a generic business-data edit. Status and workflow
// timestamps are out of scope for this path.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch) error {
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return fmt.Errorf("quantity must be a positive number")
	}
	if err := s.orders.UpdateBusinessData(ctx, orderID, patch); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// UpdateOrderStatus applies a production status change and pushes the new
// status to every Monday item the order is correlated with, each
// independently and without blocking the caller.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status, productionNotes, userID string) error {
	if status != domain.StatusInProduction && status != domain.StatusCompleted {
		return fmt.Errorf("invalid production status: %s", status)
	}

	if err := s.orders.SetStatus(ctx, orderID, status, productionNotes, userID, s.now()); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	s.runAsync(func() { s.pushStatusToMonday(orderID, status) })
	return nil
}

func (s *OrderService) pushStatusToMonday(orderID string, status domain.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil || order == nil {
		s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Failed to load order for status push")
		return
	}

	settings, err := s.sync.settingsRepo.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load monday settings for status push")
		return
	}

	// Each push targets the board the item was created on. Orders correlated
	// before the board was recorded fall back to the configured defaults.
	if order.MondayItemID != "" {
		boardID := order.MondayBoardID
		if boardID == "" {
			boardID = settings.DesignBoardID
		}
		if _, err := s.sync.PushStatus(ctx, order.MondayItemID, boardID, status); err != nil {
			s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Failed to update Monday design board status")
		}
	}
	if order.MondayProductionItemID != "" {
		boardID := order.MondayProductionBoardID
		if boardID == "" {
			boardID = settings.ProductionBoardID
		}
		if _, err := s.sync.PushStatus(ctx, order.MondayProductionItemID, boardID, status); err != nil {
			s.logger.Warn().Err(err).Str("orderId", orderID).Msg("Failed to update Monday production board status")
		}
	}
}

// AddOrderNote posts a comment on the order's Monday item, preferring the
// design item over the production one. Unlike the sync paths this runs
// synchronously: the caller asked for the note explicitly and wants to know
// whether it landed.
func (s *OrderService) AddOrderNote(ctx context.Context, orderID, note string) error {
	if note == "" {
		return fmt.Errorf("note is required")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}

	itemID := order.MondayItemID
	if itemID == "" {
		itemID = order.MondayProductionItemID
	}
	if itemID == "" {
		return fmt.Errorf("order is not linked to a monday item")
	}

	if err := s.sync.AddOrderNote(ctx, itemID, note); err != nil {
		return fmt.Errorf("failed to add monday note: %w", err)
	}
	return nil
}

// ApplySyncedStatus is the reverse-sync entry point: a status change received
// from Monday is written directly, bypassing the outbound dispatcher.
func (s *OrderService) ApplySyncedStatus(ctx context.Context, orderID string, status domain.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	if err := s.orders.ApplySyncedStatus(ctx, orderID, status, s.now()); err != nil {
		return fmt.Errorf("failed to apply synced status: %w", err)
	}
	return nil
}

// SubItemInput carries the data for a new sub-item.
type SubItemInput struct {
	ProductType   string                 `json:"product_type"`
	ProductConfig map[string]interface{} `json:"product_config,omitempty"`
	Quantity      int                    `json:"quantity"`
	SalesNotes    string                 `json:"sales_notes,omitempty"`
	Modifications string                 `json:"modifications,omitempty"`
	FileLinks     []string               `json:"file_links,omitempty"`
}

// CreateSubItem appends a child work unit to a parent order. The parent is
// marked as a parent order and its counter incremented atomically.
func (s *OrderService) CreateSubItem(ctx context.Context, parentOrderID string, input SubItemInput, userID string) (string, error) {
	if input.ProductType == "" {
		return "", fmt.Errorf("product type is required")
	}
	if input.Quantity <= 0 {
		return "", fmt.Errorf("quantity must be a positive number")
	}

	sub := &domain.SubItem{
		ParentOrderID: parentOrderID,
		ProductType:   input.ProductType,
		ProductConfig: input.ProductConfig,
		Quantity:      input.Quantity,
		SalesNotes:    input.SalesNotes,
		Modifications: input.Modifications,
		FileLinks:     input.FileLinks,
		Status:        domain.StatusPendingDesign,
		CreatedBy:     userID,
		CreatedAt:     s.now(),
	}

	id, err := s.orders.CreateSubItem(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("failed to create sub-item: %w", err)
	}
	return id, nil
}

// ListSubItems returns the sub-items of an order, newest first.
func (s *OrderService) ListSubItems(ctx context.Context, parentOrderID string) ([]*domain.SubItem, error) {
	return s.orders.ListSubItems(ctx, parentOrderID)
}

// UpdateSubItemWithDesign merges design data into a sub-item and advances it
// to pending-production.
func (s *OrderService) UpdateSubItemWithDesign(ctx context.Context, parentOrderID, subItemID string, design domain.SubItemDesignUpdate, userID string) error {
	if err := s.orders.UpdateSubItemDesign(ctx, parentOrderID, subItemID, design, userID, s.now()); err != nil {
		return fmt.Errorf("failed to update sub-item: %w", err)
	}
	return nil
}

// UpdateSubItemStatus sets a sub-item's status. Sub-item lifecycles are
// independent of the parent order's status.
func (s *OrderService) UpdateSubItemStatus(ctx context.Context, parentOrderID, subItemID string, status domain.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	if err := s.orders.SetSubItemStatus(ctx, parentOrderID, subItemID, status, s.now()); err != nil {
		return fmt.Errorf("failed to update sub-item status: %w", err)
	}
	return nil
}

// GetOrder retrieves one order; (nil, nil) when not found.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// OrdersByStatus lists orders in one lifecycle state, newest first.
func (s *OrderService) OrdersByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	return s.orders.ListByStatus(ctx, status)
}

// OrdersByCreator lists orders created by one user, newest first.
func (s *OrderService) OrdersByCreator(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByCreator(ctx, userID)
}

// AllOrders lists every order, newest first.
func (s *OrderService) AllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// FindOrderByNumber resolves an order by its business number. An empty result
// is (nil, nil), a valid "not found" outcome used by the attach-sub-item flow.
func (s *OrderService) FindOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.orders.FindByNumber(ctx, orderNumber)
}

// FindOrderByMondayItem resolves an order by external item ID, design board
// correlation first.
func (s *OrderService) FindOrderByMondayItem(ctx context.Context, itemID string) (*domain.Order, error) {
	return s.orders.FindByMondayItemID(ctx, itemID)
}

// SubscribeOrders starts a live query delivering the full matching result set
// on every change. The returned func cancels the subscription.
func (s *OrderService) SubscribeOrders(ctx context.Context, status *domain.Status, fn func([]*domain.Order)) (func(), error) {
	return s.orders.Subscribe(ctx, status, fn)
}

// SubscribeSubItems starts a live query over one order's sub-items.
func (s *OrderService) SubscribeSubItems(ctx context.Context, parentOrderID string, fn func([]*domain.SubItem)) (func(), error) {
	return s.orders.SubscribeSubItems(ctx, parentOrderID, fn)
}

// stampCustomFields fills in audit data on custom fields supplied by callers.
func stampCustomFields(fields []domain.CustomField, userID string, at time.Time) []domain.CustomField {
	for i := range fields {
		if fields[i].AddedBy == "" {
			fields[i].AddedBy = userID
		}
		if fields[i].AddedAt.IsZero() {
			fields[i].AddedAt = at
		}
		if fields[i].Type == "" {
			fields[i].Type = domain.FieldText
		}
	}
	return fields
}
