package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"
)

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// fakeOrderRepo is an in-memory OrderRepository mirroring the Mongo
// implementation's semantics: (nil, nil) for not found, at-most-once
// correlation writes and an atomic sub-item counter.
type fakeOrderRepo struct {
	mu       sync.Mutex
	seq      int
	orders   map[string]*domain.Order
	subItems map[string]*domain.SubItem
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[string]*domain.Order),
		subItems: make(map[string]*domain.SubItem),
	}
}

func (f *fakeOrderRepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == "" {
		order.ID = f.nextID("order")
	}
	copied := *order
	f.orders[order.ID] = &copied
	return order.ID, nil
}

func (f *fakeOrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByMondayItemID(ctx context.Context, itemID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.MondayItemID == itemID {
			copied := *order
			return &copied, nil
		}
	}
	for _, order := range f.orders {
		if order.MondayProductionItemID == itemID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) list(match func(*domain.Order) bool) []*domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Order
	for _, order := range f.orders {
		if match(order) {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out
}

func (f *fakeOrderRepo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return f.list(func(o *domain.Order) bool { return o.Status == status }), nil
}

func (f *fakeOrderRepo) ListByCreator(ctx context.Context, userID string) ([]*domain.Order, error) {
	return f.list(func(o *domain.Order) bool { return o.CreatedBy == userID }), nil
}

func (f *fakeOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return f.list(func(*domain.Order) bool { return true }), nil
}

func (f *fakeOrderRepo) update(id string, apply func(*domain.Order)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %s", id)
	}
	apply(order)
	return nil
}

func (f *fakeOrderRepo) StartDesign(ctx context.Context, id, userID string, at time.Time) error {
	return f.update(id, func(o *domain.Order) {
		o.DesignedBy = userID
		o.DesignStartedAt = &at
	})
}

func (f *fakeOrderRepo) CompleteDesign(ctx context.Context, id string, design domain.DesignUpdate, userID string, at time.Time) error {
	return f.update(id, func(o *domain.Order) {
		o.DesignFileURL = design.DesignFileURL
		o.Dimensions = design.Dimensions
		o.Colors = design.Colors
		o.Material = design.Material
		o.Finishing = design.Finishing
		if design.DesignNotes != "" {
			o.DesignNotes = design.DesignNotes
		}
		if design.PrintingType != "" {
			o.PrintingType = design.PrintingType
		}
		if design.PrintingType == domain.PrintingThermal && design.ThermalSubType != "" {
			o.ThermalSubType = design.ThermalSubType
		}
		o.CustomFields = append(o.CustomFields, design.CustomFields...)
		o.DesignedBy = userID
		o.DesignedAt = &at
		o.Status = domain.StatusPendingProduction
		o.SentToProductionAt = &at
	})
}

func (f *fakeOrderRepo) UpdateBusinessData(ctx context.Context, id string, patch domain.OrderPatch) error {
	return f.update(id, func(o *domain.Order) {
		if patch.OrderNumber != nil {
			o.OrderNumber = *patch.OrderNumber
		}
		if patch.ProductType != nil {
			o.ProductType = *patch.ProductType
		}
		if patch.ProductConfig != nil {
			o.ProductConfig = patch.ProductConfig
		}
		if patch.Quantity != nil {
			o.Quantity = *patch.Quantity
		}
		if patch.DeliveryDate != nil {
			o.DeliveryDate = *patch.DeliveryDate
		}
		if patch.SalesNotes != nil {
			o.SalesNotes = *patch.SalesNotes
		}
		if patch.DesignNotes != nil {
			o.DesignNotes = *patch.DesignNotes
		}
		if patch.CustomFields != nil {
			o.CustomFields = patch.CustomFields
		}
		if patch.AssignedDesignerID != nil {
			o.AssignedDesignerID = *patch.AssignedDesignerID
		}
		if patch.AssignedDesignerName != nil {
			o.AssignedDesignerName = *patch.AssignedDesignerName
		}
	})
}

func (f *fakeOrderRepo) SetStatus(ctx context.Context, id string, status domain.Status, productionNotes, completedBy string, at time.Time) error {
	return f.update(id, func(o *domain.Order) {
		o.Status = status
		if productionNotes != "" {
			o.ProductionNotes = productionNotes
		}
		if status == domain.StatusCompleted && completedBy != "" {
			o.CompletedBy = completedBy
			o.CompletedAt = &at
		}
	})
}

func (f *fakeOrderRepo) ApplySyncedStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	return f.update(id, func(o *domain.Order) {
		o.Status = status
		o.LastSyncedFromMonday = &at
		if status == domain.StatusCompleted {
			o.CompletedAt = &at
			o.CompletedBy = domain.SyncActor
		}
	})
}

func (f *fakeOrderRepo) SetMondayItemID(ctx context.Context, id, itemID, boardID string) error {
	return f.update(id, func(o *domain.Order) {
		if o.MondayItemID == "" {
			o.MondayItemID = itemID
			o.MondayBoardID = boardID
		}
	})
}

func (f *fakeOrderRepo) SetMondayProductionItemID(ctx context.Context, id, itemID, boardID string) error {
	return f.update(id, func(o *domain.Order) {
		if o.MondayProductionItemID == "" {
			o.MondayProductionItemID = itemID
			o.MondayProductionBoardID = boardID
		}
	})
}

func (f *fakeOrderRepo) CreateSubItem(ctx context.Context, sub *domain.SubItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.orders[sub.ParentOrderID]
	if !ok {
		return "", fmt.Errorf("parent order not found: %s", sub.ParentOrderID)
	}
	if sub.ID == "" {
		sub.ID = f.nextID("sub")
	}
	copied := *sub
	f.subItems[sub.ID] = &copied
	parent.IsParentOrder = true
	parent.SubitemsCount++
	return sub.ID, nil
}

func (f *fakeOrderRepo) ListSubItems(ctx context.Context, parentOrderID string) ([]*domain.SubItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SubItem
	for _, sub := range f.subItems {
		if sub.ParentOrderID == parentOrderID {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) updateSubItem(parentOrderID, subItemID string, apply func(*domain.SubItem)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subItems[subItemID]
	if !ok || sub.ParentOrderID != parentOrderID {
		return fmt.Errorf("sub-item not found: %s", subItemID)
	}
	apply(sub)
	return nil
}

func (f *fakeOrderRepo) UpdateSubItemDesign(ctx context.Context, parentOrderID, subItemID string, design domain.SubItemDesignUpdate, userID string, at time.Time) error {
	return f.updateSubItem(parentOrderID, subItemID, func(s *domain.SubItem) {
		if design.DesignFileURL != "" {
			s.DesignFileURL = design.DesignFileURL
		}
		if design.DesignNotes != "" {
			s.DesignNotes = design.DesignNotes
		}
		if design.Modifications != "" {
			s.Modifications = design.Modifications
		}
		if len(design.FileLinks) > 0 {
			s.FileLinks = design.FileLinks
		}
		s.DesignedBy = userID
		s.DesignedAt = &at
		s.Status = domain.StatusPendingProduction
	})
}

func (f *fakeOrderRepo) SetSubItemStatus(ctx context.Context, parentOrderID, subItemID string, status domain.Status, at time.Time) error {
	return f.updateSubItem(parentOrderID, subItemID, func(s *domain.SubItem) {
		s.Status = status
		if status == domain.StatusCompleted {
			s.CompletedAt = &at
		}
	})
}

func (f *fakeOrderRepo) Subscribe(ctx context.Context, status *domain.Status, fn func([]*domain.Order)) (func(), error) {
	orders, _ := f.ListAll(ctx)
	fn(orders)
	return func() {}, nil
}

func (f *fakeOrderRepo) SubscribeSubItems(ctx context.Context, parentOrderID string, fn func([]*domain.SubItem)) (func(), error) {
	items, _ := f.ListSubItems(ctx, parentOrderID)
	fn(items)
	return func() {}, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings domain.MondaySettings
	getErr   error
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*domain.MondaySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	copied := f.settings
	return &copied, nil
}

func (f *fakeSettingsRepo) Save(ctx context.Context, settings *domain.MondaySettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = *settings
	return nil
}

func enabledSettings() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: domain.MondaySettings{
		Enabled:           true,
		APIToken:          "token-1",
		DesignBoardID:     "board-design",
		ProductionBoardID: "board-production",
	}}
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	if f.users == nil {
		return nil, nil
	}
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

type createdItem struct {
	Token        string
	BoardID      string
	ItemName     string
	ColumnValues map[string]interface{}
}

type statusUpdate struct {
	BoardID string
	ItemID  string
	Label   string
}

type fakeMondayClient struct {
	mu            sync.Mutex
	seq           int
	createErr     error
	created       []createdItem
	statusUpdates []statusUpdate
	notes         []string
	account       *ports.MondayAccount
	board         *ports.MondayBoard
	columns       []ports.MondayColumn
	testErr       error
}

func (f *fakeMondayClient) CreateItem(ctx context.Context, token, boardID, itemName string, columnValues map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	f.created = append(f.created, createdItem{Token: token, BoardID: boardID, ItemName: itemName, ColumnValues: columnValues})
	return fmt.Sprintf("item-%d", f.seq), nil
}

func (f *fakeMondayClient) UpdateItemStatus(ctx context.Context, token, boardID, itemID, statusLabel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, statusUpdate{BoardID: boardID, ItemID: itemID, Label: statusLabel})
	return nil
}

func (f *fakeMondayClient) AddNote(ctx context.Context, token, itemID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, body)
	return nil
}

func (f *fakeMondayClient) TestConnection(ctx context.Context, token, boardID string) (*ports.MondayAccount, *ports.MondayBoard, error) {
	if f.testErr != nil {
		return nil, nil, f.testErr
	}
	return f.account, f.board, nil
}

func (f *fakeMondayClient) GetBoardColumns(ctx context.Context, token, boardID string) ([]ports.MondayColumn, error) {
	return f.columns, nil
}

// newTestOrderService wires the engine with inline async execution and a
// fixed clock so tests see deterministic sync side effects.
func newTestOrderService(repo *fakeOrderRepo, settings *fakeSettingsRepo, users *fakeUserRepo, client *fakeMondayClient) *OrderService {
	logger := zerolog.Nop()
	syncService := NewMondaySyncService(settings, client, logger)
	return NewOrderServiceWithOptions(repo, users, syncService, logger,
		func() time.Time { return fixedNow },
		func(fn func()) { fn() },
	)
}
