package webhook_handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/ports"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// stubOrderRepo backs the order engine for handler tests. Monday sync is
// disabled in these tests, so the external client is never reached.
type stubOrderRepo struct {
	mu     sync.Mutex
	seq    int
	orders map[string]*domain.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (s *stubOrderRepo) add(order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.orders[order.ID] = &copied
}

func (s *stubOrderRepo) Create(ctx context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	order.ID = fmt.Sprintf("order-%d", s.seq)
	copied := *order
	s.orders[order.ID] = &copied
	return order.ID, nil
}

func (s *stubOrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubOrderRepo) FindByMondayItemID(ctx context.Context, itemID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.MondayItemID == itemID {
			copied := *order
			return &copied, nil
		}
	}
	for _, order := range s.orders {
		if order.MondayProductionItemID == itemID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubOrderRepo) all() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, order := range s.orders {
		copied := *order
		out = append(out, &copied)
	}
	return out
}

func (s *stubOrderRepo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListByCreator(ctx context.Context, userID string) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.all(), nil
}

func (s *stubOrderRepo) StartDesign(ctx context.Context, id, userID string, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) CompleteDesign(ctx context.Context, id string, design domain.DesignUpdate, userID string, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) UpdateBusinessData(ctx context.Context, id string, patch domain.OrderPatch) error {
	return nil
}

func (s *stubOrderRepo) SetStatus(ctx context.Context, id string, status domain.Status, productionNotes, completedBy string, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) ApplySyncedStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %s", id)
	}
	order.Status = status
	order.LastSyncedFromMonday = &at
	if status == domain.StatusCompleted {
		order.CompletedAt = &at
		order.CompletedBy = domain.SyncActor
	}
	return nil
}

func (s *stubOrderRepo) SetMondayItemID(ctx context.Context, id, itemID, boardID string) error {
	return nil
}

func (s *stubOrderRepo) SetMondayProductionItemID(ctx context.Context, id, itemID, boardID string) error {
	return nil
}

func (s *stubOrderRepo) CreateSubItem(ctx context.Context, sub *domain.SubItem) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (s *stubOrderRepo) ListSubItems(ctx context.Context, parentOrderID string) ([]*domain.SubItem, error) {
	return nil, nil
}

func (s *stubOrderRepo) UpdateSubItemDesign(ctx context.Context, parentOrderID, subItemID string, design domain.SubItemDesignUpdate, userID string, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) SetSubItemStatus(ctx context.Context, parentOrderID, subItemID string, status domain.Status, at time.Time) error {
	return nil
}

func (s *stubOrderRepo) Subscribe(ctx context.Context, status *domain.Status, fn func([]*domain.Order)) (func(), error) {
	return func() {}, nil
}

func (s *stubOrderRepo) SubscribeSubItems(ctx context.Context, parentOrderID string, fn func([]*domain.SubItem)) (func(), error) {
	return func() {}, nil
}

type stubSettingsRepo struct {
	mu       sync.Mutex
	settings domain.MondaySettings
}

func (s *stubSettingsRepo) Get(ctx context.Context) (*domain.MondaySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := s.settings
	return &copied, nil
}

func (s *stubSettingsRepo) Save(ctx context.Context, settings *domain.MondaySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = *settings
	return nil
}

type stubUserRepo struct{}

func (stubUserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}

// recordLogRepo captures audit log writes for assertions.
type recordLogRepo struct {
	mu     sync.Mutex
	intake []*domain.WebhookLog
	monday []*domain.MondayWebhookLog
}

func (r *recordLogRepo) LogIntake(ctx context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intake = append(r.intake, log)
	return nil
}

func (r *recordLogRepo) LogMondaySync(ctx context.Context, log *domain.MondayWebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monday = append(r.monday, log)
	return nil
}

var _ ports.WebhookLogRepository = (*recordLogRepo)(nil)

// newTestOrderService builds an engine over the stub repo with sync disabled
// and deterministic time.
func newTestOrderService(repo *stubOrderRepo, settings *stubSettingsRepo) *application.OrderService {
	logger := zerolog.Nop()
	syncService := application.NewMondaySyncService(settings, nil, logger)
	return application.NewOrderServiceWithOptions(repo, stubUserRepo{}, syncService, logger,
		func() time.Time { return testNow },
		func(fn func()) { fn() },
	)
}
