package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printflow-core-monday-layer/internal/domain"
)

func validCreateInput() CreateOrderInput {
	return CreateOrderInput{
		OrderNumber:  "ORD-100",
		ProductType:  "belts",
		Quantity:     10,
		DeliveryDate: "2026-04-01",
	}
}

func TestCreateOrderStartsInPendingDesign(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.StatusPendingDesign, order.Status)
	assert.Equal(t, "sales-1", order.CreatedBy)
	assert.Equal(t, fixedNow, order.CreatedAt)
	require.NotNil(t, order.SentToDesignAt)
	assert.Equal(t, fixedNow, *order.SentToDesignAt)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo(), enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"missing product type", func(in *CreateOrderInput) { in.ProductType = "" }},
		{"zero quantity", func(in *CreateOrderInput) { in.Quantity = 0 }},
		{"negative quantity", func(in *CreateOrderInput) { in.Quantity = -5 }},
		{"missing delivery date", func(in *CreateOrderInput) { in.DeliveryDate = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)
			_, err := svc.CreateOrder(context.Background(), input, "sales-1")
			assert.Error(t, err)
		})
	}
}

func TestCreateOrderSyncsToDesignBoard(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	require.Len(t, client.created, 1)
	assert.Equal(t, "board-design", client.created[0].BoardID)
	assert.Equal(t, "ORD-100 - Belts", client.created[0].ItemName)
	assert.Equal(t, "new", client.created[0].ColumnValues["status"])

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "item-1", order.MondayItemID)
}

func TestCreateOrderPrefersDesignerPersonalBoard(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	users := &fakeUserRepo{users: map[string]*domain.User{
		"designer-1": {ID: "designer-1", Name: "Aya", Role: domain.RoleDesign, MondayBoardID: "board-personal"},
	}}
	svc := newTestOrderService(repo, enabledSettings(), users, client)

	input := validCreateInput()
	input.AssignedDesignerID = "designer-1"
	_, err := svc.CreateOrder(context.Background(), input, "sales-1")
	require.NoError(t, err)

	require.Len(t, client.created, 1)
	assert.Equal(t, "board-personal", client.created[0].BoardID)
}

func TestCreateOrderSurvivesSyncFailure(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{createErr: fmt.Errorf("monday down")}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Empty(t, order.MondayItemID)
}

func TestCreateOrderSkipsSyncWhenDisabled(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	settings := &fakeSettingsRepo{settings: domain.MondaySettings{Enabled: false}}
	svc := newTestOrderService(repo, settings, &fakeUserRepo{}, client)

	_, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)
	assert.Empty(t, client.created)
}

func validDesign() domain.DesignUpdate {
	return domain.DesignUpdate{
		DesignFileURL: "https://files.example.com/design.pdf",
		Dimensions:    "20x30",
		Colors:        "CMYK",
		Material:      "satin",
		Finishing:     "matte",
	}
}

func TestCompleteDesignAdvancesToPendingProduction(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	design := validDesign()
	design.CustomFields = []domain.CustomField{
		{ID: "foil", Name: "Foil", Type: domain.FieldSelect, SelectValue: "gold", AddedByRole: domain.RoleDesign},
	}
	require.NoError(t, svc.CompleteDesign(context.Background(), id, design, "designer-1"))

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingProduction, order.Status)
	assert.Equal(t, "designer-1", order.DesignedBy)
	require.NotNil(t, order.DesignedAt)
	require.NotNil(t, order.SentToProductionAt)
	assert.Equal(t, fixedNow, *order.SentToProductionAt)

	require.Len(t, order.CustomFields, 1)
	assert.Equal(t, "designer-1", order.CustomFields[0].AddedBy)
	assert.Equal(t, fixedNow, order.CustomFields[0].AddedAt)

	// Second item on the production board, correlated once.
	require.Len(t, client.created, 2)
	assert.Equal(t, "board-production", client.created[1].BoardID)
	assert.Equal(t, "item-2", order.MondayProductionItemID)
}

func TestCompleteDesignIsIdempotentForProductionSync(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteDesign(context.Background(), id, validDesign(), "designer-1"))
	require.NoError(t, svc.CompleteDesign(context.Background(), id, validDesign(), "designer-1"))

	// Design item plus a single production item.
	assert.Len(t, client.created, 2)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "item-2", order.MondayProductionItemID)
}

func TestCompleteDesignValidation(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo(), enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	tests := []struct {
		name   string
		mutate func(*domain.DesignUpdate)
	}{
		{"missing file", func(d *domain.DesignUpdate) { d.DesignFileURL = "" }},
		{"missing dimensions", func(d *domain.DesignUpdate) { d.Dimensions = "" }},
		{"missing colors", func(d *domain.DesignUpdate) { d.Colors = "" }},
		{"missing material", func(d *domain.DesignUpdate) { d.Material = "" }},
		{"missing finishing", func(d *domain.DesignUpdate) { d.Finishing = "" }},
		{"thermal sub-type without thermal printing", func(d *domain.DesignUpdate) {
			d.PrintingType = domain.PrintingSilkscreen
			d.ThermalSubType = domain.ThermalSugaris
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			design := validDesign()
			tt.mutate(&design)
			assert.Error(t, svc.CompleteDesign(context.Background(), "order-x", design, "designer-1"))
		})
	}
}

func TestUpdateOrderStatusRejectsNonProductionStates(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo(), enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	err := svc.UpdateOrderStatus(context.Background(), "order-x", domain.StatusPendingDesign, "", "prod-1")
	assert.Error(t, err)
	err = svc.UpdateOrderStatus(context.Background(), "order-x", domain.Status("bogus"), "", "prod-1")
	assert.Error(t, err)
}

func TestUpdateOrderStatusPushesToBothBoards(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)
	require.NoError(t, svc.CompleteDesign(context.Background(), id, validDesign(), "designer-1"))

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, domain.StatusCompleted, "shipped", "prod-1"))

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.Equal(t, "prod-1", order.CompletedBy)
	assert.Equal(t, "shipped", order.ProductionNotes)
	require.NotNil(t, order.CompletedAt)

	require.Len(t, client.statusUpdates, 2)
	assert.Equal(t, statusUpdate{BoardID: "board-design", ItemID: order.MondayItemID, Label: "done"}, client.statusUpdates[0])
	assert.Equal(t, statusUpdate{BoardID: "board-production", ItemID: order.MondayProductionItemID, Label: "done"}, client.statusUpdates[1])
}

func TestSentToDesignAtStableAcrossUnrelatedUpdates(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	logger := zerolog.Nop()
	current := fixedNow
	svc := NewOrderServiceWithOptions(repo, &fakeUserRepo{}, NewMondaySyncService(enabledSettings(), client, logger), logger,
		func() time.Time { return current },
		func(fn func()) { fn() },
	)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	current = fixedNow.Add(48 * time.Hour)

	notes := "rush order"
	require.NoError(t, svc.UpdateOrder(context.Background(), id, domain.OrderPatch{SalesNotes: &notes}))
	require.NoError(t, svc.CompleteDesign(context.Background(), id, validDesign(), "designer-1"))
	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, domain.StatusCompleted, "", "prod-1"))

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)

	require.NotNil(t, order.SentToDesignAt)
	assert.Equal(t, fixedNow, *order.SentToDesignAt)

	// The later workflow timestamps moved with the clock.
	require.NotNil(t, order.SentToProductionAt)
	assert.Equal(t, current, *order.SentToProductionAt)
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, current, *order.CompletedAt)
}

func TestStatusPushTargetsCreationBoard(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	users := &fakeUserRepo{users: map[string]*domain.User{
		"designer-1": {ID: "designer-1", Name: "Aya", Role: domain.RoleDesign, MondayBoardID: "board-personal"},
	}}
	svc := newTestOrderService(repo, enabledSettings(), users, client)

	input := validCreateInput()
	input.AssignedDesignerID = "designer-1"
	id, err := svc.CreateOrder(context.Background(), input, "sales-1")
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "board-personal", order.MondayBoardID)

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), id, domain.StatusInProduction, "", "prod-1"))

	// The push targets the personal board the item lives on, not the
	// configured design board.
	require.Len(t, client.statusUpdates, 1)
	assert.Equal(t, statusUpdate{BoardID: "board-personal", ItemID: order.MondayItemID, Label: "working on it"}, client.statusUpdates[0])
}

func TestAddOrderNotePostsToMondayItem(t *testing.T) {
	repo := newFakeOrderRepo()
	client := &fakeMondayClient{}
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, client)

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	require.NoError(t, svc.AddOrderNote(context.Background(), id, "customer approved the mock-up"))

	require.Len(t, client.notes, 1)
	assert.Equal(t, "customer approved the mock-up", client.notes[0])
}

func TestAddOrderNoteRequiresLinkedItem(t *testing.T) {
	repo := newFakeOrderRepo()
	settings := &fakeSettingsRepo{settings: domain.MondaySettings{Enabled: false}}
	svc := newTestOrderService(repo, settings, &fakeUserRepo{}, &fakeMondayClient{})

	// Sync disabled, so the order never got a Monday item.
	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	assert.Error(t, svc.AddOrderNote(context.Background(), id, "note"))
	assert.Error(t, svc.AddOrderNote(context.Background(), id, ""))
	assert.Error(t, svc.AddOrderNote(context.Background(), "missing-order", "note"))
}

func TestApplySyncedStatusCreditsSyncActor(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	id, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	require.NoError(t, svc.ApplySyncedStatus(context.Background(), id, domain.StatusCompleted))

	order, err := svc.GetOrder(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.Equal(t, domain.SyncActor, order.CompletedBy)
	require.NotNil(t, order.LastSyncedFromMonday)
	assert.Equal(t, fixedNow, *order.LastSyncedFromMonday)
}

func TestUpdateOrderRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo(), enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	zero := 0
	err := svc.UpdateOrder(context.Background(), "order-x", domain.OrderPatch{Quantity: &zero})
	assert.Error(t, err)
}

func TestConcurrentSubItemCreation(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	parentID, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateSubItem(context.Background(), parentID, SubItemInput{
				ProductType: "ribbons",
				Quantity:    i + 1,
			}, "sales-1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	parent, err := svc.GetOrder(context.Background(), parentID)
	require.NoError(t, err)
	assert.True(t, parent.IsParentOrder)
	assert.Equal(t, workers, parent.SubitemsCount)

	subs, err := svc.ListSubItems(context.Background(), parentID)
	require.NoError(t, err)
	assert.Len(t, subs, workers)
}

func TestSubItemLifecycleIndependentOfParent(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	parentID, err := svc.CreateOrder(context.Background(), validCreateInput(), "sales-1")
	require.NoError(t, err)

	subID, err := svc.CreateSubItem(context.Background(), parentID, SubItemInput{ProductType: "stickers", Quantity: 3}, "sales-1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateSubItemWithDesign(context.Background(), parentID, subID, domain.SubItemDesignUpdate{
		DesignFileURL: "https://files.example.com/sub.pdf",
	}, "designer-1"))
	require.NoError(t, svc.UpdateSubItemStatus(context.Background(), parentID, subID, domain.StatusCompleted))

	subs, err := svc.ListSubItems(context.Background(), parentID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.StatusCompleted, subs[0].Status)
	require.NotNil(t, subs[0].CompletedAt)

	parent, err := svc.GetOrder(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingDesign, parent.Status)
}

func TestOrdersByStatusRejectsUnknownStatus(t *testing.T) {
	svc := newTestOrderService(newFakeOrderRepo(), enabledSettings(), &fakeUserRepo{}, &fakeMondayClient{})

	_, err := svc.OrdersByStatus(context.Background(), domain.Status("archived"))
	assert.Error(t, err)
}
