package repository

import (
	"context"
	"fmt"
	"time"

	"printflow-core-monday-layer/internal/domain"
	"printflow-core-monday-layer/internal/infrastructure/pubsub"
	"printflow-core-monday-layer/internal/ports"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderRepository implements OrderRepository using MongoDB. Document IDs
// are hex-encoded ObjectIDs stored as strings so domain types stay free of
// driver types. Sub-items live in their own collection keyed by parentOrderId.
type MongoOrderRepository struct {
	ordersCollection   *mongo.Collection
	subitemsCollection *mongo.Collection
	notifier           *pubsub.OrderPubSub
	logger             zerolog.Logger
}

// NewMongoOrderRepository creates a new MongoDB order repository.
func NewMongoOrderRepository(db *mongo.Database, notifier *pubsub.OrderPubSub, logger zerolog.Logger) ports.OrderRepository {
	return &MongoOrderRepository{
		ordersCollection:   db.Collection("orders"),
		subitemsCollection: db.Collection("order_subitems"),
		notifier:           notifier,
		logger:             logger,
	}
}

func (r *MongoOrderRepository) notify(orderID, parentID string) {
	if r.notifier != nil {
		r.notifier.Publish(pubsub.OrderChange{OrderID: orderID, ParentOrderID: parentID})
	}
}

// Create inserts a new order and returns its generated ID.
func (r *MongoOrderRepository) Create(ctx context.Context, order *domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = primitive.NewObjectID().Hex()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	if _, err := r.ordersCollection.InsertOne(ctx, order); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}

	r.notify(order.ID, "")
	return order.ID, nil
}

// Get retrieves an order by ID. Returns (nil, nil) when not found.
func (r *MongoOrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.ordersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// FindByNumber retrieves an order by its business order number.
func (r *MongoOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	err := r.ordersCollection.FindOne(ctx, bson.M{"orderNumber": orderNumber}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}
	return &order, nil
}

// FindByMondayItemID resolves an order by external item ID. The design-board
// correlation field is checked before the production-board one.
func (r *MongoOrderRepository) FindByMondayItemID(ctx context.Context, itemID string) (*domain.Order, error) {
	var order domain.Order
	err := r.ordersCollection.FindOne(ctx, bson.M{"mondayItemId": itemID}).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to find order by monday item: %w", err)
	}

	err = r.ordersCollection.FindOne(ctx, bson.M{"mondayProductionItemId": itemID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by monday production item: %w", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) findOrders(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.ordersCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var order domain.Order
		if err := cursor.Decode(&order); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, &order)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

// ListByStatus retrieves orders with the given status, newest first.
func (r *MongoOrderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return r.findOrders(ctx, bson.M{"status": status})
}

// ListByCreator retrieves orders created by the given user, newest first.
func (r *MongoOrderRepository) ListByCreator(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.findOrders(ctx, bson.M{"createdBy": userID})
}

// ListAll retrieves every order, newest first.
func (r *MongoOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.findOrders(ctx, bson.M{})
}

func (r *MongoOrderRepository) updateOrder(ctx context.Context, id string, update bson.M) error {
	result, err := r.ordersCollection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	r.notify(id, "")
	return nil
}

// StartDesign records the acting designer and the design start time. There is
// no guard against re-starting: a second call overwrites designStartedAt.
func (r *MongoOrderRepository) StartDesign(ctx context.Context, id, userID string, at time.Time) error {
	return r.updateOrder(ctx, id, bson.M{"$set": bson.M{
		"designedBy":      userID,
		"designStartedAt": at,
	}})
}

// CompleteDesign merges design attributes, advances status to
// pending-production and stamps designedAt / sentToProductionAt. Custom fields
// are appended to the existing list.
func (r *MongoOrderRepository) CompleteDesign(ctx context.Context, id string, design domain.DesignUpdate, userID string, at time.Time) error {
	set := bson.M{
		"designFileUrl":      design.DesignFileURL,
		"dimensions":         design.Dimensions,
		"colors":             design.Colors,
		"material":           design.Material,
		"finishing":          design.Finishing,
		"designedBy":         userID,
		"designedAt":         at,
		"status":             domain.StatusPendingProduction,
		"sentToProductionAt": at,
	}
	// Absent optional values are stripped rather than written empty.
	if design.DesignNotes != "" {
		set["designNotes"] = design.DesignNotes
	}
	if design.PrintingType != "" {
		set["printingType"] = design.PrintingType
	}
	if design.PrintingType == domain.PrintingThermal && design.ThermalSubType != "" {
		set["thermalSubType"] = design.ThermalSubType
	}

	update := bson.M{"$set": set}
	if len(design.CustomFields) > 0 {
		update["$push"] = bson.M{"customFields": bson.M{"$each": design.CustomFields}}
	}

	return r.updateOrder(ctx, id, update)
}

// UpdateBusinessData applies a partial edit of correctable order data. Status
// and workflow timestamps are out of its reach.
func (r *MongoOrderRepository) UpdateBusinessData(ctx context.Context, id string, patch domain.OrderPatch) error {
	set := bson.M{}
	if patch.OrderNumber != nil {
		set["orderNumber"] = *patch.OrderNumber
	}
	if patch.ProductType != nil {
		set["productType"] = *patch.ProductType
	}
	if patch.ProductConfig != nil {
		set["productConfig"] = patch.ProductConfig
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.DeliveryDate != nil {
		set["deliveryDate"] = *patch.DeliveryDate
	}
	if patch.SalesNotes != nil {
		set["salesNotes"] = *patch.SalesNotes
	}
	if patch.DesignNotes != nil {
		set["designNotes"] = *patch.DesignNotes
	}
	if patch.CustomFields != nil {
		set["customFields"] = patch.CustomFields
	}
	if patch.AssignedDesignerID != nil {
		set["assignedDesignerId"] = *patch.AssignedDesignerID
	}
	if patch.AssignedDesignerName != nil {
		set["assignedDesignerName"] = *patch.AssignedDesignerName
	}
	if len(set) == 0 {
		return nil
	}
	return r.updateOrder(ctx, id, bson.M{"$set": set})
}

// SetStatus applies a production status change. Completion stamps completedBy
// and completedAt.
func (r *MongoOrderRepository) SetStatus(ctx context.Context, id string, status domain.Status, productionNotes, completedBy string, at time.Time) error {
	set := bson.M{"status": status}
	if productionNotes != "" {
		set["productionNotes"] = productionNotes
	}
	if status == domain.StatusCompleted && completedBy != "" {
		set["completedBy"] = completedBy
		set["completedAt"] = at
	}
	return r.updateOrder(ctx, id, bson.M{"$set": set})
}

// ApplySyncedStatus is the reverse-sync write path from Monday.
func (r *MongoOrderRepository) ApplySyncedStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	set := bson.M{
		"status":               status,
		"lastSyncedFromMonday": at,
	}
	if status == domain.StatusCompleted {
		set["completedAt"] = at
		set["completedBy"] = domain.SyncActor
	}
	return r.updateOrder(ctx, id, bson.M{"$set": set})
}

// SetMondayItemID stores the design-board item ID and its board. The filter
// requires the item field to be absent, so the write happens at most once per
// order.
func (r *MongoOrderRepository) SetMondayItemID(ctx context.Context, id, itemID, boardID string) error {
	return r.setCorrelationField(ctx, id, "mondayItemId", itemID, "mondayBoardId", boardID)
}

// SetMondayProductionItemID stores the production-board item ID and its
// board, at most once.
func (r *MongoOrderRepository) SetMondayProductionItemID(ctx context.Context, id, itemID, boardID string) error {
	return r.setCorrelationField(ctx, id, "mondayProductionItemId", itemID, "mondayProductionBoardId", boardID)
}

func (r *MongoOrderRepository) setCorrelationField(ctx context.Context, id, field, itemID, boardField, boardID string) error {
	filter := bson.M{
		"_id": id,
		field: bson.M{"$exists": false},
	}
	result, err := r.ordersCollection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: itemID, boardField: boardID}})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		// Already correlated; keep the existing stable identifier.
		r.logger.Debug().Str("orderId", id).Str("field", field).Msg("External item id already set, keeping existing")
		return nil
	}
	r.notify(id, "")
	return nil
}

// CreateSubItem inserts a child work unit and updates the parent's sub-item
// bookkeeping. The counter uses $inc so concurrent creations never lose
// updates.
func (r *MongoOrderRepository) CreateSubItem(ctx context.Context, sub *domain.SubItem) (string, error) {
	if sub.ParentOrderID == "" {
		return "", fmt.Errorf("sub-item requires a parent order id")
	}
	if sub.ID == "" {
		sub.ID = primitive.NewObjectID().Hex()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	if _, err := r.subitemsCollection.InsertOne(ctx, sub); err != nil {
		return "", fmt.Errorf("failed to create sub-item: %w", err)
	}

	update := bson.M{
		"$set": bson.M{"isParentOrder": true},
		"$inc": bson.M{"subitemsCount": 1},
	}
	result, err := r.ordersCollection.UpdateOne(ctx, bson.M{"_id": sub.ParentOrderID}, update)
	if err != nil {
		return "", fmt.Errorf("failed to update parent order: %w", err)
	}
	if result.MatchedCount == 0 {
		return "", fmt.Errorf("parent order not found: %s", sub.ParentOrderID)
	}

	r.notify(sub.ParentOrderID, sub.ParentOrderID)
	return sub.ID, nil
}

// ListSubItems retrieves the sub-items of an order, newest first.
func (r *MongoOrderRepository) ListSubItems(ctx context.Context, parentOrderID string) ([]*domain.SubItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.subitemsCollection.Find(ctx, bson.M{"parentOrderId": parentOrderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.SubItem
	for cursor.Next(ctx) {
		var item domain.SubItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode sub-item: %w", err)
		}
		items = append(items, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return items, nil
}

// UpdateSubItemDesign merges design data into a sub-item and advances it to
// pending-production.
func (r *MongoOrderRepository) UpdateSubItemDesign(ctx context.Context, parentOrderID, subItemID string, design domain.SubItemDesignUpdate, userID string, at time.Time) error {
	set := bson.M{
		"designedBy": userID,
		"designedAt": at,
		"status":     domain.StatusPendingProduction,
	}
	if design.DesignFileURL != "" {
		set["designFileUrl"] = design.DesignFileURL
	}
	if design.DesignNotes != "" {
		set["designNotes"] = design.DesignNotes
	}
	if design.Modifications != "" {
		set["modifications"] = design.Modifications
	}
	if len(design.FileLinks) > 0 {
		set["fileLinks"] = design.FileLinks
	}

	return r.updateSubItem(ctx, parentOrderID, subItemID, bson.M{"$set": set})
}

// SetSubItemStatus updates a sub-item's status independently of its parent.
func (r *MongoOrderRepository) SetSubItemStatus(ctx context.Context, parentOrderID, subItemID string, status domain.Status, at time.Time) error {
	set := bson.M{"status": status}
	if status == domain.StatusCompleted {
		set["completedAt"] = at
	}
	return r.updateSubItem(ctx, parentOrderID, subItemID, bson.M{"$set": set})
}

func (r *MongoOrderRepository) updateSubItem(ctx context.Context, parentOrderID, subItemID string, update bson.M) error {
	filter := bson.M{"_id": subItemID, "parentOrderId": parentOrderID}
	result, err := r.subitemsCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update sub-item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("sub-item not found: %s", subItemID)
	}
	r.notify(parentOrderID, parentOrderID)
	return nil
}

// Subscribe runs a live query: the full current result set is delivered to fn
// immediately and again whenever any order changes. Cancelling the returned
// func (or ctx) ends delivery and releases the channel.
func (r *MongoOrderRepository) Subscribe(ctx context.Context, status *domain.Status, fn func([]*domain.Order)) (func(), error) {
	if r.notifier == nil {
		return nil, fmt.Errorf("subscriptions are not enabled on this repository")
	}

	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}

	orders, err := r.findOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	channel := r.notifier.Subscribe(ctx)
	go func() {
		fn(orders)
		for range channel.Events {
			current, err := r.findOrders(context.Background(), filter)
			if err != nil {
				r.logger.Error().Err(err).Msg("Live query refresh failed")
				continue
			}
			fn(current)
		}
	}()

	return func() { r.notifier.Unsubscribe(channel.ID) }, nil
}

// SubscribeSubItems is the sub-item variant of Subscribe, scoped to one parent
// order.
func (r *MongoOrderRepository) SubscribeSubItems(ctx context.Context, parentOrderID string, fn func([]*domain.SubItem)) (func(), error) {
	if r.notifier == nil {
		return nil, fmt.Errorf("subscriptions are not enabled on this repository")
	}

	items, err := r.ListSubItems(ctx, parentOrderID)
	if err != nil {
		return nil, err
	}

	channel := r.notifier.Subscribe(ctx)
	go func() {
		fn(items)
		for change := range channel.Events {
			if change.ParentOrderID != parentOrderID {
				continue
			}
			current, err := r.ListSubItems(context.Background(), parentOrderID)
			if err != nil {
				r.logger.Error().Err(err).Msg("Sub-item live query refresh failed")
				continue
			}
			fn(current)
		}
	}()

	return func() { r.notifier.Unsubscribe(channel.ID) }, nil
}
