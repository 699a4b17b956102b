package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// OrderChange signals that an order (or one of its sub-items) was written.
// Subscribers re-query their own view; the change carries only identity.
type OrderChange struct {
	OrderID       string
	ParentOrderID string // set when the write was to a sub-item
}

// ChangeChannel represents one live-query subscription.
type ChangeChannel struct {
	ID     string
	Events chan OrderChange
	ctx    context.Context
	cancel context.CancelFunc
}

// Done returns a channel closed when the subscription ends.
func (c *ChangeChannel) Done() <-chan struct{} {
	return c.ctx.Done()
}

// OrderPubSub fans order change notifications out to live-query subscribers.
type OrderPubSub struct {
	mu       sync.RWMutex
	channels map[string]*ChangeChannel
	logger   zerolog.Logger
	nextID   int64
}

// NewOrderPubSub creates a new order change notifier.
func NewOrderPubSub(logger zerolog.Logger) *OrderPubSub {
	return &OrderPubSub{
		channels: make(map[string]*ChangeChannel),
		logger:   logger,
	}
}

// Subscribe creates a new subscription channel. The channel is removed when
// ctx is cancelled or Unsubscribe is called.
func (ps *OrderPubSub) Subscribe(ctx context.Context) *ChangeChannel {
	subCtx, cancel := context.WithCancel(ctx)

	ps.mu.Lock()
	ps.nextID++
	id := fmt.Sprintf("channel-%d", ps.nextID)
	channel := &ChangeChannel{
		ID:     id,
		Events: make(chan OrderChange, 16),
		ctx:    subCtx,
		cancel: cancel,
	}
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Debug().Str("channelId", id).Msg("Order subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel.
func (ps *OrderPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	channel.cancel()
	close(channel.Events)
	delete(ps.channels, channelID)

	ps.logger.Debug().Str("channelId", channelID).Msg("Order subscription removed")
}

// Publish broadcasts an order change to all subscribers. Delivery is
// non-blocking: a subscriber with a full buffer misses the signal and catches
// up on its next requery.
func (ps *OrderPubSub) Publish(change OrderChange) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		select {
		case channel.Events <- change:
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping change notification")
		}
	}
}

// ActiveSubscriptions returns the number of live subscriptions.
func (ps *OrderPubSub) ActiveSubscriptions() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}
