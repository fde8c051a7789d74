package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/stockkeep/apiserver/internal/mq"
	"github.com/stockkeep/apiserver/types"
)

const (
	defaultPublishTimeout = 5 * time.Second
	defaultEventBuffer    = 256
)

// EventPublisher is notified after a product mutation has been committed.
// Implementations must not fail or delay the caller's request.
type EventPublisher interface {
	ProductChanged(ctx context.Context, eventType types.ProductEventType, product types.Product)
}

// NopEventPublisher discards events. Used when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) ProductChanged(context.Context, types.ProductEventType, types.Product) {}

// Publisher is the subset of the message queue used for events.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

type outboundEvent struct {
	ctx       context.Context
	eventType types.ProductEventType
	productID int
	data      []byte
	attrs     map[string]string
}

// BrokerEventPublisher serializes product events as JSON and hands them to a
// single background worker, which publishes them in order with a per-message
// timeout. When the buffer is full new events are dropped and logged.
type BrokerEventPublisher struct {
	publisher Publisher
	channel   string
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	queue  chan outboundEvent
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func NewBrokerEventPublisher(publisher Publisher, channel string, timeout time.Duration, logger *slog.Logger) *BrokerEventPublisher {
	return newBrokerEventPublisher(publisher, channel, timeout, defaultEventBuffer, logger)
}

func newBrokerEventPublisher(publisher Publisher, channel string, timeout time.Duration, buffer int, logger *slog.Logger) *BrokerEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	p := &BrokerEventPublisher{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		queue:     make(chan outboundEvent, buffer),
		done:      make(chan struct{}),
	}
	go p.run()
	return p
}

// ProductChanged enqueues the event and returns without waiting for the broker.
func (p *BrokerEventPublisher) ProductChanged(ctx context.Context, eventType types.ProductEventType, product types.Product) {
	event := types.ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		UserID:     product.UserID,
		OccurredAt: p.now().UTC(),
	}
	if eventType != types.ProductDeleted {
		event.Product = &product
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode product event", "error", err)
		return
	}

	out := outboundEvent{
		// Keep request-scoped values for logging but outlive the request.
		ctx:       context.WithoutCancel(ctx),
		eventType: eventType,
		productID: product.ID,
		data:      data,
		attrs: map[string]string{
			mq.AttrType:        string(eventType),
			mq.AttrOrderingKey: "product-" + strconv.Itoa(product.ID),
			"user_id":          strconv.Itoa(product.UserID),
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WarnContext(ctx, "product event dropped", "reason", "publisher closed", "type", eventType, "product_id", product.ID)
		return
	}
	select {
	case p.queue <- out:
	default:
		p.logger.WarnContext(ctx, "product event dropped", "reason", "buffer full", "type", eventType, "product_id", product.ID)
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (p *BrokerEventPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *BrokerEventPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		p.publish(event)
	}
}

func (p *BrokerEventPublisher) publish(event outboundEvent) {
	ctx, cancel := context.WithTimeout(event.ctx, p.timeout)
	defer cancel()

	id, err := p.publisher.Publish(ctx, p.channel, event.data, event.attrs)
	if err != nil {
		p.logger.WarnContext(ctx, "publish product event failed",
			"type", event.eventType,
			"product_id", event.productID,
			"error", err,
		)
		return
	}
	p.logger.DebugContext(ctx, "product event published", "type", event.eventType, "message_id", id)
}
