package fanout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tiffin-labs/canteen/internal/domain/order"
	domoutbox "github.com/tiffin-labs/canteen/internal/domain/outbox"
	"github.com/tiffin-labs/canteen/internal/pkg/metrics"
)

// Filter selects which orders a subscriber sees. The zero value means
// all orders (staff dashboard); a set AccountID narrows the stream to
// that customer's own orders.
type Filter struct {
	AccountID string
}

func (f Filter) Matches(o *order.Order) bool {
	return f.AccountID == "" || f.AccountID == o.AccountID
}

// Event is one change notification. It carries the full order snapshot,
// not a diff, so a subscriber reconciles by replacing its local copy.
type Event struct {
	Type       string
	Order      *order.Order
	OccurredAt time.Time
}

// Subscription is a live stream of change events. The channel closes
// when the subscriber falls behind (Lagged reports true) or after
// Close; a lagged subscriber must re-fetch current state and
// resubscribe.
type Subscription struct {
	id       int
	filter   Filter
	ch       chan Event
	hub      *Hub
	lastSeen map[string]int64
	lagged   bool
	closed   bool
}

func (s *Subscription) Events() <-chan Event { return s.ch }

// Lagged reports whether the hub dropped this subscription because its
// buffer overflowed. Meaningful once the events channel has closed.
func (s *Subscription) Lagged() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.lagged
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// Hub distributes committed order changes to all live subscribers.
// Producers never block: a subscriber whose buffer is full is dropped
// and told to resynchronize.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	buffer int
	log    *zap.Logger
	met    *metrics.Metrics
}

func New(logger *zap.Logger, met *metrics.Metrics) *Hub {
	return &Hub{
		subs:   make(map[int]*Subscription),
		buffer: 16,
		log:    logger.With(zap.String("component", "fanout")),
		met:    met,
	}
}

// Attach registers the hub on the event bus for every order change
// event. The bus dispatches from a single loop, so broadcast sees
// events in commit order.
func (h *Hub) Attach(bus domoutbox.Subscriber) {
	bus.Subscribe(order.CreatedEvent{}.EventName(), h.handle)
	bus.Subscribe(order.StatusChangedEvent{}.EventName(), h.handle)
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:       h.nextID,
		filter:   f,
		ch:       make(chan Event, h.buffer),
		hub:      h,
		lastSeen: make(map[string]int64),
	}
	h.subs[sub.id] = sub
	return sub
}

func (h *Hub) handle(ctx context.Context, e domoutbox.Event) error {
	_ = ctx
	switch evt := e.(type) {
	case order.CreatedEvent:
		h.broadcast(Event{Type: evt.EventName(), Order: evt.Order, OccurredAt: evt.OccurredAt})
	case order.StatusChangedEvent:
		h.broadcast(Event{Type: evt.EventName(), Order: evt.Order, OccurredAt: evt.OccurredAt})
	}
	return nil
}

func (h *Hub) broadcast(ev Event) {
	if ev.Order == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if !sub.filter.Matches(ev.Order) {
			continue
		}
		// Never hand a subscriber an order snapshot older than one it
		// already received.
		if ev.Order.Version <= sub.lastSeen[ev.Order.ID] {
			continue
		}

		select {
		case sub.ch <- ev:
			sub.lastSeen[ev.Order.ID] = ev.Order.Version
			if h.met != nil {
				h.met.FanoutDelivered.Inc()
			}
		default:
			sub.lagged = true
			h.remove(sub)
			if h.met != nil {
				h.met.FanoutLagDrops.Inc()
			}
			h.log.Warn("subscriber_dropped_lagging",
				zap.Int("subscriber_id", sub.id),
				zap.String("filter_account_id", sub.filter.AccountID),
			)
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subs, sub.id)
	close(sub.ch)
}
