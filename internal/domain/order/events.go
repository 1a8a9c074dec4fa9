package order

import "time"

// CreatedEvent is emitted after an order and its wallet debit have been
// committed. It carries a full snapshot so subscribers reconcile by
// replacing their local copy.
type CreatedEvent struct {
	Order      *Order
	OccurredAt time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		Order:      o.Clone(),
		OccurredAt: time.Now().UTC(),
	}
}

// StatusChangedEvent is emitted after a committed status transition.
type StatusChangedEvent struct {
	Order      *Order
	Previous   Status
	OccurredAt time.Time
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }

func NewStatusChangedEvent(o *Order, previous Status) StatusChangedEvent {
	return StatusChangedEvent{
		Order:      o.Clone(),
		Previous:   previous,
		OccurredAt: time.Now().UTC(),
	}
}
