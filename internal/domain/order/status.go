package order

import (
	"errors"
	"time"
)

var (
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrForbidden         = errors.New("order: actor may not change order status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// staffTransitions is the transition table for the staff role.
// Customers have no entries: they observe orders but never move them.
var staffTransitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
}

// CanTransition reports whether staff may move an order from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, next := range staffTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change requested by the given actor.
// Moving into ready stamps ReadyAt with the transition time; the stamp
// is never overwritten by later transitions.
func (o *Order) Transition(actor Role, target Status, at time.Time) error {
	if actor != RoleStaff {
		return ErrForbidden
	}
	if !target.Valid() || !CanTransition(o.Status, target) {
		return ErrInvalidTransition
	}

	at = at.UTC()
	o.Status = target
	o.UpdatedAt = at
	if target == StatusReady && o.ReadyAt == nil {
		o.ReadyAt = &at
	}
	return nil
}
