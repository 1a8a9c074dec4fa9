package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tiffin-labs/canteen/internal/domain/menu"
	domain "github.com/tiffin-labs/canteen/internal/domain/order"
	domoutbox "github.com/tiffin-labs/canteen/internal/domain/outbox"
	"github.com/tiffin-labs/canteen/internal/domain/wallet"
	"github.com/tiffin-labs/canteen/internal/pkg/logging"
	"github.com/tiffin-labs/canteen/internal/pkg/metrics"
)

var (
	// ErrItemUnavailable is returned when a cart references a menu item
	// that exists but is switched off.
	ErrItemUnavailable = menu.ErrUnavailable

	// ErrTokenExhausted is returned when token generation kept
	// colliding; the condition is transient and safe to retry.
	ErrTokenExhausted = errors.New("order: could not allocate a unique token")
)

const tokenAttempts = 3

const publishTimeout = 300 * time.Millisecond

// CartLine is one entry of the client-local cart handed to checkout.
// The cart is passed in explicitly; nothing is read from ambient state.
type CartLine struct {
	FoodItemID string
	Quantity   int
}

type PlaceOrderInput struct {
	AccountID string
	Lines     []CartLine
}

type TransitionInput struct {
	OrderID string
	Actor   domain.Role
	Target  domain.Status
}

// Service owns order placement and fulfillment: the all-or-nothing
// checkout transaction and the staff-driven status state machine.
type Service struct {
	orders    domain.Repository
	wallets   wallet.Repository
	catalog   menu.Repository
	ids       IDGenerator
	tokens    TokenGenerator
	publisher domoutbox.Publisher
	tracer    trace.Tracer
	met       *metrics.Metrics
	now       func() time.Time
}

func NewService(
	orders domain.Repository,
	wallets wallet.Repository,
	catalog menu.Repository,
	ids IDGenerator,
	tokens TokenGenerator,
	publisher domoutbox.Publisher,
	tracer trace.Tracer,
	met *metrics.Metrics,
) *Service {
	return &Service{
		orders:    orders,
		wallets:   wallets,
		catalog:   catalog,
		ids:       ids,
		tokens:    tokens,
		publisher: publisher,
		tracer:    tracer,
		met:       met,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder converts a cart into a persisted order while debiting the
// prepaid balance. The debit and the order either both happen or
// neither does: an insert failure after the debit triggers a
// compensating credit before the error surfaces.
func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (_ *domain.Order, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "order_service"),
		zap.String("account_id", input.AccountID),
	)

	ctx, span := s.startSpan(ctx, "Order.Place",
		attribute.String("order.account_id", input.AccountID),
		attribute.Int("order.cart_lines", len(input.Lines)),
	)
	start := s.now()
	defer func() { s.finishSpan(span, "place", outcomeOf(err), start, err) }()

	if input.AccountID == "" {
		return nil, errors.New("order: account id is required")
	}
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	items, err := s.priceCart(ctx, input.Lines)
	if err != nil {
		logger.Info("place_order_rejected", zap.Error(err))
		return nil, err
	}

	total := decimalTotal(items)
	newBalance, err := s.wallets.Debit(ctx, input.AccountID, total)
	if err != nil {
		logger.Info("place_order_debit_rejected",
			zap.String("total", total.String()),
			zap.Error(err),
		)
		return nil, err
	}

	o, err := s.insertWithFreshToken(ctx, input.AccountID, items)
	if err != nil {
		// The debit is already applied; reverse it before surfacing the
		// error so no debited-but-orderless state is ever observable.
		if _, creditErr := s.wallets.Credit(ctx, input.AccountID, total); creditErr != nil {
			logger.Error("place_order_compensation_failed",
				zap.String("total", total.String()),
				zap.Error(creditErr),
			)
			return nil, fmt.Errorf("order: compensate debit: %w", creditErr)
		}
		logger.Warn("place_order_compensated", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, logger, domain.NewCreatedEvent(o))

	span.SetAttributes(attribute.String("order.id", o.ID))
	span.AddEvent("order.created", trace.WithAttributes(
		attribute.String("order.token", o.Token),
	))
	logger.Info("place_order_success",
		zap.String("order_id", o.ID),
		zap.String("token", o.Token),
		zap.String("total", o.TotalAmount.String()),
		zap.String("new_balance", newBalance.String()),
	)
	return o, nil
}

// priceCart resolves every cart line against the catalog, capturing the
// current unit price so later catalog changes do not touch the order.
// Duplicate lines for the same item are merged.
func (s *Service) priceCart(ctx context.Context, lines []CartLine) ([]domain.LineItem, error) {
	merged := make(map[string]int, len(lines))
	var ordered []string
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, seen := merged[line.FoodItemID]; !seen {
			ordered = append(ordered, line.FoodItemID)
		}
		merged[line.FoodItemID] += line.Quantity
	}

	items := make([]domain.LineItem, 0, len(ordered))
	for _, itemID := range ordered {
		item, err := s.catalog.Get(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}
		items = append(items, domain.LineItem{
			FoodItemID: item.ID,
			Name:       item.Name,
			Quantity:   merged[itemID],
			UnitPrice:  item.Price,
		})
	}
	return items, nil
}

// insertWithFreshToken retries insertion with a new token on collision.
// A collision is a transient fault, not a permanent failure.
func (s *Service) insertWithFreshToken(ctx context.Context, accountID string, items []domain.LineItem) (*domain.Order, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		o, err := domain.New(s.ids.NewID(), s.tokens.NewToken(), accountID, items, s.now())
		if err != nil {
			return nil, err
		}
		err = s.orders.Insert(ctx, o)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, domain.ErrTokenTaken) {
			return nil, err
		}
	}
	return nil, ErrTokenExhausted
}

// Transition applies a staff status change as a conditional write keyed
// on the status the order was loaded with, so two staff clients racing
// on the same order cannot silently overwrite each other.
func (s *Service) Transition(ctx context.Context, input TransitionInput) (_ *domain.Order, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "order_service"),
		zap.String("order_id", input.OrderID),
	)

	ctx, span := s.startSpan(ctx, "Order.Transition",
		attribute.String("order.id", input.OrderID),
		attribute.String("order.target_status", string(input.Target)),
	)
	start := s.now()
	defer func() {
		s.finishSpan(span, "transition", outcomeOf(err), start, err)
		if s.met != nil {
			s.met.StatusTransitions.WithLabelValues(string(input.Target), outcomeOf(err)).Inc()
		}
	}()

	o, err := s.orders.Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	expected := o.Status
	if err := o.Transition(input.Actor, input.Target, s.now()); err != nil {
		logger.Info("transition_rejected",
			zap.String("from", string(expected)),
			zap.String("target", string(input.Target)),
			zap.Error(err),
		)
		return nil, err
	}

	committed, err := s.orders.UpdateStatus(ctx, o.ID, expected, o.Status, o.ReadyAt, o.UpdatedAt)
	if err != nil {
		logger.Info("transition_conflict",
			zap.String("expected", string(expected)),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, logger, domain.NewStatusChangedEvent(committed, expected))

	logger.Info("transition_success",
		zap.String("from", string(expected)),
		zap.String("to", string(committed.Status)),
	)
	return committed, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

// List returns orders for one account, or all orders when accountID is
// empty (staff view). Subscribers use it to resynchronize after a
// dropped stream.
func (s *Service) List(ctx context.Context, accountID string) ([]*domain.Order, error) {
	return s.orders.List(ctx, accountID)
}

func (s *Service) publish(ctx context.Context, logger *zap.Logger, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func decimalTotal(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *Service) finishSpan(span trace.Span, op, outcome string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if s.met != nil {
		if op == "place" {
			s.met.OrdersPlaced.WithLabelValues(outcome).Inc()
		}
		s.met.OpDuration.WithLabelValues("order."+op).Observe(s.now().Sub(start).Seconds())
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
