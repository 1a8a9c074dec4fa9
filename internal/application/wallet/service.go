package wallet

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domoutbox "github.com/tiffin-labs/canteen/internal/domain/outbox"
	domain "github.com/tiffin-labs/canteen/internal/domain/wallet"
	"github.com/tiffin-labs/canteen/internal/pkg/logging"
	"github.com/tiffin-labs/canteen/internal/pkg/metrics"
)

// Service exposes the prepaid wallet: balance lookup and simulated
// recharge. There is no payment gateway behind it.
type Service struct {
	wallets   domain.Repository
	publisher domoutbox.Publisher
	met       *metrics.Metrics
}

func NewService(wallets domain.Repository, publisher domoutbox.Publisher, met *metrics.Metrics) *Service {
	return &Service{
		wallets:   wallets,
		publisher: publisher,
		met:       met,
	}
}

func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if accountID == "" {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	return s.wallets.GetBalance(ctx, accountID)
}

// Recharge credits the account, creating the ledger record on first
// use. Non-positive amounts are rejected before any write.
func (s *Service) Recharge(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "wallet_service"),
		zap.String("account_id", accountID),
	)

	if err := domain.ValidateAmount(amount); err != nil {
		s.count("recharge", "error")
		return decimal.Zero, err
	}

	newBalance, err := s.wallets.Credit(ctx, accountID, amount)
	if err != nil {
		s.count("recharge", "error")
		logger.Error("recharge_failed", zap.Error(err))
		return decimal.Zero, err
	}
	s.count("recharge", "success")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewCreditedEvent(accountID, amount, newBalance)); err != nil {
			logger.Warn("event_publish_failed", zap.Error(err))
		}
	}

	logger.Info("recharge_success",
		zap.String("amount", amount.String()),
		zap.String("new_balance", newBalance.String()),
	)
	return newBalance, nil
}

func (s *Service) count(op, outcome string) {
	if s.met != nil {
		s.met.WalletOps.WithLabelValues(op, outcome).Inc()
	}
}
