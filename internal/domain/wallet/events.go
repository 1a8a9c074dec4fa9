package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditedEvent is emitted after a committed recharge.
type CreditedEvent struct {
	AccountID  string
	Amount     decimal.Decimal
	NewBalance decimal.Decimal
	OccurredAt time.Time
}

func (CreditedEvent) EventName() string { return "wallet.credited" }

func NewCreditedEvent(accountID string, amount, newBalance decimal.Decimal) CreditedEvent {
	return CreditedEvent{
		AccountID:  accountID,
		Amount:     amount,
		NewBalance: newBalance,
		OccurredAt: time.Now().UTC(),
	}
}
