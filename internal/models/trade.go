package models

import "time"

// Trade status constants. PENDING transitions exactly once to SUCCESS or
// FAILED; terminal states never transition further.
const (
	TradeStatusPending = "PENDING"
	TradeStatusSuccess = "SUCCESS"
	TradeStatusFailed  = "FAILED"
)

// Trade request limits enforced before any I/O.
const (
	MaxTradeQuantity = 10_000
	MaxTradePrice    = 1_000_000
)

// Trade is a persisted buy attempt. Every attempt — successful or not — is
// recorded; Reason is populated only on FAILED.
type Trade struct {
	ID        string    `json:"id" badgerhold:"key"`
	UserID    string    `json:"userId" badgerhold:"index"`
	Symbol    string    `json:"symbol" badgerhold:"index"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status" badgerhold:"index"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp" badgerhold:"index"`
}

// IsTerminal reports whether the trade has reached a final state.
func (t *Trade) IsTerminal() bool {
	return t.Status == TradeStatusSuccess || t.Status == TradeStatusFailed
}
