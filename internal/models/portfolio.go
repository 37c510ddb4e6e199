package models

import "time"

// Holding is a user's owned quantity of a stock symbol, unique per
// (UserID, Symbol). Persisted holdings always have Quantity > 0; a holding
// whose quantity reaches zero or below is deleted rather than stored.
type Holding struct {
	Key       string    `json:"-" badgerhold:"key"` // userID + "\x00" + symbol
	UserID    string    `json:"userId" badgerhold:"index"`
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HoldingKey builds the composite storage key for a holding. The null byte
// separator cannot appear in user IDs or symbols.
func HoldingKey(userID, symbol string) string {
	return userID + "\x00" + symbol
}

// HoldingsPage is a cursor-paginated slice of a user's holdings, ordered by
// symbol.
type HoldingsPage struct {
	UserID     string        `json:"userId"`
	Holdings   []HoldingItem `json:"holdings"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// HoldingItem is the client-facing holding shape.
type HoldingItem struct {
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}
