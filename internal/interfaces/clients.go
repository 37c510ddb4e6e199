// Package interfaces defines service contracts for brokerd
package interfaces

import "context"

// VendorStock is one catalog item as returned by the vendor.
type VendorStock struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

// VendorClient is the typed client for the external stock vendor. It owns
// retry, backoff and error classification; it persists nothing.
type VendorClient interface {
	// FetchStocks retrieves one catalog page. An empty token requests the
	// first page. nextToken is empty when no further pages exist.
	FetchStocks(ctx context.Context, token string) (items []VendorStock, nextToken string, err error)

	// Buy executes a purchase at the vendor. A vendor business rejection or
	// terminal transport failure is returned as a typed error.
	Buy(ctx context.Context, symbol string, price float64, quantity int) error
}

// Mailer is the external email collaborator boundary. Transport selection
// and templating live behind this interface.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}
