// Package models defines the domain types shared across brokerd services.
package models

import (
	"regexp"
	"time"
)

// SymbolPattern is the accepted shape for stock symbols: 1-10 uppercase
// alphanumerics.
var SymbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// Stock is a vendor-sourced quote. Price is vendor-authoritative and is
// never written from client input.
type Stock struct {
	Symbol        string    `json:"symbol" badgerhold:"key"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	LastFetchedAt time.Time `json:"lastFetchedAt"`
}

// StockPage is a page of the vendor catalog as exposed to API clients.
// Totals are estimated from pages fetched × page size and are therefore
// approximate, not authoritative.
type StockPage struct {
	Items      []Stock        `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes the offset-translated pagination contract.
type PaginationMeta struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	Approximate bool `json:"approximate"`
}
