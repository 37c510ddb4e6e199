package models

import "time"

// DailyReport aggregates all trade attempts for one calendar day.
// Reports are keyed by date so a retried job regenerates rather than
// duplicates.
type DailyReport struct {
	Date           string         `json:"date" badgerhold:"key"` // "2006-01-02"
	TotalTrades    int            `json:"totalTrades"`
	SuccessCount   int            `json:"successCount"`
	FailedCount    int            `json:"failedCount"`
	FailureReasons map[string]int `json:"failureReasons"`
	Trades         []Trade        `json:"trades"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	DispatchedAt   time.Time      `json:"dispatchedAt,omitempty"` // zero until the email went out
}

// Dispatched reports whether the report's email has already been sent.
func (r *DailyReport) Dispatched() bool {
	return !r.DispatchedAt.IsZero()
}
