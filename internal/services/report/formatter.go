package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jcalder/brokerd/internal/models"
)

// Format renders the email subject and plain-text body for a daily report.
func Format(report *models.DailyReport) (subject, body string) {
	subject = fmt.Sprintf("Daily Trade Report - %s", report.Date)

	var b strings.Builder
	fmt.Fprintf(&b, "Daily Trade Report for %s\n", report.Date)
	fmt.Fprintf(&b, "Generated at %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintf(&b, "Total trades:  %d\n", report.TotalTrades)
	fmt.Fprintf(&b, "Successful:    %d\n", report.SuccessCount)
	fmt.Fprintf(&b, "Failed:        %d\n", report.FailedCount)

	if len(report.FailureReasons) > 0 {
		b.WriteString("\nFailure reasons:\n")

		reasons := make([]string, 0, len(report.FailureReasons))
		for r := range report.FailureReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)

		for _, r := range reasons {
			fmt.Fprintf(&b, "  %4d  %s\n", report.FailureReasons[r], r)
		}
	}

	if len(report.Trades) > 0 {
		b.WriteString("\nTrades:\n")
		for _, tr := range report.Trades {
			line := fmt.Sprintf("  %s  %-8s %-10s %8.2f x %-5d %s",
				tr.Timestamp.UTC().Format("15:04:05"), tr.UserID, tr.Symbol, tr.Price, tr.Quantity, tr.Status)
			if tr.Reason != "" {
				line += " (" + tr.Reason + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	return subject, b.String()
}
