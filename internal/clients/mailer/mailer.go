// Package mailer provides the outbound email boundary for report dispatch.
package mailer

import (
	"context"
	"fmt"

	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/interfaces"
)

// LogMailer writes outbound mail to the structured log instead of a wire
// transport. It is the default backend for development and test
// environments; a real SMTP or API-backed sender slots in behind the same
// interface.
type LogMailer struct {
	logger *common.Logger
}

// NewLogMailer creates a mailer that records sends via the logger.
func NewLogMailer(logger *common.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	m.logger.Info().
		Strs("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("Email dispatched")

	return nil
}

var _ interfaces.Mailer = (*LogMailer)(nil)
