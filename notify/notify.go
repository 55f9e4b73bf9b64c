/*
Package notify delivers folio.Notice values to operators.

PURPOSE:
  The engine emits notices for credit-limit breaches and company-guest
  checkouts. Delivery is advisory: the engine logs a failed Notify and
  carries on, so sinks here never need to retry.

SINKS:
  Log    writes each notice to a slog.Logger
  AMQP   publishes each notice as JSON onto a durable RabbitMQ queue
  Multi  fans a notice out to several sinks

SEE ALSO:
  - folio/collaborators.go: the Notifier interface
  - cmd/server/main.go: sink selection from configuration
*/
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// LOG SINK
// =============================================================================

// Log writes notices to a structured logger. Warnings log at Warn, the rest
// at Info.
type Log struct {
	Logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) Notify(ctx context.Context, n folio.Notice) error {
	level := slog.LevelInfo
	if n.Level == folio.NoticeWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("subject", n.Subject)}
	if n.FolioID != "" {
		attrs = append(attrs, slog.String("folio", string(n.FolioID)))
	}
	if n.CompanyID != "" {
		attrs = append(attrs, slog.String("company", string(n.CompanyID)))
	}
	for k, v := range n.Fields {
		attrs = append(attrs, slog.String(k, v))
	}
	l.Logger.LogAttrs(ctx, level, n.Message, attrs...)
	return nil
}

// =============================================================================
// FAN-OUT
// =============================================================================

// Multi delivers to every sink and joins their errors. One failing sink does
// not stop the others.
type Multi []folio.Notifier

func (m Multi) Notify(ctx context.Context, n folio.Notice) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ folio.Notifier = (*Log)(nil)
	_ folio.Notifier = Multi(nil)
)
