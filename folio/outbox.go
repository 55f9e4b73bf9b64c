package folio

import (
	"context"
	"log/slog"
)

// =============================================================================
// OUTBOX - Notices leave after their transaction commits
// =============================================================================
//
// Notices raised inside WithTx (credit breaches, company checkouts) are held
// on the tx-scoped Store and handed to their Notifier once the transaction
// commits. A rollback drops them. Outside a transaction they go out at once.

// Outbox wraps a TxStore with after-commit notice delivery.
type Outbox struct {
	TxStore
	Log *slog.Logger
}

type queuedNotice struct {
	notifier Notifier
	notice   Notice
}

// outboxStore is the tx-scoped Store handed to WithTx callbacks.
type outboxStore struct {
	Store
	pending *[]queuedNotice
}

// WithTx runs fn in a transaction and delivers its notices after commit.
func (o *Outbox) WithTx(ctx context.Context, fn func(Store) error) error {
	var pending []queuedNotice
	err := o.TxStore.WithTx(ctx, func(s Store) error {
		return fn(outboxStore{Store: s, pending: &pending})
	})
	if err != nil {
		if len(pending) > 0 {
			o.logger().Debug("notices dropped with rolled-back transaction", slog.Int("count", len(pending)))
		}
		return err
	}
	for _, q := range pending {
		if err := q.notifier.Notify(ctx, q.notice); err != nil {
			o.logger().Warn("notice not delivered",
				slog.String("subject", q.notice.Subject),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (o *Outbox) logger() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}

// NotifyAfterCommit queues n for delivery when s belongs to an Outbox
// transaction, and sends it immediately otherwise. Only the immediate path
// can return a delivery error.
func NotifyAfterCommit(ctx context.Context, s Store, notifier Notifier, n Notice) error {
	if notifier == nil {
		return nil
	}
	if q, ok := s.(outboxStore); ok {
		*q.pending = append(*q.pending, queuedNotice{notifier: notifier, notice: n})
		return nil
	}
	return notifier.Notify(ctx, n)
}
