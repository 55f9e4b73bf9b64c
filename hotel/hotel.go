/*
Package hotel drives the folio ledger from the front desk.

PURPOSE:
  Reservations, group bookings, rooms and the daily night audit are the
  external triggers that create folio transactions. This package owns their
  state machines and turns each trigger into one store transaction on top of
  folio.Engine.

RESERVATION LIFECYCLE:
  Reserved ──check-in──► Checked In ──check-out──► Checked Out
     │
     └──cancel──► Cancelled

  Check-in opens the folio and bills the first night. Check-out settles the
  company and group portions onto master folios, then closes the folio.

BATCHES:
  RunNightAudit, MassCheckIn and MassCheckOut process one reservation per
  store transaction. A failing reservation is logged and reported; the rest
  of the batch carries on.

SEE ALSO:
  - folio/engine.go: the ledger components used here
  - audit.go: the daily callback
*/
package hotel

import (
	"context"
	"log/slog"

	"github.com/warp/folio-engine/folio"
)

// RoomChargeMode is the POS payment mode that charges a sale to the room.
const RoomChargeMode = "Room Charge"

// Hotel is the front-desk facade over a folio.Engine.
type Hotel struct {
	Engine *folio.Engine
	Store  folio.TxStore
	Log    *slog.Logger
}

// Option configures a Hotel.
type Option func(*Hotel)

// WithLogger sets the logger; the engine's logger is used otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hotel) { h.Log = log }
}

func New(engine *folio.Engine, opts ...Option) *Hotel {
	h := &Hotel{Engine: engine, Store: engine.Store, Log: engine.Log}
	for _, opt := range opts {
		opt(h)
	}
	if h.Log == nil {
		h.Log = slog.Default()
	}
	return h
}

func (h *Hotel) today() folio.Date { return h.Engine.Clock().Today() }

// BatchResult reports a batch run: how many items succeeded and one message
// per failed item.
type BatchResult struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors,omitempty"`
}

// notify sends n once the transaction behind s commits.
func (h *Hotel) notify(ctx context.Context, s folio.Store, n folio.Notice) {
	if err := folio.NotifyAfterCommit(ctx, s, h.Engine.Notifier, n); err != nil {
		h.Log.Warn("notification failed",
			slog.String("subject", n.Subject),
			slog.String("error", err.Error()))
	}
}

// ensureItem registers a system item the first time it is posted.
func ensureItem(ctx context.Context, s folio.Store, code, name, group string) error {
	_, err := s.GetItem(ctx, code)
	if err == nil {
		return nil
	}
	if !folio.IsNotFound(err) {
		return err
	}
	return s.PutItem(ctx, folio.Item{Code: code, Name: name, ItemGroup: group})
}
