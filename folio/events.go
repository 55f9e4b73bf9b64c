/*
events.go - Typed lifecycle notifications

PURPOSE:
  Replaces string-keyed save/delete hooks with an explicit bus. The Ledger
  publishes after every store write; the Aggregator, MirrorRouter and
  StockDeduction subscribe with typed handlers.

DISPATCH:
  Synchronous and sequential, in subscription order, inside the caller's
  store transaction. The first handler error stops dispatch and is returned
  to the poster so the enclosing transaction rolls back. Handlers that must
  not block a posting (stock deduction) swallow their own errors.

RECURSION:
  A handler may post further transactions (mirrors). Those publish their own
  events; mirror copies carry IsMirror so the router ignores them.
*/
package folio

import "context"

type EventKind string

const (
	TransactionSaved   EventKind = "transaction_saved"
	TransactionDeleted EventKind = "transaction_deleted"
	TransactionMoved   EventKind = "transaction_moved"
	FolioUpdated       EventKind = "folio_updated"
)

// Event describes a completed store write.
type Event struct {
	Kind        EventKind
	Transaction Transaction
	// Previous is the stored version before an update; nil on insert.
	Previous *Transaction
	// From is the source folio of a moved transaction.
	From  FolioID
	Folio Folio
	HC    HotelContext
}

// IsInsert reports whether a TransactionSaved event is a new row.
func (e Event) IsInsert() bool { return e.Kind == TransactionSaved && e.Previous == nil }

// Handler reacts to an event using the tx-scoped store.
type Handler interface {
	Handle(ctx context.Context, s Store, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, s Store, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, s Store, ev Event) error { return f(ctx, s, ev) }

// Bus dispatches events to subscribed handlers.
type Bus struct {
	handlers map[EventKind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

// Subscribe registers h for each kind, in order.
func (b *Bus) Subscribe(h Handler, kinds ...EventKind) {
	for _, k := range kinds {
		b.handlers[k] = append(b.handlers[k], h)
	}
}

// Publish delivers ev to every handler for its kind.
func (b *Bus) Publish(ctx context.Context, s Store, ev Event) error {
	if b == nil {
		return nil
	}
	for _, h := range b.handlers[ev.Kind] {
		if err := h.Handle(ctx, s, ev); err != nil {
			return err
		}
	}
	return nil
}
