package folio

import (
	"context"
	"log/slog"
)

// =============================================================================
// ENGINE - Wires the ledger components around one event bus
// =============================================================================

// Config carries the collaborators. Nil collaborators disable the feature
// they back (no notices, no standing credit, no invoicing, no stock issues).
type Config struct {
	Clock       Clock
	Logger      *slog.Logger
	Notifier    Notifier
	Receivables ReceivableLedger
	Credits     StandingCredits
	Invoices    InvoiceService
	Stock       StockService
}

// Engine owns the store and the wired components. Component methods take a
// tx-scoped Store; the Engine methods below open the transaction themselves.
// Store is wrapped in an Outbox, so notices raised in a transaction go out
// only after it commits.
type Engine struct {
	Store      TxStore
	Bus        *Bus
	Ledger     *Ledger
	Aggregator *Aggregator
	Router     *MirrorRouter
	Guard      *CreditGuard
	Folios     *Folios
	Invoicer   *Invoicer
	Stock      *StockDeduction
	Notifier   Notifier
	Credits    StandingCredits
	Log        *slog.Logger
}

func NewEngine(store TxStore, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier
	}

	bus := NewBus()
	ledger := NewLedger(bus, cfg.Clock, log)
	guard := &CreditGuard{Receivables: cfg.Receivables, Notifier: notifier, Log: log}
	agg := &Aggregator{Guard: guard, Log: log}
	router := &MirrorRouter{Ledger: ledger, Log: log}
	stock := &StockDeduction{Service: cfg.Stock, Log: log}

	// Aggregate the source first, then fan out to masters, then stock.
	bus.Subscribe(agg, TransactionSaved, TransactionDeleted, TransactionMoved, FolioUpdated)
	bus.Subscribe(router, TransactionSaved)
	bus.Subscribe(stock, TransactionSaved)

	return &Engine{
		Store:      &Outbox{TxStore: store, Log: log},
		Bus:        bus,
		Ledger:     ledger,
		Aggregator: agg,
		Router:     router,
		Guard:      guard,
		Folios:     &Folios{Ledger: ledger, Aggregator: agg, Credits: cfg.Credits, Log: log},
		Invoicer:   &Invoicer{Ledger: ledger, Service: cfg.Invoices},
		Stock:      stock,
		Notifier:   notifier,
		Credits:    cfg.Credits,
		Log:        log,
	}
}

// Clock returns the engine's clock.
func (e *Engine) Clock() Clock { return e.Ledger.Clock }

// =============================================================================
// TRANSACTIONAL ENTRY POINTS
// =============================================================================

func (e *Engine) Post(ctx context.Context, hc HotelContext, t Transaction) (Transaction, error) {
	var out Transaction
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = e.Ledger.Post(ctx, s, hc, t)
		return err
	})
	return out, err
}

func (e *Engine) Save(ctx context.Context, hc HotelContext, t Transaction) (Transaction, error) {
	var out Transaction
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = e.Ledger.Save(ctx, s, hc, t)
		return err
	})
	return out, err
}

func (e *Engine) Void(ctx context.Context, hc HotelContext, id TransactionID, reason string) (Transaction, error) {
	var out Transaction
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = e.Ledger.Void(ctx, s, hc, id, reason)
		return err
	})
	return out, err
}

func (e *Engine) DeleteTransaction(ctx context.Context, hc HotelContext, id TransactionID) error {
	return e.Store.WithTx(ctx, func(s Store) error {
		return e.Ledger.Delete(ctx, s, hc, id)
	})
}

func (e *Engine) Move(ctx context.Context, hc HotelContext, ids []TransactionID, target FolioID) error {
	return e.Store.WithTx(ctx, func(s Store) error {
		return e.Ledger.Move(ctx, s, hc, ids, target)
	})
}

func (e *Engine) Recompute(ctx context.Context, hc HotelContext, id FolioID) (Totals, error) {
	var out Totals
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = e.Aggregator.Recompute(ctx, s, hc, id)
		return err
	})
	return out, err
}

func (e *Engine) Mirror(ctx context.Context, hc HotelContext, id TransactionID) (Transaction, bool, error) {
	var out Transaction
	var created bool
	err := e.Store.WithTx(ctx, func(s Store) error {
		src, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		out, created, err = e.Router.Mirror(ctx, s, hc, src)
		return err
	})
	return out, created, err
}

func (e *Engine) CreateFolio(ctx context.Context, hc HotelContext, f Folio) (Folio, error) {
	return e.folioOp(ctx, func(s Store) (Folio, error) { return e.Folios.Create(ctx, s, hc, f) })
}

func (e *Engine) EnsureCompanyMaster(ctx context.Context, hc HotelContext, company CompanyID) (Folio, error) {
	return e.folioOp(ctx, func(s Store) (Folio, error) { return e.Folios.EnsureCompanyMaster(ctx, s, hc, company) })
}

func (e *Engine) OpenFolio(ctx context.Context, hc HotelContext, id FolioID) (Folio, error) {
	return e.folioOp(ctx, func(s Store) (Folio, error) { return e.Folios.Open(ctx, s, hc, id) })
}

func (e *Engine) CloseFolio(ctx context.Context, hc HotelContext, id FolioID) (Folio, error) {
	return e.folioOp(ctx, func(s Store) (Folio, error) { return e.Folios.Close(ctx, s, hc, id) })
}

func (e *Engine) CancelFolio(ctx context.Context, hc HotelContext, id FolioID) (Folio, error) {
	return e.folioOp(ctx, func(s Store) (Folio, error) { return e.Folios.Cancel(ctx, s, hc, id) })
}

func (e *Engine) DeleteFolio(ctx context.Context, id FolioID) error {
	return e.Store.WithTx(ctx, func(s Store) error { return e.Folios.Delete(ctx, s, id) })
}

func (e *Engine) CreateInvoice(ctx context.Context, hc HotelContext, id FolioID) (string, error) {
	var out string
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = e.Invoicer.CreateInvoice(ctx, s, hc, id)
		return err
	})
	return out, err
}

// Folio reads a folio outside any write transaction.
func (e *Engine) Folio(ctx context.Context, id FolioID) (Folio, error) {
	return e.Store.GetFolio(ctx, id)
}

// Transactions reads a folio's transactions.
func (e *Engine) Transactions(ctx context.Context, id FolioID) ([]Transaction, error) {
	return e.Ledger.Transactions(ctx, e.Store, id)
}

func (e *Engine) folioOp(ctx context.Context, fn func(Store) (Folio, error)) (Folio, error) {
	var out Folio
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		out, err = fn(s)
		return err
	})
	return out, err
}
