package folio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE AGGREGATOR
// =============================================================================
//
// Derived folio totals are a pure function of the non-void transaction set:
//
//   total_charges       = sum(amount)   for amount > 0
//   total_payments      = sum(|amount|) for amount < 0
//   outstanding_balance = total_charges - total_payments
//
// Recompute is idempotent: it reads the ledger and overwrites the three
// fields, nothing else.

// Summarize computes totals over a transaction set. Void rows are skipped.
func Summarize(txs []Transaction) Totals {
	charges := decimal.Zero
	payments := decimal.Zero
	for _, t := range txs {
		if t.IsVoid {
			continue
		}
		switch {
		case t.Amount.IsPositive():
			charges = charges.Add(t.Amount)
		case t.Amount.IsNegative():
			payments = payments.Add(t.Amount.Abs())
		}
	}
	return Totals{Charges: charges, Payments: payments, Outstanding: charges.Sub(payments)}
}

type Aggregator struct {
	Guard *CreditGuard
	Log   *slog.Logger
}

// Recompute writes fresh totals onto the folio. When the folio bills a company
// and has a positive balance the credit guard is consulted (advisory).
func (a *Aggregator) Recompute(ctx context.Context, s Store, hc HotelContext, id FolioID) (Totals, error) {
	f, err := s.GetFolio(ctx, id)
	if err != nil {
		return Totals{}, err
	}
	totals, err := s.SumTransactions(ctx, id)
	if err != nil {
		return Totals{}, fmt.Errorf("sum folio %s: %w", id, err)
	}

	f.TotalCharges = totals.Charges
	f.TotalPayments = totals.Payments
	f.OutstandingBalance = totals.Outstanding
	if err := s.UpdateFolio(ctx, f); err != nil {
		return Totals{}, fmt.Errorf("write folio totals %s: %w", id, err)
	}

	if f.CompanyID != "" && totals.Outstanding.IsPositive() && a.Guard != nil {
		a.Guard.Check(ctx, s, hc, f.CompanyID, totals.Outstanding)
	}
	return totals, nil
}

// Handle recomputes every folio touched by the event.
func (a *Aggregator) Handle(ctx context.Context, s Store, ev Event) error {
	switch ev.Kind {
	case TransactionSaved, TransactionDeleted:
		_, err := a.Recompute(ctx, s, ev.HC, ev.Transaction.FolioID)
		return err
	case TransactionMoved:
		if _, err := a.Recompute(ctx, s, ev.HC, ev.From); err != nil {
			return err
		}
		_, err := a.Recompute(ctx, s, ev.HC, ev.Transaction.FolioID)
		return err
	case FolioUpdated:
		_, err := a.Recompute(ctx, s, ev.HC, ev.Folio.ID)
		return err
	}
	return nil
}
