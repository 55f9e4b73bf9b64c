/*
ledger.go - Folio transaction log

PURPOSE:
  The Ledger is the only writer of Folio Transactions. Every insert, update,
  void, move and delete goes through it so that the event bus sees every
  change and derived totals never drift from the transaction set.

INVARIANTS:
  1. No insert into a Closed or Cancelled folio.
  2. is_void is one-way: un-voiding is refused, corrections are new postings.
  3. is_invoiced is one-way: an invoiced transaction only accepts a new
     void reason, and it can never be voided, moved or deleted.
  4. Amount is never edited on a terminal folio.

PRICE FETCH:
  When a posting names an item but leaves the amount unset, the amount is
  price list rate (else standard rate) x qty. A blank description is filled
  from the item name.

MIRROR CASCADE:
  Voiding or deleting a source transaction applies the same change to its
  uninvoiced mirror copies, so master folios stay consistent with members.

SEE ALSO:
  - events.go: what gets published after each write
  - balance.go: the Aggregator that reacts to those events
  - mirror.go: the MirrorRouter that reacts to TransactionSaved
*/
package folio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Bus   *Bus
	Clock Clock
	Log   *slog.Logger
}

func NewLedger(bus *Bus, clock Clock, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{Bus: bus, Clock: clock, Log: log}
}

// Post inserts a new transaction and publishes TransactionSaved.
func (l *Ledger) Post(ctx context.Context, s Store, hc HotelContext, t Transaction) (Transaction, error) {
	if t.FolioID == "" {
		return Transaction{}, fmt.Errorf("transaction has no folio: %w", ErrInvalidInput)
	}
	if t.IsVoid {
		return Transaction{}, fmt.Errorf("cannot post a void transaction: %w", ErrInvalidInput)
	}

	f, err := s.GetFolio(ctx, t.FolioID)
	if err != nil {
		return Transaction{}, err
	}
	if f.Status.IsTerminal() {
		return Transaction{}, fmt.Errorf("cannot add transactions to folio %s (%s): %w", f.ID, f.Status, ErrFolioClosed)
	}

	if t.BillTo == "" {
		t.BillTo = BillToGuest
	} else if !t.BillTo.Valid() {
		return Transaction{}, fmt.Errorf("bill_to %q: %w", t.BillTo, ErrInvalidInput)
	}
	if t.Qty.IsZero() {
		t.Qty = decimal.NewFromInt(1)
	}
	if err := l.fetchPrice(ctx, s, &t); err != nil {
		return Transaction{}, err
	}
	if t.ID == "" {
		t.ID = TransactionID(NewID("FT"))
	}
	if t.PostingDate.IsZero() {
		t.PostingDate = l.Clock.Today()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.Clock.Now()
	}

	if err := s.InsertTransaction(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := l.Bus.Publish(ctx, s, Event{Kind: TransactionSaved, Transaction: t, HC: hc}); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (l *Ledger) fetchPrice(ctx context.Context, s Store, t *Transaction) error {
	if t.ItemCode == "" {
		return nil
	}
	item, err := s.GetItem(ctx, t.ItemCode)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if t.Amount.IsZero() {
		rate := item.PriceListRate
		if !rate.IsPositive() {
			rate = item.StandardRate
		}
		t.Amount = rate.Mul(t.Qty)
	}
	if t.Description == "" {
		t.Description = item.Name
	}
	return nil
}

// Save updates an existing transaction. Setting IsVoid routes through Void.
func (l *Ledger) Save(ctx context.Context, s Store, hc HotelContext, t Transaction) (Transaction, error) {
	prev, err := s.GetTransaction(ctx, t.ID)
	if err != nil {
		return Transaction{}, err
	}

	switch {
	case prev.IsVoid && !t.IsVoid:
		return Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, ErrUnvoid)
	case !prev.IsVoid && t.IsVoid:
		return l.Void(ctx, s, hc, t.ID, t.VoidReason)
	}
	if t.FolioID != prev.FolioID {
		return Transaction{}, fmt.Errorf("use Move to change the folio of %s: %w", t.ID, ErrInvalidInput)
	}
	if prev.IsInvoiced {
		allowed := prev
		allowed.VoidReason = t.VoidReason
		if !sameTransaction(allowed, t) {
			return Transaction{}, fmt.Errorf("transaction %s only accepts a void reason: %w", t.ID, ErrInvoiced)
		}
	}
	if !t.BillTo.Valid() {
		return Transaction{}, fmt.Errorf("bill_to %q: %w", t.BillTo, ErrInvalidInput)
	}

	f, err := s.GetFolio(ctx, t.FolioID)
	if err != nil {
		return Transaction{}, err
	}
	if f.Status.IsTerminal() && !sameAmounts(prev, t) {
		return Transaction{}, fmt.Errorf("folio %s is %s: %w", f.ID, f.Status, ErrFolioClosed)
	}

	t.CreatedAt = prev.CreatedAt
	t.IsMirror = prev.IsMirror
	if err := s.UpdateTransaction(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	// Mirrors follow first so the router sees the synced copy, or none.
	if !t.IsMirror {
		if err := l.syncMirrors(ctx, s, hc, prev, t); err != nil {
			return Transaction{}, err
		}
	}
	if err := l.Bus.Publish(ctx, s, Event{Kind: TransactionSaved, Transaction: t, Previous: &prev, HC: hc}); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// syncMirrors keeps master copies in step with an edited source. A copy
// is rewritten to the source's amount, qty, item and posting date; it is
// removed when the source stops being billed to the same Company or Group
// target, or drops to zero. The router re-mirrors to any new target.
func (l *Ledger) syncMirrors(ctx context.Context, s Store, hc HotelContext, prev, t Transaction) error {
	if sameAmounts(prev, t) {
		return nil
	}
	mirrors, err := l.mirrorsOf(ctx, s, t.ID)
	if err != nil {
		return err
	}
	keep := t.BillTo == prev.BillTo && !t.Amount.IsZero() &&
		(t.BillTo == BillToCompany || t.BillTo == BillToGroup)
	for _, m := range mirrors {
		if m.IsVoid {
			continue
		}
		if ok, err := l.mutableMirror(ctx, s, m); err != nil {
			return err
		} else if !ok {
			continue
		}
		if !keep {
			if err := l.remove(ctx, s, hc, m); err != nil {
				return err
			}
			continue
		}
		before := m
		m.Amount = t.Amount
		m.Qty = t.Qty
		m.ItemCode = t.ItemCode
		m.PostingDate = t.PostingDate
		if err := s.UpdateTransaction(ctx, m); err != nil {
			return fmt.Errorf("update mirror %s: %w", m.ID, err)
		}
		if err := l.Bus.Publish(ctx, s, Event{Kind: TransactionSaved, Transaction: m, Previous: &before, HC: hc}); err != nil {
			return err
		}
	}
	return nil
}

// Void marks a transaction void with a reason code. Reason codes flagged as
// requiring manager approval are refused unless the actor is a manager.
func (l *Ledger) Void(ctx context.Context, s Store, hc HotelContext, id TransactionID, reason string) (Transaction, error) {
	if strings.TrimSpace(reason) == "" {
		return Transaction{}, fmt.Errorf("void reason is required: %w", ErrInvalidInput)
	}
	t, err := s.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.IsInvoiced {
		return Transaction{}, fmt.Errorf("transaction %s is invoiced, create a credit note instead: %w", id, ErrInvoiced)
	}
	if t.IsVoid {
		return Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrAlreadyVoid)
	}

	code, err := s.GetAllowanceReason(ctx, reason)
	if IsNotFound(err) {
		return Transaction{}, fmt.Errorf("unknown reason code %q: %w", reason, ErrInvalidInput)
	}
	if err != nil {
		return Transaction{}, err
	}
	if code.RequiresManagerApproval && !hc.IsManager() {
		return Transaction{}, fmt.Errorf("reason code %q: %w", reason, ErrApprovalRequired)
	}

	f, err := s.GetFolio(ctx, t.FolioID)
	if err != nil {
		return Transaction{}, err
	}
	if f.Status.IsTerminal() {
		return Transaction{}, fmt.Errorf("folio %s is %s: %w", f.ID, f.Status, ErrFolioClosed)
	}

	voided, err := l.markVoid(ctx, s, hc, t, reason)
	if err != nil {
		return Transaction{}, err
	}

	mirrors, err := l.mirrorsOf(ctx, s, id)
	if err != nil {
		return Transaction{}, err
	}
	for _, m := range mirrors {
		if m.IsVoid {
			continue
		}
		if ok, err := l.mutableMirror(ctx, s, m); err != nil {
			return Transaction{}, err
		} else if !ok {
			continue
		}
		if _, err := l.markVoid(ctx, s, hc, m, reason); err != nil {
			return Transaction{}, err
		}
	}
	return voided, nil
}

func (l *Ledger) markVoid(ctx context.Context, s Store, hc HotelContext, t Transaction, reason string) (Transaction, error) {
	prev := t
	t.IsVoid = true
	t.VoidReason = reason
	if err := s.UpdateTransaction(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("void transaction: %w", err)
	}
	if err := l.Bus.Publish(ctx, s, Event{Kind: TransactionSaved, Transaction: t, Previous: &prev, HC: hc}); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Delete removes an uninvoiced transaction from an active folio.
func (l *Ledger) Delete(ctx context.Context, s Store, hc HotelContext, id TransactionID) error {
	t, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if t.IsInvoiced {
		return fmt.Errorf("transaction %s: %w", id, ErrInvoiced)
	}
	f, err := s.GetFolio(ctx, t.FolioID)
	if err != nil {
		return err
	}
	if f.Status.IsTerminal() {
		return fmt.Errorf("folio %s is %s: %w", f.ID, f.Status, ErrFolioClosed)
	}

	mirrors, err := l.mirrorsOf(ctx, s, id)
	if err != nil {
		return err
	}
	if err := l.remove(ctx, s, hc, t); err != nil {
		return err
	}
	for _, m := range mirrors {
		if ok, err := l.mutableMirror(ctx, s, m); err != nil {
			return err
		} else if !ok {
			continue
		}
		if err := l.remove(ctx, s, hc, m); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) remove(ctx context.Context, s Store, hc HotelContext, t Transaction) error {
	if err := s.DeleteTransaction(ctx, t.ID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return l.Bus.Publish(ctx, s, Event{Kind: TransactionDeleted, Transaction: t, HC: hc})
}

// Move reassigns transactions to an Open target folio. Both sides are
// recomputed through TransactionMoved.
func (l *Ledger) Move(ctx context.Context, s Store, hc HotelContext, ids []TransactionID, target FolioID) error {
	tf, err := s.GetFolio(ctx, target)
	if err != nil {
		return err
	}
	if tf.Status.IsTerminal() {
		return fmt.Errorf("target folio %s is %s: %w", tf.ID, tf.Status, ErrFolioClosed)
	}
	if tf.Status != FolioOpen {
		return fmt.Errorf("target folio %s must be Open: %w", tf.ID, ErrInvalidInput)
	}

	for _, id := range ids {
		t, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if t.FolioID == target {
			continue
		}
		if t.IsInvoiced {
			return fmt.Errorf("transaction %s: %w", id, ErrInvoiced)
		}
		src, err := s.GetFolio(ctx, t.FolioID)
		if err != nil {
			return err
		}
		if src.Status.IsTerminal() {
			return fmt.Errorf("source folio %s is %s: %w", src.ID, src.Status, ErrFolioClosed)
		}

		from := t.FolioID
		t.FolioID = target
		if err := s.UpdateTransaction(ctx, t); err != nil {
			return fmt.Errorf("move transaction: %w", err)
		}
		if err := l.Bus.Publish(ctx, s, Event{Kind: TransactionMoved, Transaction: t, From: from, HC: hc}); err != nil {
			return err
		}
	}
	return nil
}

// Transactions returns a folio's transactions in posting order.
func (l *Ledger) Transactions(ctx context.Context, s Store, folioID FolioID) ([]Transaction, error) {
	if _, err := s.GetFolio(ctx, folioID); err != nil {
		return nil, err
	}
	return s.ListTransactions(ctx, TransactionFilter{FolioID: folioID})
}

// =============================================================================
// HELPERS
// =============================================================================

func (l *Ledger) mirrorsOf(ctx context.Context, s Store, id TransactionID) ([]Transaction, error) {
	return s.ListTransactions(ctx, TransactionFilter{
		ReferenceType: RefFolioTransaction,
		ReferenceName: string(id),
	})
}

// mutableMirror reports whether a mirror copy can follow its source.
func (l *Ledger) mutableMirror(ctx context.Context, s Store, m Transaction) (bool, error) {
	if m.IsInvoiced {
		l.Log.Warn("mirror copy is invoiced, leaving it in place",
			slog.String("transaction", string(m.ID)), slog.String("folio", string(m.FolioID)))
		return false, nil
	}
	mf, err := s.GetFolio(ctx, m.FolioID)
	if err != nil {
		return false, err
	}
	if mf.Status.IsTerminal() {
		l.Log.Warn("mirror copy sits on a closed folio, leaving it in place",
			slog.String("transaction", string(m.ID)), slog.String("folio", string(m.FolioID)))
		return false, nil
	}
	return true, nil
}

func sameAmounts(a, b Transaction) bool {
	return a.Amount.Equal(b.Amount) && a.Qty.Equal(b.Qty) && a.ItemCode == b.ItemCode &&
		a.BillTo == b.BillTo && a.PostingDate.Equal(b.PostingDate)
}

func sameTransaction(a, b Transaction) bool {
	return sameAmounts(a, b) &&
		a.ID == b.ID &&
		a.FolioID == b.FolioID &&
		a.Description == b.Description &&
		a.IsVoid == b.IsVoid &&
		a.VoidReason == b.VoidReason &&
		a.IsInvoiced == b.IsInvoiced &&
		a.ReferenceType == b.ReferenceType &&
		a.ReferenceName == b.ReferenceName
}
