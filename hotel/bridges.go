package hotel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// POS BRIDGE
// =============================================================================

// POSLine is one item on a submitted POS invoice.
type POSLine struct {
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Qty      decimal.Decimal `json:"qty"`
	Amount   decimal.Decimal `json:"amount"`
}

// POSPayment is one payment-mode split of a POS invoice.
type POSPayment struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
}

// POSSale is a submitted POS invoice.
type POSSale struct {
	ID          string          `json:"id"`
	RoomID      folio.RoomID    `json:"room_id"`
	PostingDate folio.Date      `json:"posting_date"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Items       []POSLine       `json:"items"`
	Payments    []POSPayment    `json:"payments"`
}

// RoomChargeTotal is the part of the sale paid by charging the room.
func (p POSSale) RoomChargeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, pay := range p.Payments {
		if pay.Mode == RoomChargeMode {
			total = total.Add(pay.Amount)
		}
	}
	return total
}

// PostPOSSale posts each line of a sale to the room's Open folio, scaled by
// the room-charge share of the grand total. Lines arrive already invoiced by
// the POS. A sale with no room-charge payment posts nothing; a sale already
// on the folio returns the existing postings.
func (h *Hotel) PostPOSSale(ctx context.Context, hc folio.HotelContext, sale POSSale) ([]folio.Transaction, error) {
	charged := sale.RoomChargeTotal()
	if !charged.IsPositive() {
		return nil, nil
	}
	if sale.ID == "" {
		return nil, fmt.Errorf("pos sale needs an id: %w", folio.ErrInvalidInput)
	}
	if sale.RoomID == "" {
		return nil, fmt.Errorf("select a hotel room for the room charge: %w", folio.ErrInvalidInput)
	}

	ratio := decimal.NewFromInt(1)
	if sale.GrandTotal.IsPositive() {
		ratio = charged.Div(sale.GrandTotal)
	}

	var posted []folio.Transaction
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		open, err := s.ListFolios(ctx, folio.FolioFilter{
			RoomID:        sale.RoomID,
			Statuses:      []folio.FolioStatus{folio.FolioOpen},
			CompanyMaster: folio.Bool(false),
		})
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return fmt.Errorf("no open folio for room %s: %w", sale.RoomID, folio.ErrNotFound)
		}
		f := open[0]

		existing, err := s.ListTransactions(ctx, folio.TransactionFilter{
			FolioID: f.ID, ReferenceType: folio.RefPOSInvoice, ReferenceName: sale.ID,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			posted = existing
			return nil
		}

		billTo := folio.BillToGuest
		if companyGuest, err := h.Engine.Folios.IsCompanyGuest(ctx, s, f); err != nil {
			return err
		} else if companyGuest {
			billTo = folio.BillToCompany
		}

		for _, line := range sale.Items {
			qty := line.Qty
			if qty.IsZero() {
				qty = decimal.NewFromInt(1)
			}
			t, err := h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
				FolioID:       f.ID,
				PostingDate:   sale.PostingDate,
				ItemCode:      line.ItemCode,
				Description:   fmt.Sprintf("%s (POS: %s)", line.ItemName, sale.ID),
				Qty:           qty,
				Amount:        line.Amount.Mul(ratio).Round(2),
				BillTo:        billTo,
				ReferenceType: folio.RefPOSInvoice,
				ReferenceName: sale.ID,
				IsInvoiced:    true,
			})
			if err != nil {
				return fmt.Errorf("post pos line %s: %w", line.ItemCode, err)
			}
			posted = append(posted, t)
		}
		_, err = h.Engine.Aggregator.Recompute(ctx, s, hc, f.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	h.Log.Info("pos sale posted",
		slog.String("sale", sale.ID),
		slog.String("room", string(sale.RoomID)),
		slog.Int("lines", len(posted)))
	return posted, nil
}

// =============================================================================
// PAYMENT BRIDGE
// =============================================================================

// Payment is a submitted payment entry. Reference is expected to hold the
// folio id being paid.
type Payment struct {
	ID          string          `json:"id"`
	Reference   folio.FolioID   `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	PostingDate folio.Date      `json:"posting_date"`
}

// PostPayment credits the referenced folio. A payment whose reference does
// not name a folio is not ours and is ignored (ok == false). Re-submitting
// the same payment returns the existing credit.
func (h *Hotel) PostPayment(ctx context.Context, hc folio.HotelContext, p Payment) (tx folio.Transaction, ok bool, err error) {
	if p.Reference == "" {
		return folio.Transaction{}, false, nil
	}
	if p.ID == "" || p.Amount.IsZero() {
		return folio.Transaction{}, false, fmt.Errorf("payment needs an id and an amount: %w", folio.ErrInvalidInput)
	}

	err = h.Store.WithTx(ctx, func(s folio.Store) error {
		if _, err := s.GetFolio(ctx, p.Reference); err != nil {
			if folio.IsNotFound(err) {
				return nil
			}
			return err
		}
		existing, err := s.ListTransactions(ctx, folio.TransactionFilter{
			FolioID: p.Reference, ReferenceType: folio.RefPaymentEntry, ReferenceName: p.ID,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			tx, ok = existing[0], true
			return nil
		}
		if err := ensureItem(ctx, s, folio.ItemPayment, "Payment Credit", folio.GroupServices); err != nil {
			return err
		}
		tx, err = h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
			FolioID:       p.Reference,
			PostingDate:   p.PostingDate,
			ItemCode:      folio.ItemPayment,
			Description:   fmt.Sprintf("Payment Entry: %s (%s)", p.ID, p.Mode),
			Qty:           decimal.NewFromInt(1),
			Amount:        p.Amount.Abs().Neg(),
			BillTo:        folio.BillToGuest,
			ReferenceType: folio.RefPaymentEntry,
			ReferenceName: p.ID,
		})
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return folio.Transaction{}, false, err
	}
	if ok {
		h.Log.Info("payment recorded",
			slog.String("payment", p.ID),
			slog.String("folio", string(p.Reference)),
			slog.String("amount", p.Amount.Abs().String()))
	}
	return tx, ok, nil
}

// =============================================================================
// LEDGERS
// =============================================================================

// CityLedger lists Open company master folios: direct-bill receivables. An
// empty company lists all companies.
func (h *Hotel) CityLedger(ctx context.Context, company folio.CompanyID) ([]folio.Folio, error) {
	return h.Store.ListFolios(ctx, folio.FolioFilter{
		Statuses:      []folio.FolioStatus{folio.FolioOpen},
		CompanyID:     company,
		CompanyMaster: folio.Bool(true),
	})
}

// GuestLedger lists Open private-pay folios that carry a balance.
func (h *Hotel) GuestLedger(ctx context.Context) ([]folio.Folio, error) {
	open, err := h.Store.ListFolios(ctx, folio.FolioFilter{
		Statuses:      []folio.FolioStatus{folio.FolioOpen},
		CompanyMaster: folio.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var out []folio.Folio
	for _, f := range open {
		if f.CompanyID != "" || f.IsGroupMaster() || f.OutstandingBalance.IsZero() {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
