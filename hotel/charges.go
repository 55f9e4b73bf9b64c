package hotel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// ROOM CHARGES
// =============================================================================
//
// One nightly charge is a ROOM-RENT posting plus, when the stay carries one,
// an offsetting COMPLIMENTARY or DISCOUNT posting with the same bill_to.
// Company- and group-billed postings reach the master folios through the
// engine's mirror router.

var hundred = decimal.NewFromInt(100)

// BillToFor resolves who pays the room rent of r, in priority order:
// company guest, group guest with a group, routing rule for the rent item
// group, guest.
func BillToFor(r folio.Reservation, rentGroup string) folio.BillTo {
	switch {
	case r.IsCompanyGuest:
		return folio.BillToCompany
	case r.IsGroupGuest && r.GroupBookingID != "":
		return folio.BillToGroup
	}
	for _, rule := range r.Routing {
		if rule.ItemGroup == rentGroup && rule.BillTo.Valid() {
			return rule.BillTo
		}
	}
	return folio.BillToGuest
}

// Allowance returns the offset item, description and (positive) amount
// applied against a base room rate. Complimentary wins over discounts.
func Allowance(r folio.Reservation, base decimal.Decimal) (item, description string, amount decimal.Decimal) {
	switch {
	case r.IsComplimentary:
		return folio.ItemComplimentary, "Complimentary Adjustment", base
	case r.DiscountType == folio.DiscountPercentage:
		return folio.ItemDiscount, fmt.Sprintf("Room Discount (%s%%)", r.DiscountValue),
			base.Mul(r.DiscountValue).Div(hundred)
	case r.DiscountType == folio.DiscountAmount:
		return folio.ItemDiscount, "Room Discount (Fixed)", r.DiscountValue
	}
	return "", "", decimal.Zero
}

// AlreadyChargedToday reports whether the folio holds a non-void room-rent
// posting dated date: item ROOM-RENT or any item in the Accommodation group.
func AlreadyChargedToday(ctx context.Context, s folio.Store, id folio.FolioID, date folio.Date) (bool, error) {
	txs, err := s.ListTransactions(ctx, folio.TransactionFilter{FolioID: id, PostingDate: date, ExcludeVoid: true})
	if err != nil {
		return false, err
	}
	for _, t := range txs {
		if t.ItemCode == folio.ItemRoomRent {
			return true, nil
		}
		if t.ItemCode == "" {
			continue
		}
		it, err := s.GetItem(ctx, t.ItemCode)
		if folio.IsNotFound(err) {
			continue
		}
		if err != nil {
			return false, err
		}
		if it.ItemGroup == folio.GroupAccommodation {
			return true, nil
		}
	}
	return false, nil
}

// PostRoomCharge posts one night of rent for r at base, plus its allowance,
// then recomputes the folio once.
func (h *Hotel) PostRoomCharge(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation, base decimal.Decimal, date folio.Date) ([]folio.Transaction, error) {
	if r.FolioID == "" {
		return nil, nil
	}
	if err := ensureItem(ctx, s, folio.ItemRoomRent, "Room Rent", folio.GroupAccommodation); err != nil {
		return nil, err
	}
	rent, err := s.GetItem(ctx, folio.ItemRoomRent)
	if err != nil {
		return nil, err
	}
	billTo := BillToFor(r, rent.ItemGroup)

	charge, err := h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
		FolioID:     r.FolioID,
		PostingDate: date,
		ItemCode:    folio.ItemRoomRent,
		Description: fmt.Sprintf("Room Charge - %s", r.RoomID),
		Qty:         decimal.NewFromInt(1),
		Amount:      base,
		BillTo:      billTo,
	})
	if err != nil {
		return nil, fmt.Errorf("post room charge: %w", err)
	}
	posted := []folio.Transaction{charge}

	item, desc, off := Allowance(r, base)
	if off.IsPositive() {
		if err := ensureItem(ctx, s, item, desc, folio.GroupServices); err != nil {
			return nil, err
		}
		allowance, err := h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
			FolioID:     r.FolioID,
			PostingDate: date,
			ItemCode:    item,
			Description: desc,
			Qty:         decimal.NewFromInt(1),
			Amount:      off.Neg(),
			BillTo:      billTo,
		})
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", item, err)
		}
		posted = append(posted, allowance)
	}

	if _, err := h.Engine.Aggregator.Recompute(ctx, s, hc, r.FolioID); err != nil {
		return nil, err
	}
	return posted, nil
}

// chargeTonight bills date for r unless a room-rent posting already exists.
// It reports whether anything was posted.
func (h *Hotel) chargeTonight(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation, date folio.Date) (bool, error) {
	if r.FolioID == "" {
		return false, nil
	}
	charged, err := AlreadyChargedToday(ctx, s, r.FolioID, date)
	if err != nil || charged {
		return false, err
	}
	rate, err := ResolveRate(ctx, s, r, date)
	if err != nil {
		return false, err
	}
	if !rate.IsPositive() {
		return false, nil
	}
	if _, err := h.PostRoomCharge(ctx, s, hc, r, rate, date); err != nil {
		return false, err
	}
	return true, nil
}
