package hotel_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
)

func splitSale(room folio.RoomID) hotel.POSSale {
	return hotel.POSSale{
		ID:         "POS-0001",
		RoomID:     room,
		GrandTotal: money("60"),
		Items: []hotel.POSLine{
			{ItemCode: "BAR", ItemName: "Cocktail", Qty: decimal.NewFromInt(2), Amount: money("40")},
			{ItemCode: "BAR", ItemName: "Snacks", Qty: decimal.NewFromInt(1), Amount: money("20")},
		},
		Payments: []hotel.POSPayment{
			{Mode: hotel.RoomChargeMode, Amount: money("30")},
			{Mode: "Cash", Amount: money("30")},
		},
	}
}

func TestPostPOSSale_ScalesToRoomChargeShare(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t)

	posted, err := f.hotel.PostPOSSale(f.ctx, f.hc, splitSale("R101"))
	require.NoError(t, err)

	require.Len(t, posted, 2)
	assert.True(t, posted[0].Amount.Equal(money("20")))
	assert.True(t, posted[1].Amount.Equal(money("10")))
	assert.Equal(t, "Cocktail (POS: POS-0001)", posted[0].Description)
	for _, tx := range posted {
		assert.True(t, tx.IsInvoiced)
		assert.Equal(t, folio.RefPOSInvoice, tx.ReferenceType)
		assert.Equal(t, folio.BillToGuest, tx.BillTo)
	}
	assert.True(t, sum(posted).Equal(money("30")))
	assert.True(t, f.folio(t, r.FolioID).OutstandingBalance.Equal(money("130")))

	// Re-submission returns the same postings.
	again, err := f.hotel.PostPOSSale(f.ctx, f.hc, splitSale("R101"))
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Len(t, f.transactions(t, r.FolioID, "BAR"), 2)
}

func TestPostPOSSale_NoRoomChargeOrNoFolio(t *testing.T) {
	f := newFixture(t)
	f.checkedIn(t)

	cash := splitSale("R101")
	cash.Payments = []hotel.POSPayment{{Mode: "Cash", Amount: money("60")}}
	posted, err := f.hotel.PostPOSSale(f.ctx, f.hc, cash)
	require.NoError(t, err)
	assert.Empty(t, posted)

	_, err = f.hotel.PostPOSSale(f.ctx, f.hc, splitSale("R104"))
	assert.ErrorIs(t, err, folio.ErrNotFound)

	_, err = f.hotel.PostPOSSale(f.ctx, f.hc, splitSale(""))
	assert.ErrorIs(t, err, folio.ErrInvalidInput)
}

func TestPostPOSSale_CompanyGuestBillsCompany(t *testing.T) {
	f := newFixture(t)
	f.checkedIn(t, func(r *folio.Reservation) { r.CompanyID = "ACME"; r.IsCompanyGuest = true })

	posted, err := f.hotel.PostPOSSale(f.ctx, f.hc, splitSale("R101"))
	require.NoError(t, err)

	for _, tx := range posted {
		assert.Equal(t, folio.BillToCompany, tx.BillTo)
	}
	// 100 room + 30 POS mirrored to the city ledger.
	assert.True(t, f.companyMaster(t, "ACME").OutstandingBalance.Equal(money("130")))
}

func TestPostPayment(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t)

	tx, ok, err := f.hotel.PostPayment(f.ctx, f.hc, hotel.Payment{ID: "PE-1", Reference: r.FolioID, Amount: money("60"), Mode: "Card"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tx.Amount.Equal(money("-60")))
	assert.Equal(t, folio.ItemPayment, tx.ItemCode)
	assert.Equal(t, "Payment Entry: PE-1 (Card)", tx.Description)

	again, ok, err := f.hotel.PostPayment(f.ctx, f.hc, hotel.Payment{ID: "PE-1", Reference: r.FolioID, Amount: money("60"), Mode: "Card"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tx.ID, again.ID)

	fo := f.folio(t, r.FolioID)
	assert.True(t, fo.TotalPayments.Equal(money("60")))
	assert.True(t, fo.OutstandingBalance.Equal(money("40")))

	_, ok, err = f.hotel.PostPayment(f.ctx, f.hc, hotel.Payment{ID: "PE-2", Reference: "SINV-42", Amount: money("10")})
	require.NoError(t, err)
	assert.False(t, ok, "references that are not folios are ignored")

	_, _, err = f.hotel.PostPayment(f.ctx, f.hc, hotel.Payment{ID: "PE-3", Reference: r.FolioID})
	assert.ErrorIs(t, err, folio.ErrInvalidInput)
}

func TestLedgers(t *testing.T) {
	f := newFixture(t)
	private := f.checkedIn(t)
	f.checkedIn(t, func(r *folio.Reservation) {
		r.RoomID, r.GuestID = "R102", "G-2"
		r.CompanyID, r.IsCompanyGuest = "ACME", true
	})
	settled := f.checkedIn(t, func(r *folio.Reservation) { r.RoomID = "R103" })
	f.pay(t, settled.FolioID, "PE-7", "100")

	guests, err := f.hotel.GuestLedger(f.ctx)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, private.FolioID, guests[0].ID)

	city, err := f.hotel.CityLedger(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, city, 1)
	assert.Equal(t, folio.CompanyID("ACME"), city[0].CompanyID)
	assert.True(t, city[0].OutstandingBalance.Equal(money("100")))
}
