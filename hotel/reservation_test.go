package hotel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func TestCreateReservation_OpensProvisionalFolio(t *testing.T) {
	f := newFixture(t)

	r := f.reserve(t)

	require.NotEmpty(t, r.FolioID)
	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioProvisional, fo.Status)
	assert.Equal(t, r.ID, fo.ReservationID)
	assert.Equal(t, folio.RoomID("R101"), fo.RoomID)
	assert.Equal(t, monday, fo.OpenDate)
}

func TestCreateReservation_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.hotel.CreateReservation(f.ctx, f.hc, folio.Reservation{
		GuestID: "G-1", RoomID: "R101", Arrival: monday, Departure: monday,
	})
	assert.ErrorIs(t, err, folio.ErrInvalidDates)

	_, err = f.hotel.CreateReservation(f.ctx, f.hc, folio.Reservation{
		GuestID: "G-1", RoomID: "R101", Arrival: monday, Departure: monday.AddDays(1), IsCompanyGuest: true,
	})
	assert.ErrorIs(t, err, folio.ErrMissingCompany)

	// Nothing was stored by the failed attempts.
	err = f.hotel.CheckAvailability(f.ctx, "R101", monday, monday.AddDays(1), "")
	assert.NoError(t, err)
}

func TestCreateReservation_EnsuresCompanyMaster(t *testing.T) {
	f := newFixture(t)

	f.reserve(t, func(r *folio.Reservation) { r.CompanyID = "ACME"; r.IsCompanyGuest = true })
	f.reserve(t, func(r *folio.Reservation) { r.CompanyID = "ACME"; r.RoomID = "R102"; r.GuestID = "G-2" })

	master := f.companyMaster(t, "ACME")
	assert.True(t, master.IsCompanyMaster)
	assert.Equal(t, folio.FolioOpen, master.Status)
	assert.Empty(t, master.ReservationID)
}

func TestUpdateReservation_RevalidatesAndSyncsFolio(t *testing.T) {
	f := newFixture(t)
	a := f.reserve(t)
	b := f.reserve(t, func(r *folio.Reservation) { r.RoomID = "R102"; r.GuestID = "G-2" })

	// Moving B onto A's room is a conflict.
	b.RoomID = "R101"
	_, err := f.hotel.UpdateReservation(f.ctx, f.hc, b)
	require.ErrorIs(t, err, folio.ErrRoomUnavailable)

	// Extending A is fine; status cannot be smuggled in.
	a.Departure = monday.AddDays(4)
	a.Status = folio.ReservationCheckedOut
	a.RoomID = "R103"
	updated, err := f.hotel.UpdateReservation(f.ctx, f.hc, a)
	require.NoError(t, err)
	assert.Equal(t, folio.ReservationReserved, updated.Status)
	assert.Equal(t, folio.RoomID("R103"), f.folio(t, a.FolioID).RoomID)
}

func TestCheckIn_OpensFolioAndBillsFirstNight(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t)

	in, err := f.hotel.CheckIn(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	assert.Equal(t, folio.ReservationCheckedIn, in.Status)
	assert.Equal(t, folio.RoomOccupied, f.room(t, "R101").Status)
	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioOpen, fo.Status)
	assert.True(t, fo.OutstandingBalance.Equal(money("100")))

	rent := f.transactions(t, r.FolioID, folio.ItemRoomRent)
	require.Len(t, rent, 1)
	assert.Equal(t, "Room Charge - R101", rent[0].Description)
	assert.Equal(t, folio.BillToGuest, rent[0].BillTo)

	_, err = f.hotel.CheckIn(f.ctx, f.hc, r.ID)
	assert.ErrorIs(t, err, folio.ErrInvalidTransition)
}

func TestCheckIn_BeforeArrivalRefused(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t, func(r *folio.Reservation) { r.Arrival, r.Departure = monday.AddDays(1), monday.AddDays(3) })

	_, err := f.hotel.CheckIn(f.ctx, f.hc, r.ID)

	var tr *folio.TransitionError
	require.ErrorAs(t, err, &tr)
	assert.Contains(t, tr.Reason, "arrival")
	assert.Equal(t, folio.ReservationReserved, f.reservation(t, r.ID).Status)
}

func TestCheckIn_ComplimentaryNetsToZero(t *testing.T) {
	f := newFixture(t)

	r := f.checkedIn(t, func(r *folio.Reservation) { r.IsComplimentary = true })

	txs := f.transactions(t, r.FolioID)
	require.Len(t, txs, 2)
	assert.Equal(t, folio.ItemRoomRent, txs[0].ItemCode)
	assert.True(t, txs[0].Amount.Equal(money("100")))
	assert.Equal(t, folio.ItemComplimentary, txs[1].ItemCode)
	assert.True(t, txs[1].Amount.Equal(money("-100")))
	assert.True(t, f.folio(t, r.FolioID).OutstandingBalance.IsZero())
}

func TestCheckIn_Discounts(t *testing.T) {
	tests := []struct {
		name  string
		kind  folio.DiscountType
		value string
		comp  bool
		want  string
	}{
		{"percentage", folio.DiscountPercentage, "10", false, "-10"},
		{"fixed amount", folio.DiscountAmount, "25", false, "-25"},
		{"complimentary wins over discount", folio.DiscountPercentage, "10", true, "-100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.checkedIn(t, func(r *folio.Reservation) {
				r.DiscountType = tt.kind
				r.DiscountValue = money(tt.value)
				r.IsComplimentary = tt.comp
			})

			off := f.transactions(t, r.FolioID, folio.ItemDiscount, folio.ItemComplimentary)
			require.Len(t, off, 1)
			assert.True(t, off[0].Amount.Equal(money(tt.want)), "got %s", off[0].Amount)
		})
	}
}

func TestCheckIn_RoutingRuleBillsCompany(t *testing.T) {
	f := newFixture(t)

	r := f.checkedIn(t, func(r *folio.Reservation) {
		r.CompanyID = "ACME"
		r.Routing = []folio.RoutingRule{{ItemGroup: folio.GroupAccommodation, BillTo: folio.BillToCompany}}
	})

	rent := f.transactions(t, r.FolioID, folio.ItemRoomRent)
	require.Len(t, rent, 1)
	assert.Equal(t, folio.BillToCompany, rent[0].BillTo)
	assert.True(t, f.companyMaster(t, "ACME").OutstandingBalance.Equal(money("100")))
}

func TestCheckOut_PrivateGuestMustSettle(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) { r.Departure = monday.AddDays(1) })

	// Departure is tomorrow.
	_, err := f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.ErrorIs(t, err, folio.ErrInvalidTransition)

	f.day = monday.AddDays(1)
	_, err = f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	var balErr *folio.BalanceError
	require.ErrorAs(t, err, &balErr)
	assert.True(t, balErr.Balance.Equal(money("100")))
	assert.Equal(t, folio.ReservationCheckedIn, f.reservation(t, r.ID).Status)
	assert.Equal(t, folio.FolioOpen, f.folio(t, r.FolioID).Status)

	f.pay(t, r.FolioID, "PE-1", "100")
	out, err := f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	assert.Equal(t, folio.ReservationCheckedOut, out.Status)
	assert.Equal(t, folio.RoomDirty, f.room(t, "R101").Status)
	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioClosed, fo.Status)
	assert.Equal(t, monday.AddDays(1), fo.CloseDate)
}

func TestCheckOut_CompanySettlementIsZeroSum(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) {
		r.CompanyID = "ACME"
		r.IsCompanyGuest = true
		r.Departure = monday.AddDays(1)
	})
	master := f.companyMaster(t, "ACME")

	companyTagged := func() string {
		txs, err := f.store.ListTransactions(f.ctx, folio.TransactionFilter{
			FolioID: r.FolioID, BillTo: folio.BillToCompany, ExcludeVoid: true,
		})
		require.NoError(t, err)
		return sum(txs).String()
	}

	// GIVEN: C = 100 company-billed, mirrored to the master
	assert.Equal(t, "100", companyTagged())
	assert.True(t, f.folio(t, master.ID).OutstandingBalance.Equal(money("100")))

	// WHEN
	f.day = monday.AddDays(1)
	_, err := f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	// THEN: guest side down by exactly C, master carries exactly C
	assert.Equal(t, "0", companyTagged())
	transfer := f.transactions(t, r.FolioID, folio.ItemTransfer)
	require.Len(t, transfer, 1)
	assert.True(t, transfer[0].Amount.Equal(money("-100")))
	assert.True(t, f.folio(t, master.ID).OutstandingBalance.Equal(money("100")))

	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioClosed, fo.Status)
	assert.True(t, fo.OutstandingBalance.IsZero())
}

func TestCheckOut_CompanySettlementAfterRateCorrection(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) {
		r.CompanyID = "ACME"
		r.IsCompanyGuest = true
		r.Departure = monday.AddDays(1)
	})
	master := f.companyMaster(t, "ACME")

	// GIVEN: the first night corrected from 100 to 80
	rent := f.transactions(t, r.FolioID, folio.ItemRoomRent)
	require.Len(t, rent, 1)
	rent[0].Amount = money("80")
	_, err := f.eng.Save(f.ctx, f.hc, rent[0])
	require.NoError(t, err)
	assert.True(t, f.folio(t, master.ID).OutstandingBalance.Equal(money("80")))

	// WHEN
	f.day = monday.AddDays(1)
	_, err = f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	// THEN: the master carries exactly what left the guest folio
	transfer := f.transactions(t, r.FolioID, folio.ItemTransfer)
	require.Len(t, transfer, 1)
	assert.True(t, transfer[0].Amount.Equal(money("-80")))
	assert.True(t, f.folio(t, master.ID).OutstandingBalance.Equal(money("80")))
	assert.True(t, f.folio(t, r.FolioID).OutstandingBalance.IsZero())
}

func TestCheckOut_CompanyGuestMayLeaveBalance(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) {
		r.CompanyID = "ACME"
		r.IsCompanyGuest = true
		r.Departure = monday.AddDays(1)
	})
	_, err := f.eng.Post(f.ctx, f.hc, folio.Transaction{FolioID: r.FolioID, ItemCode: "BAR", Amount: money("30")})
	require.NoError(t, err)

	f.day = monday.AddDays(1)
	_, err = f.hotel.CheckOut(f.ctx, f.hc, r.ID)

	require.NoError(t, err)
	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioClosed, fo.Status)
	assert.True(t, fo.OutstandingBalance.Equal(money("30")))
	assert.Equal(t, 1, f.notices.count("Company Guest Checkout"))
}

func TestCheckOut_OverpaymentBecomesStandingCredit(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) {
		r.CompanyID = "ACME"
		r.IsCompanyGuest = true
		r.Departure = monday.AddDays(1)
	})
	f.pay(t, r.FolioID, "PE-9", "40")

	f.day = monday.AddDays(1)
	_, err := f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	// 100 company-billed is transferred out, leaving the 40 payment as credit.
	assert.True(t, f.folio(t, r.FolioID).OutstandingBalance.Equal(money("-40")))
	assert.True(t, f.credits.balances["G-1"].Equal(money("40")))

	// The next stay starts with the credit applied.
	next := f.reserve(t, func(r *folio.Reservation) { r.RoomID = "R102" })
	assert.True(t, f.folio(t, next.FolioID).OutstandingBalance.Equal(money("-40")))
	assert.True(t, f.credits.balances["G-1"].IsZero())
}

func TestCancel_CascadesToFolio(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(t)

	cancelled, err := f.hotel.Cancel(f.ctx, f.hc, r.ID)
	require.NoError(t, err)
	assert.Equal(t, folio.ReservationCancelled, cancelled.Status)
	assert.Equal(t, folio.FolioCancelled, f.folio(t, r.FolioID).Status)

	in := f.checkedIn(t, func(r *folio.Reservation) { r.RoomID = "R102" })
	_, err = f.hotel.Cancel(f.ctx, f.hc, in.ID)
	assert.ErrorIs(t, err, folio.ErrInvalidTransition)
}

func TestMoveRoom(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t)
	f.reserve(t, func(r *folio.Reservation) { r.RoomID = "R103"; r.GuestID = "G-2" })

	_, err := f.hotel.MoveRoom(f.ctx, f.hc, r.ID, "R103")
	require.ErrorIs(t, err, folio.ErrRoomUnavailable)

	_, err = f.hotel.MoveRoom(f.ctx, f.hc, r.ID, "R101")
	require.ErrorIs(t, err, folio.ErrInvalidInput)

	moved, err := f.hotel.MoveRoom(f.ctx, f.hc, r.ID, "R102")
	require.NoError(t, err)
	assert.Equal(t, folio.RoomID("R102"), moved.RoomID)
	assert.Equal(t, folio.RoomDirty, f.room(t, "R101").Status)
	assert.Equal(t, folio.RoomOccupied, f.room(t, "R102").Status)
	assert.Equal(t, folio.RoomID("R102"), f.folio(t, r.FolioID).RoomID)
	require.NotEmpty(t, moved.Notes)
	assert.Contains(t, moved.Notes[len(moved.Notes)-1], "Moved from Room R101 to Room R102")
}
