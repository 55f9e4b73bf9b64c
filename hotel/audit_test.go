package hotel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func TestNightAudit_ChargesEachNightOnce(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t)

	// Check-in already billed Monday.
	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Charged)
	assert.Empty(t, res.Errors)

	f.day = monday.AddDays(1)
	res, err = f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Charged)
	assert.Equal(t, f.day, res.Date)

	res, err = f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Charged)

	rent := f.transactions(t, r.FolioID, folio.ItemRoomRent)
	require.Len(t, rent, 2)
	assert.Equal(t, monday, rent[0].PostingDate)
	assert.Equal(t, monday.AddDays(1), rent[1].PostingDate)
	assert.True(t, f.folio(t, r.FolioID).OutstandingBalance.Equal(money("200")))
}

func TestNightAudit_ExtendsOverstay(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) { r.Departure = monday.AddDays(1) })

	f.day = monday.AddDays(1)
	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Extended)
	assert.Equal(t, 1, res.Charged)
	got := f.reservation(t, r.ID)
	assert.Equal(t, monday.AddDays(2), got.Departure)
	require.Len(t, got.Notes, 1)
	assert.Contains(t, got.Notes[0], "Auto-extended")
	assert.Contains(t, got.Notes[0], monday.AddDays(1).String())
}

func TestNightAudit_DepartureDayGuestChecksOutFirst(t *testing.T) {
	f := newFixture(t)
	r := f.checkedIn(t, func(r *folio.Reservation) { r.Departure = monday.AddDays(1) })

	// GIVEN: departure morning, the guest settles and leaves
	f.day = monday.AddDays(1)
	f.pay(t, r.FolioID, "PE-1", "100")
	_, err := f.hotel.CheckOut(f.ctx, f.hc, r.ID)
	require.NoError(t, err)

	// WHEN: the audit runs that afternoon
	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)

	// THEN: the departed stay is neither extended nor charged
	assert.Equal(t, 0, res.Extended)
	assert.Equal(t, 0, res.Charged)
	assert.Empty(t, res.Errors)
	got := f.reservation(t, r.ID)
	assert.Equal(t, folio.ReservationCheckedOut, got.Status)
	assert.Equal(t, monday.AddDays(1), got.Departure)
	assert.Empty(t, got.Notes)
	fo := f.folio(t, r.FolioID)
	assert.Equal(t, folio.FolioClosed, fo.Status)
	assert.True(t, fo.OutstandingBalance.IsZero())
	assert.Len(t, f.transactions(t, r.FolioID, folio.ItemRoomRent), 1)
}

func TestNightAudit_FailureDoesNotStopBatch(t *testing.T) {
	f := newFixture(t)
	broken := f.checkedIn(t)
	healthy := f.checkedIn(t, func(r *folio.Reservation) { r.RoomID = "R102"; r.GuestID = "G-2" })

	// A folio closed behind the audit's back refuses postings.
	fo := f.folio(t, broken.FolioID)
	fo.Status = folio.FolioClosed
	require.NoError(t, f.store.UpdateFolio(f.ctx, fo))

	f.day = monday.AddDays(1)
	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Charged)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], string(broken.ID))
	assert.Len(t, f.transactions(t, healthy.FolioID, folio.ItemRoomRent), 2)
	assert.Len(t, f.transactions(t, broken.FolioID, folio.ItemRoomRent), 1)
}

func TestNightAudit_AccommodationItemCountsAsRent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutItem(f.ctx, folio.Item{Code: "LATE-RENT", Name: "Manual Rent", ItemGroup: folio.GroupAccommodation}))
	r := f.checkedIn(t)

	f.day = monday.AddDays(1)
	_, err := f.eng.Post(f.ctx, f.hc, folio.Transaction{FolioID: r.FolioID, ItemCode: "LATE-RENT", Amount: money("90")})
	require.NoError(t, err)

	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Charged)
	assert.Len(t, f.transactions(t, r.FolioID, folio.ItemRoomRent), 1)
}

func TestNightAudit_UsesRatePlanInsideWindow(t *testing.T) {
	f := newFixture(t)
	plan, err := f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "DLX", Rate: money("80"), Active: true,
		ValidFrom: monday.AddDays(1), ValidTo: monday.AddDays(1),
	})
	require.NoError(t, err)
	r := f.checkedIn(t, func(r *folio.Reservation) { r.RatePlanID = plan.ID; r.Departure = monday.AddDays(3) })

	for _, day := range []int{1, 2} {
		f.day = monday.AddDays(day)
		_, err := f.hotel.RunNightAudit(f.ctx, f.hc)
		require.NoError(t, err)
	}

	rent := f.transactions(t, r.FolioID, folio.ItemRoomRent)
	require.Len(t, rent, 3)
	assert.True(t, rent[0].Amount.Equal(money("100")), "monday falls before the plan")
	assert.True(t, rent[1].Amount.Equal(money("80")))
	assert.True(t, rent[2].Amount.Equal(money("100")), "wednesday falls after the plan")
}

func TestNightAudit_ZeroRatePostsNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutRoomType(f.ctx, folio.RoomType{ID: "FREE", Name: "Staff"}))
	r := f.checkedIn(t, func(r *folio.Reservation) { r.RoomTypeID = "FREE" })

	f.day = monday.AddDays(1)
	res, err := f.hotel.RunNightAudit(f.ctx, f.hc)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Charged)
	assert.Empty(t, f.transactions(t, r.FolioID))
}
