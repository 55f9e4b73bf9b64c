package hotel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func TestSaveRatePlan_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		plan    folio.RatePlan
		wantErr error
	}{
		{"missing room type", folio.RatePlan{Rate: money("90"), ValidFrom: monday, ValidTo: monday}, folio.ErrInvalidInput},
		{"reversed window", folio.RatePlan{RoomTypeID: "DLX", Rate: money("90"), ValidFrom: monday.AddDays(3), ValidTo: monday}, folio.ErrInvalidDates},
		{"negative rate", folio.RatePlan{RoomTypeID: "DLX", Rate: money("-1"), ValidFrom: monday, ValidTo: monday}, folio.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.hotel.SaveRatePlan(f.ctx, tt.plan)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSaveRatePlan_RejectsOverlappingActivePlans(t *testing.T) {
	f := newFixture(t)
	spring, err := f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "DLX", Rate: money("120"), Active: true, ValidFrom: monday, ValidTo: monday.AddDays(6),
	})
	require.NoError(t, err)

	// Shares the last day.
	_, err = f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "DLX", Rate: money("130"), Active: true, ValidFrom: monday.AddDays(6), ValidTo: monday.AddDays(9),
	})
	require.ErrorIs(t, err, folio.ErrInvalidInput)
	assert.Contains(t, err.Error(), spring.ID)

	// Inactive plans and other room types do not clash.
	_, err = f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "DLX", Rate: money("130"), ValidFrom: monday, ValidTo: monday.AddDays(6),
	})
	assert.NoError(t, err)
	_, err = f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "STD", Rate: money("70"), Active: true, ValidFrom: monday, ValidTo: monday.AddDays(6),
	})
	assert.NoError(t, err)

	// Re-saving the same plan does not clash with itself.
	spring.Rate = money("125")
	_, err = f.hotel.SaveRatePlan(f.ctx, spring)
	assert.NoError(t, err)
}

func TestResolveRate(t *testing.T) {
	f := newFixture(t)
	plan, err := f.hotel.SaveRatePlan(f.ctx, folio.RatePlan{
		RoomTypeID: "DLX", Rate: money("75"), Active: true, ValidFrom: monday, ValidTo: monday.AddDays(1),
	})
	require.NoError(t, err)
	r := f.reserve(t, func(r *folio.Reservation) { r.RatePlanID = plan.ID; r.Departure = monday.AddDays(4) })

	tests := []struct {
		day  int
		want string
	}{
		{0, "75"},
		{1, "75"},
		{2, "100"},
	}
	for _, tt := range tests {
		rate, err := f.hotel.ResolveRate(f.ctx, r.ID, monday.AddDays(tt.day))
		require.NoError(t, err)
		assert.True(t, rate.Equal(money(tt.want)), "day %d: got %s", tt.day, rate)
	}

	missing := f.reserve(t, func(r *folio.Reservation) { r.RoomID = "R102"; r.RoomTypeID = "NOPE"; r.RatePlanID = "RATE-GONE" })
	rate, err := f.hotel.ResolveRate(f.ctx, missing.ID, monday)
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}
