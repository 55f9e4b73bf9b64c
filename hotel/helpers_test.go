package hotel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/folio/store"
	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// monday is the first day of every scenario.
var monday = folio.MustParseDate("2025-03-10")

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	ctx     context.Context
	store   *store.Memory
	eng     *folio.Engine
	hotel   *hotel.Hotel
	hc      folio.HotelContext
	day     folio.Date
	notices *recordingNotifier
	credits *stubCredits
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		store:   store.NewMemory(),
		hc:      folio.HotelContext{Company: "Grand Hotel", Actor: folio.Actor{ID: "front-desk"}},
		day:     monday,
		notices: &recordingNotifier{},
		credits: &stubCredits{balances: map[folio.GuestID]decimal.Decimal{}},
	}
	clock := folio.Clock(func() time.Time { return f.day.Time.Add(12 * time.Hour) })
	f.eng = folio.NewEngine(f.store, folio.Config{
		Clock:    clock,
		Notifier: f.notices,
		Credits:  f.credits,
	})
	f.hotel = hotel.New(f.eng)

	require.NoError(t, f.store.PutRoomType(f.ctx, folio.RoomType{ID: "DLX", Name: "Deluxe", DefaultRate: money("100")}))
	require.NoError(t, f.store.PutRoomType(f.ctx, folio.RoomType{ID: "STD", Name: "Standard", DefaultRate: money("50")}))
	for _, id := range []folio.RoomID{"R101", "R102", "R103", "R104"} {
		require.NoError(t, f.store.PutRoom(f.ctx, folio.Room{ID: id, RoomTypeID: "DLX", Status: folio.RoomAvailable, IsEnabled: true}))
	}
	require.NoError(t, f.store.PutGuest(f.ctx, folio.Guest{ID: "G-1", FullName: "Ada Lovelace"}))
	require.NoError(t, f.store.PutGuest(f.ctx, folio.Guest{ID: "G-2", FullName: "Alan Turing"}))
	require.NoError(t, f.store.PutCompany(f.ctx, folio.Company{ID: "ACME", Name: "Acme Corp"}))
	require.NoError(t, f.store.PutItem(f.ctx, folio.Item{Code: "BAR", Name: "Bar", ItemGroup: folio.GroupServices}))
	return f
}

// reserve creates a two-night DLX stay in R101 for G-1 starting today.
func (f *fixture) reserve(t *testing.T, mutate ...func(*folio.Reservation)) folio.Reservation {
	t.Helper()
	r := folio.Reservation{
		GuestID:    "G-1",
		RoomID:     "R101",
		RoomTypeID: "DLX",
		Arrival:    f.day,
		Departure:  f.day.AddDays(2),
	}
	for _, m := range mutate {
		m(&r)
	}
	created, err := f.hotel.CreateReservation(f.ctx, f.hc, r)
	require.NoError(t, err)
	return created
}

// checkedIn reserves and checks in.
func (f *fixture) checkedIn(t *testing.T, mutate ...func(*folio.Reservation)) folio.Reservation {
	t.Helper()
	r := f.reserve(t, mutate...)
	in, err := f.hotel.CheckIn(f.ctx, f.hc, r.ID)
	require.NoError(t, err)
	return in
}

func (f *fixture) folio(t *testing.T, id folio.FolioID) folio.Folio {
	t.Helper()
	fo, err := f.eng.Folio(f.ctx, id)
	require.NoError(t, err)
	return fo
}

func (f *fixture) reservation(t *testing.T, id folio.ReservationID) folio.Reservation {
	t.Helper()
	r, err := f.hotel.Reservation(f.ctx, id)
	require.NoError(t, err)
	return r
}

func (f *fixture) room(t *testing.T, id folio.RoomID) folio.Room {
	t.Helper()
	r, err := f.store.GetRoom(f.ctx, id)
	require.NoError(t, err)
	return r
}

func (f *fixture) transactions(t *testing.T, id folio.FolioID, items ...string) []folio.Transaction {
	t.Helper()
	txs, err := f.store.ListTransactions(f.ctx, folio.TransactionFilter{FolioID: id, ItemCodes: items, ExcludeVoid: true})
	require.NoError(t, err)
	return txs
}

func (f *fixture) pay(t *testing.T, id folio.FolioID, ref, amount string) {
	t.Helper()
	_, ok, err := f.hotel.PostPayment(f.ctx, f.hc, hotel.Payment{ID: ref, Reference: id, Amount: money(amount), Mode: "Cash"})
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) companyMaster(t *testing.T, company folio.CompanyID) folio.Folio {
	t.Helper()
	masters, err := f.hotel.CityLedger(f.ctx, company)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	return masters[0]
}

func sum(txs []folio.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// =============================================================================
// COLLABORATOR STUBS
// =============================================================================

type recordingNotifier struct {
	mu      sync.Mutex
	notices []folio.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n folio.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recordingNotifier) count(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.notices {
		if x.Subject == subject {
			n++
		}
	}
	return n
}

type stubCredits struct {
	balances map[folio.GuestID]decimal.Decimal
}

func (s *stubCredits) Available(_ context.Context, g folio.GuestID) (decimal.Decimal, error) {
	return s.balances[g], nil
}

func (s *stubCredits) Record(_ context.Context, g folio.GuestID, amount decimal.Decimal, _ folio.FolioID) error {
	s.balances[g] = s.balances[g].Add(amount)
	return nil
}

func (s *stubCredits) Consume(_ context.Context, g folio.GuestID, amount decimal.Decimal, _ folio.FolioID) error {
	s.balances[g] = s.balances[g].Sub(amount)
	return nil
}
