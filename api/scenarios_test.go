/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state on a real SQLite
	database: reservations checked in, folios open, balances as posted.
*/
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/store/sqlite"
)

func setupScenarioHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eng := folio.NewEngine(store, folio.Config{Clock: folio.FixedClock(monday), Logger: quietLog()})
	return NewHandler(hotel.New(eng), "Grand Hotel", folio.DefaultManagerRole)
}

func loadScenario(t *testing.T, h *Handler, id string) ScenarioResult {
	t.Helper()
	ts := &testServer{t: t, router: NewRouter(h)}
	var out ScenarioResult
	ts.expect(http.StatusOK, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id}, &out)
	return out
}

func balanceOf(t *testing.T, h *Handler, id string) decimal.Decimal {
	t.Helper()
	f, err := h.Engine.Folio(context.Background(), folio.FolioID(id))
	require.NoError(t, err)
	return f.OutstandingBalance
}

func TestScenario_WalkIn(t *testing.T) {
	h := setupScenarioHandler(t)

	out := loadScenario(t, h, "walk-in")

	require.Len(t, out.Folios, 1)
	// 180 room + 2 x 4 water
	assert.Equal(t, "188", balanceOf(t, h, out.Folios[0]).String())

	res, err := h.Hotel.Reservation(context.Background(), folio.ReservationID(out.Reservations[0]))
	require.NoError(t, err)
	assert.Equal(t, folio.ReservationCheckedIn, res.Status)
}

func TestScenario_CompanyStay(t *testing.T) {
	h := setupScenarioHandler(t)

	out := loadScenario(t, h, "company-stay")

	require.Len(t, out.Folios, 1)
	assert.Equal(t, "205", balanceOf(t, h, out.Folios[0]).String())

	// The routed room charge is mirrored to the company master
	masters, err := h.Hotel.CityLedger(context.Background(), "ACME")
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, "180", masters[0].OutstandingBalance.String())
}

func TestScenario_Conference(t *testing.T) {
	h := setupScenarioHandler(t)

	out := loadScenario(t, h, "conference")

	assert.Len(t, out.Reservations, 2)
	require.Len(t, out.Folios, 3, "two guest folios plus the group master")
	for _, id := range out.Folios[:2] {
		assert.Equal(t, "120", balanceOf(t, h, id).String())
	}
}

func TestScenario_ListAndUnknown(t *testing.T) {
	h := setupScenarioHandler(t)
	ts := &testServer{t: t, router: NewRouter(h)}

	var list []ScenarioDTO
	ts.expect(http.StatusOK, "GET", "/api/scenarios", nil, &list)
	assert.Len(t, list, 3)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/scenarios/load", strings.NewReader(`{"scenario_id":"nope"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
