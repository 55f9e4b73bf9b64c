/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	front-desk data for testing and demos. Each scenario seeds the catalog
	and walks real bookings through the hotel operations, so the folios
	carry the same postings production traffic would produce.

AVAILABLE SCENARIOS:

	walk-in:        Private guest, one night, checked in
	company-stay:   Company guest with accommodation routed to the company
	conference:     Group booking with a master folio and two checked-in rooms

HOW SCENARIOS WORK:
 1. Upsert the shared catalog (room types, rooms, items, reason codes)
 2. Create guests and companies
 3. Book and check in through the hotel operations
 4. Return the reservation and folio ids that were created

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "conference"}

NOTE:

	Scenarios book real rooms for today. Load each one once on a fresh
	database; loading a scenario twice reports the room conflict.

SEE ALSO:
  - handlers.go: Handler
  - hotel/: The operations the loaders call
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioResult lists what a loader created.
type ScenarioResult struct {
	Scenario     string   `json:"scenario"`
	Reservations []string `json:"reservations"`
	Folios       []string `json:"folios"`
}

func (r *ScenarioResult) add(res folio.Reservation) {
	r.Reservations = append(r.Reservations, string(res.ID))
	r.Folios = append(r.Folios, string(res.FolioID))
}

type scenarioLoader func(context.Context, folio.HotelContext, *ScenarioResult) error

var scenarios = []ScenarioDTO{
	{
		ID:          "walk-in",
		Name:        "Walk-in Guest",
		Description: "Private guest checked in for one night, paying at checkout",
	},
	{
		ID:          "company-stay",
		Name:        "Company Stay",
		Description: "Corporate guest whose accommodation is billed to the company master folio",
	},
	{
		ID:          "conference",
		Name:        "Conference Group",
		Description: "Group booking with a master folio and two rooms checked in together",
	},
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	loaders := map[string]scenarioLoader{
		"walk-in":      h.loadWalkInScenario,
		"company-stay": h.loadCompanyStayScenario,
		"conference":   h.loadConferenceScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	hc := h.hotelContext(r)
	if err := h.seedCatalog(ctx); err != nil {
		h.fail(w, "Failed to seed catalog", err)
		return
	}
	result := &ScenarioResult{Scenario: req.ScenarioID}
	if err := load(ctx, hc, result); err != nil {
		h.fail(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// LOADERS
// =============================================================================

// seedCatalog upserts the records every scenario relies on.
func (h *Handler) seedCatalog(ctx context.Context) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error {
		for _, rt := range []folio.RoomType{
			{ID: "DLX", Name: "Deluxe", DefaultRate: decimal.NewFromInt(180)},
			{ID: "STD", Name: "Standard", DefaultRate: decimal.NewFromInt(120)},
		} {
			if err := s.PutRoomType(ctx, rt); err != nil {
				return err
			}
		}
		rooms := map[folio.RoomID]string{"101": "DLX", "102": "DLX", "201": "STD", "202": "STD", "203": "STD"}
		for id, roomType := range rooms {
			if _, err := s.GetRoom(ctx, id); err == nil {
				continue
			}
			err := s.PutRoom(ctx, folio.Room{
				ID: id, RoomTypeID: roomType, Status: folio.RoomAvailable, IsEnabled: true, Warehouse: "Minibar - " + string(id),
			})
			if err != nil {
				return err
			}
		}
		for _, it := range []folio.Item{
			{Code: "MINIBAR-WATER", Name: "Mineral Water", ItemGroup: folio.GroupServices, StandardRate: decimal.NewFromInt(4), IsStockItem: true, StockUOM: "Nos"},
			{Code: "LAUNDRY", Name: "Laundry Service", ItemGroup: folio.GroupServices, StandardRate: decimal.NewFromInt(25)},
		} {
			if err := s.PutItem(ctx, it); err != nil {
				return err
			}
		}
		for _, reason := range []folio.AllowanceReason{
			{Code: "POSTING-ERROR", Description: "Posted in error"},
			{Code: "GOODWILL", Description: "Goodwill allowance", RequiresManagerApproval: true},
		} {
			if err := s.PutAllowanceReason(ctx, reason); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Handler) putGuests(ctx context.Context, guests ...folio.Guest) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error {
		for _, g := range guests {
			if err := s.PutGuest(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Handler) putCompany(ctx context.Context, c folio.Company) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error { return s.PutCompany(ctx, c) })
}

// stay books and checks in one reservation starting today.
func (h *Handler) stay(ctx context.Context, hc folio.HotelContext, r folio.Reservation, nights int) (folio.Reservation, error) {
	today := h.Engine.Clock().Today()
	r.Arrival = today
	r.Departure = today.AddDays(nights)
	booked, err := h.Hotel.CreateReservation(ctx, hc, r)
	if err != nil {
		return folio.Reservation{}, err
	}
	return h.Hotel.CheckIn(ctx, hc, booked.ID)
}

func (h *Handler) loadWalkInScenario(ctx context.Context, hc folio.HotelContext, out *ScenarioResult) error {
	if err := h.putGuests(ctx, folio.Guest{ID: "G-WALKIN", FullName: "Grace Hopper"}); err != nil {
		return err
	}
	res, err := h.stay(ctx, hc, folio.Reservation{GuestID: "G-WALKIN", RoomID: "101", RoomTypeID: "DLX"}, 1)
	if err != nil {
		return err
	}
	out.add(res)

	// A minibar charge on top of the room
	_, err = h.Engine.Post(ctx, hc, folio.Transaction{FolioID: res.FolioID, ItemCode: "MINIBAR-WATER", Qty: decimal.NewFromInt(2)})
	return err
}

func (h *Handler) loadCompanyStayScenario(ctx context.Context, hc folio.HotelContext, out *ScenarioResult) error {
	if err := h.putCompany(ctx, folio.Company{ID: "ACME", Name: "Acme Corp", CreditLimit: decimal.NewFromInt(5000)}); err != nil {
		return err
	}
	if err := h.putGuests(ctx, folio.Guest{ID: "G-ACME-1", FullName: "Katherine Johnson", CustomerID: "ACME", GuestType: "Corporate"}); err != nil {
		return err
	}
	res, err := h.stay(ctx, hc, folio.Reservation{
		GuestID: "G-ACME-1", RoomID: "102", RoomTypeID: "DLX",
		CompanyID: "ACME", IsCompanyGuest: true,
		Routing: []folio.RoutingRule{{ItemGroup: folio.GroupAccommodation, BillTo: folio.BillToCompany}},
	}, 3)
	if err != nil {
		return err
	}
	out.add(res)

	// Laundry stays with the guest
	_, err = h.Engine.Post(ctx, hc, folio.Transaction{FolioID: res.FolioID, ItemCode: "LAUNDRY"})
	return err
}

func (h *Handler) loadConferenceScenario(ctx context.Context, hc folio.HotelContext, out *ScenarioResult) error {
	if err := h.putCompany(ctx, folio.Company{ID: "PHYSOC", Name: "Physics Society", CreditLimit: decimal.NewFromInt(20000)}); err != nil {
		return err
	}
	if err := h.putGuests(ctx,
		folio.Guest{ID: "G-CONF-1", FullName: "Lise Meitner"},
		folio.Guest{ID: "G-CONF-2", FullName: "Emmy Noether"},
	); err != nil {
		return err
	}

	today := h.Engine.Clock().Today()
	g, err := h.Hotel.CreateGroupBooking(ctx, folio.GroupBooking{
		Name: "Physics Conference", Arrival: today, Departure: today.AddDays(2), MasterPayer: "PHYSOC",
	})
	if err != nil {
		return err
	}
	master, err := h.Hotel.CreateGroupMasterFolio(ctx, hc, g.ID)
	if err != nil {
		return err
	}
	if _, err := h.Hotel.SetGroupStatus(ctx, g.ID, folio.GroupConfirmed); err != nil {
		return err
	}

	var members []folio.ReservationID
	for _, m := range []struct {
		guest folio.GuestID
		room  folio.RoomID
	}{{"G-CONF-1", "201"}, {"G-CONF-2", "202"}} {
		res, err := h.Hotel.CreateReservation(ctx, hc, folio.Reservation{
			GuestID: m.guest, RoomID: m.room, RoomTypeID: "STD",
			Arrival: g.Arrival, Departure: g.Departure,
		})
		if err != nil {
			return err
		}
		members = append(members, res.ID)
	}
	if err := h.Hotel.AddReservationsToGroup(ctx, g.ID, members); err != nil {
		return err
	}
	batch, err := h.Hotel.MassCheckIn(ctx, hc, g.ID)
	if err != nil {
		return err
	}
	if len(batch.Errors) > 0 {
		return fmt.Errorf("mass check-in: %v", batch.Errors)
	}
	if _, err := h.Hotel.SetGroupStatus(ctx, g.ID, folio.GroupInHouse); err != nil {
		return err
	}

	for _, id := range members {
		res, err := h.Hotel.Reservation(ctx, id)
		if err != nil {
			return err
		}
		out.add(res)
	}
	out.Folios = append(out.Folios, string(master.ID))
	return nil
}
