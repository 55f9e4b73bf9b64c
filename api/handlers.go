/*
handlers.go - HTTP API handlers for the folio ledger

PURPOSE:
  Exposes the folio engine and the front-desk operations via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  hotel and folio packages. No ledger rule lives here.

ENDPOINTS:
  Reservations:
    POST   /api/reservations                 Create (opens a Provisional folio)
    GET    /api/reservations/{id}            Get
    PUT    /api/reservations/{id}            Update editable fields
    POST   /api/reservations/{id}/check-in   Check in, bill first night
    POST   /api/reservations/{id}/check-out  Settle and close folio
    POST   /api/reservations/{id}/cancel     Cancel
    POST   /api/reservations/{id}/move       Room move
    GET    /api/reservations/{id}/rate       Resolved nightly rate (?date=)
    POST   /api/availability                 Bulk availability report

  Groups:
    POST   /api/groups                       Create group booking
    POST   /api/groups/{id}/status           Change status (gated)
    POST   /api/groups/{id}/master-folio     Open the group master folio
    POST   /api/groups/{id}/reservations     Add reservations to group
    POST   /api/groups/{id}/check-in         Mass check-in
    POST   /api/groups/{id}/check-out        Mass check-out

  Folios and transactions:
    GET    /api/folios/{id}                  Folio with totals
    DELETE /api/folios/{id}                  Delete (only without transactions)
    GET    /api/folios/{id}/transactions     Transactions
    POST   /api/folios/{id}/transactions     Post a charge or credit
    POST   /api/folios/{id}/open|close|cancel State changes
    POST   /api/folios/{id}/invoice          Invoice unbilled transactions
    POST   /api/folios/{id}/recompute        Rebuild totals from transactions
    PUT    /api/transactions/{id}            Edit amount, description, bill-to
    POST   /api/transactions/{id}/void       Void with reason code
    POST   /api/transactions/{id}/mirror     Route to the company master
    DELETE /api/transactions/{id}            Delete
    POST   /api/transactions/move            Move to another folio

  Bridges and ledgers:
    POST   /api/pos-sales                    POS invoice submitted
    POST   /api/payments                     Payment entry submitted
    GET    /api/ledgers/city                 Open company masters (?company=)
    GET    /api/ledgers/guest                Open private folios with balance

  Admin and catalog:
    POST   /api/admin/night-audit            Run the night audit now
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario (scenarios.go)
    POST   /api/rate-plans                   Save rate plan
    PUT    /api/rooms/{id}, /api/room-types/{id}, /api/items/{code},
           /api/guests/{id}, /api/companies/{id}, /api/reasons/{code}

HOTEL CONTEXT:
  Every request acts for the configured operating company. The actor comes
  from the X-User-ID and X-User-Roles (comma separated) headers.

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status picked from the error:
  - 400: Validation errors, invalid input
  - 403: Manager approval required
  - 404: Record not found
  - 409: Room or master folio conflicts
  - 422: Refused state changes (balance, closed folio, invoiced)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Hotel  *hotel.Hotel
	Engine *folio.Engine
	Store  folio.TxStore

	// Company is the operating hotel company every request acts for.
	Company     string
	ManagerRole string
	Log         *slog.Logger
}

// NewHandler creates a handler over the front desk of one hotel company.
func NewHandler(h *hotel.Hotel, company, managerRole string) *Handler {
	return &Handler{
		Hotel:       h,
		Engine:      h.Engine,
		Store:       h.Store,
		Company:     company,
		ManagerRole: managerRole,
		Log:         h.Log,
	}
}

// hotelContext builds the per-request HotelContext. The identity headers are
// trusted as given (see the SECURITY NOTE in server.go).
func (h *Handler) hotelContext(r *http.Request) folio.HotelContext {
	actor := folio.Actor{ID: r.Header.Get("X-User-ID")}
	if actor.ID == "" {
		actor.ID = "anonymous"
	}
	for _, role := range strings.Split(r.Header.Get("X-User-Roles"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			actor.Roles = append(actor.Roles, role)
		}
	}
	return folio.HotelContext{Company: h.Company, Actor: actor, ManagerRole: h.ManagerRole}
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationDTO
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Hotel.CreateReservation(r.Context(), h.hotelContext(r), req.toReservation())
	if err != nil {
		h.fail(w, "Failed to create reservation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.Reservation(r.Context(), folio.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationDTO
	if !decode(w, r, &req) {
		return
	}
	in := req.toReservation()
	in.ID = folio.ReservationID(chi.URLParam(r, "id"))
	res, err := h.Hotel.UpdateReservation(r.Context(), h.hotelContext(r), in)
	if err != nil {
		h.fail(w, "Failed to update reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.CheckIn(r.Context(), h.hotelContext(r), folio.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to check in", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.CheckOut(r.Context(), h.hotelContext(r), folio.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to check out", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.Cancel(r.Context(), h.hotelContext(r), folio.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to cancel reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) MoveRoom(w http.ResponseWriter, r *http.Request) {
	var req MoveRoomRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Hotel.MoveRoom(r.Context(), h.hotelContext(r), folio.ReservationID(chi.URLParam(r, "id")), folio.RoomID(req.RoomID))
	if err != nil {
		h.fail(w, "Failed to move room", err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// GetRate resolves the nightly rate; the date defaults to today.
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	date := h.Engine.Clock().Today()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := folio.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		date = d
	}
	id := chi.URLParam(r, "id")
	rate, err := h.Hotel.ResolveRate(r.Context(), folio.ReservationID(id), date)
	if err != nil {
		h.fail(w, "Failed to resolve rate", err)
		return
	}
	writeJSON(w, http.StatusOK, RateDTO{ReservationID: id, Date: date, Rate: rate})
}

// CheckAvailability reports every problem across the requested rooms.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if !decode(w, r, &req) {
		return
	}
	rooms := make([]folio.RoomID, len(req.Rooms))
	for i, id := range req.Rooms {
		rooms[i] = folio.RoomID(id)
	}
	err := h.Hotel.CheckBulkAvailability(r.Context(), rooms, req.Arrival, req.Departure, folio.ReservationID(req.Ignore))
	var report *folio.AvailabilityError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, AvailabilityDTO{Available: true})
	case errors.As(err, &report):
		writeJSON(w, http.StatusOK, AvailabilityDTO{Problems: report.Problems})
	default:
		h.fail(w, "Failed to check availability", err)
	}
}

func (h *Handler) SaveRatePlan(w http.ResponseWriter, r *http.Request) {
	var req RatePlanDTO
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Hotel.SaveRatePlan(r.Context(), folio.RatePlan{
		ID: req.ID, RoomTypeID: req.RoomTypeID, Rate: req.Rate,
		ValidFrom: req.ValidFrom, ValidTo: req.ValidTo, Active: req.Active,
	})
	if err != nil {
		h.fail(w, "Failed to save rate plan", err)
		return
	}
	writeJSON(w, http.StatusOK, RatePlanDTO{
		ID: p.ID, RoomTypeID: p.RoomTypeID, Rate: p.Rate,
		ValidFrom: p.ValidFrom, ValidTo: p.ValidTo, Active: p.Active,
	})
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupBookingDTO
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Hotel.CreateGroupBooking(r.Context(), folio.GroupBooking{
		ID:          folio.GroupBookingID(req.ID),
		Name:        req.Name,
		Arrival:     req.Arrival,
		Departure:   req.Departure,
		MasterPayer: folio.CompanyID(req.MasterPayer),
		Status:      folio.GroupStatus(req.Status),
	})
	if err != nil {
		h.fail(w, "Failed to create group booking", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDTO(g))
}

func (h *Handler) SetGroupStatus(w http.ResponseWriter, r *http.Request) {
	var req GroupStatusRequest
	if !decode(w, r, &req) {
		return
	}
	g, err := h.Hotel.SetGroupStatus(r.Context(), folio.GroupBookingID(chi.URLParam(r, "id")), folio.GroupStatus(req.Status))
	if err != nil {
		h.fail(w, "Failed to change group status", err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(g))
}

func (h *Handler) CreateGroupMasterFolio(w http.ResponseWriter, r *http.Request) {
	f, err := h.Hotel.CreateGroupMasterFolio(r.Context(), h.hotelContext(r), folio.GroupBookingID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to create group master folio", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolioDTO(f))
}

func (h *Handler) AddGroupReservations(w http.ResponseWriter, r *http.Request) {
	var req AddReservationsRequest
	if !decode(w, r, &req) {
		return
	}
	ids := make([]folio.ReservationID, len(req.Reservations))
	for i, id := range req.Reservations {
		ids[i] = folio.ReservationID(id)
	}
	if err := h.Hotel.AddReservationsToGroup(r.Context(), folio.GroupBookingID(chi.URLParam(r, "id")), ids); err != nil {
		h.fail(w, "Failed to add reservations", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MassCheckIn(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.MassCheckIn(r.Context(), h.hotelContext(r), folio.GroupBookingID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to check in group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) MassCheckOut(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.MassCheckOut(r.Context(), h.hotelContext(r), folio.GroupBookingID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to check out group", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// FOLIO AND TRANSACTION HANDLERS
// =============================================================================

func (h *Handler) GetFolio(w http.ResponseWriter, r *http.Request) {
	f, err := h.Engine.Folio(r.Context(), folio.FolioID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get folio", err)
		return
	}
	writeJSON(w, http.StatusOK, toFolioDTO(f))
}

func (h *Handler) DeleteFolio(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteFolio(r.Context(), folio.FolioID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, "Failed to delete folio", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Engine.Transactions(r.Context(), folio.FolioID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req PostTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Engine.Post(r.Context(), h.hotelContext(r), folio.Transaction{
		FolioID:     folio.FolioID(chi.URLParam(r, "id")),
		PostingDate: req.PostingDate,
		ItemCode:    req.ItemCode,
		Description: req.Description,
		Qty:         req.Qty,
		Amount:      req.Amount,
		BillTo:      folio.BillTo(req.BillTo),
	})
	if err != nil {
		h.fail(w, "Failed to post transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(t))
}

// UpdateTransaction edits a posted transaction. Only the fields present in
// the request change.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req PostTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Store.GetTransaction(r.Context(), folio.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to get transaction", err)
		return
	}
	if req.ItemCode != "" {
		t.ItemCode = req.ItemCode
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if !req.Qty.IsZero() {
		t.Qty = req.Qty
	}
	if !req.Amount.IsZero() {
		t.Amount = req.Amount
	}
	if req.BillTo != "" {
		t.BillTo = folio.BillTo(req.BillTo)
	}
	if !req.PostingDate.IsZero() {
		t.PostingDate = req.PostingDate
	}
	saved, err := h.Engine.Save(r.Context(), h.hotelContext(r), t)
	if err != nil {
		h.fail(w, "Failed to update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(saved))
}

// folioAction adapts a folio state change to a handler.
func (h *Handler) folioAction(message string, op func(*folio.Engine, *http.Request, folio.HotelContext, folio.FolioID) (folio.Folio, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := op(h.Engine, r, h.hotelContext(r), folio.FolioID(chi.URLParam(r, "id")))
		if err != nil {
			h.fail(w, message, err)
			return
		}
		writeJSON(w, http.StatusOK, toFolioDTO(f))
	}
}

func (h *Handler) OpenFolio() http.HandlerFunc {
	return h.folioAction("Failed to open folio", func(e *folio.Engine, r *http.Request, hc folio.HotelContext, id folio.FolioID) (folio.Folio, error) {
		return e.OpenFolio(r.Context(), hc, id)
	})
}

func (h *Handler) CloseFolio() http.HandlerFunc {
	return h.folioAction("Failed to close folio", func(e *folio.Engine, r *http.Request, hc folio.HotelContext, id folio.FolioID) (folio.Folio, error) {
		return e.CloseFolio(r.Context(), hc, id)
	})
}

func (h *Handler) CancelFolio() http.HandlerFunc {
	return h.folioAction("Failed to cancel folio", func(e *folio.Engine, r *http.Request, hc folio.HotelContext, id folio.FolioID) (folio.Folio, error) {
		return e.CancelFolio(r.Context(), hc, id)
	})
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	invoiceID, err := h.Engine.CreateInvoice(r.Context(), h.hotelContext(r), folio.FolioID(id))
	if err != nil {
		h.fail(w, "Failed to create invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, InvoiceDTO{InvoiceID: invoiceID, FolioID: id})
}

func (h *Handler) VoidTransaction(w http.ResponseWriter, r *http.Request) {
	var req VoidRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Engine.Void(r.Context(), h.hotelContext(r), folio.TransactionID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		h.fail(w, "Failed to void transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

// MirrorTransaction routes a company-billed charge to its master folio.
// 201 when a mirror was created, 200 when it already existed or the
// transaction does not route.
func (h *Handler) MirrorTransaction(w http.ResponseWriter, r *http.Request) {
	t, created, err := h.Engine.Mirror(r.Context(), h.hotelContext(r), folio.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, "Failed to mirror transaction", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toTransactionDTO(t))
}

// Recompute rebuilds the folio totals from its transactions.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	id := folio.FolioID(chi.URLParam(r, "id"))
	if _, err := h.Engine.Recompute(r.Context(), h.hotelContext(r), id); err != nil {
		h.fail(w, "Failed to recompute folio", err)
		return
	}
	f, err := h.Engine.Folio(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get folio", err)
		return
	}
	writeJSON(w, http.StatusOK, toFolioDTO(f))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteTransaction(r.Context(), h.hotelContext(r), folio.TransactionID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveTransactions(w http.ResponseWriter, r *http.Request) {
	var req MoveTransactionsRequest
	if !decode(w, r, &req) {
		return
	}
	ids := make([]folio.TransactionID, len(req.TransactionIDs))
	for i, id := range req.TransactionIDs {
		ids[i] = folio.TransactionID(id)
	}
	if err := h.Engine.Move(r.Context(), h.hotelContext(r), ids, folio.FolioID(req.TargetFolioID)); err != nil {
		h.fail(w, "Failed to move transactions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BRIDGES AND LEDGERS
// =============================================================================

func (h *Handler) PostPOSSale(w http.ResponseWriter, r *http.Request) {
	var sale hotel.POSSale
	if !decode(w, r, &sale) {
		return
	}
	posted, err := h.Hotel.PostPOSSale(r.Context(), h.hotelContext(r), sale)
	if err != nil {
		h.fail(w, "Failed to post POS sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(posted))
}

// PostPayment answers 202 with no body when the payment does not reference
// a folio.
func (h *Handler) PostPayment(w http.ResponseWriter, r *http.Request) {
	var p hotel.Payment
	if !decode(w, r, &p) {
		return
	}
	t, ok, err := h.Hotel.PostPayment(r.Context(), h.hotelContext(r), p)
	if err != nil {
		h.fail(w, "Failed to post payment", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (h *Handler) CityLedger(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Hotel.CityLedger(r.Context(), folio.CompanyID(r.URL.Query().Get("company")))
	if err != nil {
		h.fail(w, "Failed to list city ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toFolioDTOs(fs))
}

func (h *Handler) GuestLedger(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Hotel.GuestLedger(r.Context())
	if err != nil {
		h.fail(w, "Failed to list guest ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toFolioDTOs(fs))
}

// RunNightAudit runs the audit for today as the system actor.
func (h *Handler) RunNightAudit(w http.ResponseWriter, r *http.Request) {
	res, err := h.Hotel.RunNightAudit(r.Context(), h.hotelContext(r))
	if err != nil {
		h.fail(w, "Failed to run night audit", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// put decodes a catalog record and stores it in one transaction.
func put[T any](h *Handler, message string, store func(folio.Store, *http.Request, T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if !decode(w, r, &req) {
			return
		}
		err := h.Store.WithTx(r.Context(), func(s folio.Store) error { return store(s, r, req) })
		if err != nil {
			h.fail(w, message, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func (h *Handler) PutRoom() http.HandlerFunc {
	return put(h, "Failed to save room", func(s folio.Store, r *http.Request, d RoomDTO) error {
		status := folio.RoomStatus(d.Status)
		if status == "" {
			status = folio.RoomAvailable
		}
		return s.PutRoom(r.Context(), folio.Room{
			ID: folio.RoomID(chi.URLParam(r, "id")), RoomTypeID: d.RoomTypeID,
			Status: status, IsEnabled: d.IsEnabled, Warehouse: d.Warehouse,
		})
	})
}

func (h *Handler) PutRoomType() http.HandlerFunc {
	return put(h, "Failed to save room type", func(s folio.Store, r *http.Request, d RoomTypeDTO) error {
		return s.PutRoomType(r.Context(), folio.RoomType{ID: chi.URLParam(r, "id"), Name: d.Name, DefaultRate: d.DefaultRate})
	})
}

func (h *Handler) PutItem() http.HandlerFunc {
	return put(h, "Failed to save item", func(s folio.Store, r *http.Request, d ItemDTO) error {
		return s.PutItem(r.Context(), folio.Item{
			Code: chi.URLParam(r, "code"), Name: d.Name, ItemGroup: d.ItemGroup,
			StandardRate: d.StandardRate, PriceListRate: d.PriceListRate,
			IsStockItem: d.IsStockItem, StockUOM: d.StockUOM, DefaultWarehouse: d.DefaultWarehouse,
		})
	})
}

func (h *Handler) PutGuest() http.HandlerFunc {
	return put(h, "Failed to save guest", func(s folio.Store, r *http.Request, d GuestDTO) error {
		return s.PutGuest(r.Context(), folio.Guest{
			ID: folio.GuestID(chi.URLParam(r, "id")), FullName: d.FullName,
			CustomerID: folio.CompanyID(d.CustomerID), GuestType: d.GuestType,
		})
	})
}

func (h *Handler) PutCompany() http.HandlerFunc {
	return put(h, "Failed to save company", func(s folio.Store, r *http.Request, d CompanyDTO) error {
		return s.PutCompany(r.Context(), folio.Company{
			ID: folio.CompanyID(chi.URLParam(r, "id")), Name: d.Name,
			CreditLimit: d.CreditLimit, HotelCreditLimits: d.HotelCreditLimits,
		})
	})
}

func (h *Handler) PutAllowanceReason() http.HandlerFunc {
	return put(h, "Failed to save reason code", func(s folio.Store, r *http.Request, d AllowanceReasonDTO) error {
		return s.PutAllowanceReason(r.Context(), folio.AllowanceReason{
			Code: chi.URLParam(r, "code"), Description: d.Description,
			RequiresManagerApproval: d.RequiresManagerApproval,
		})
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps an engine error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case folio.IsNotFound(err):
		return http.StatusNotFound
	case folio.IsAuthorization(err):
		return http.StatusForbidden
	case errors.Is(err, folio.ErrRoomUnavailable), errors.Is(err, folio.ErrDuplicateMaster):
		return http.StatusConflict
	case errors.Is(err, folio.ErrOutstandingBalance),
		errors.Is(err, folio.ErrInvalidTransition),
		errors.Is(err, folio.ErrFolioClosed),
		errors.Is(err, folio.ErrInvoiced),
		errors.Is(err, folio.ErrFolioHasTransactions):
		return http.StatusUnprocessableEntity
	case folio.IsValidation(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Internal errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.Error(message, slog.String("error", err.Error()))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
