package hotel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// CREATE / UPDATE
// =============================================================================

// validate checks the rules every saved reservation must satisfy.
func validate(ctx context.Context, s folio.Store, r folio.Reservation) error {
	if r.GuestID == "" {
		return fmt.Errorf("reservation needs a guest: %w", folio.ErrInvalidInput)
	}
	if r.Arrival.IsZero() || r.Departure.IsZero() || !r.Arrival.Before(r.Departure) {
		return fmt.Errorf("departure %s must be after arrival %s: %w", r.Departure, r.Arrival, folio.ErrInvalidDates)
	}
	if r.IsCompanyGuest && r.CompanyID == "" {
		return fmt.Errorf("company guest: %w", folio.ErrMissingCompany)
	}
	if r.DiscountType != folio.DiscountNone && r.DiscountValue.IsNegative() {
		return fmt.Errorf("discount value %s is negative: %w", r.DiscountValue, folio.ErrInvalidInput)
	}
	for _, rule := range r.Routing {
		if !rule.BillTo.Valid() {
			return fmt.Errorf("routing rule for %q has bill_to %q: %w", rule.ItemGroup, rule.BillTo, folio.ErrInvalidInput)
		}
	}
	if r.Status.HoldsRoom() {
		return CheckAvailability(ctx, s, r.RoomID, r.Arrival, r.Departure, r.ID)
	}
	return nil
}

// CreateReservation stores a new reservation and its Provisional folio. A
// company reservation also ensures the company has an Open master folio.
func (h *Hotel) CreateReservation(ctx context.Context, hc folio.HotelContext, r folio.Reservation) (folio.Reservation, error) {
	if r.ID == "" {
		r.ID = folio.ReservationID(folio.NewID("RES"))
	}
	if r.Status == "" {
		r.Status = folio.ReservationReserved
	}
	r.FolioID = ""

	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		if err := validate(ctx, s, r); err != nil {
			return err
		}
		if r.CompanyID != "" {
			if _, err := h.Engine.Folios.EnsureCompanyMaster(ctx, s, hc, r.CompanyID); err != nil {
				return err
			}
		}
		if err := s.InsertReservation(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		f, err := h.Engine.Folios.Create(ctx, s, hc, folio.Folio{
			GuestID:       r.GuestID,
			ReservationID: r.ID,
			RoomID:        r.RoomID,
			CompanyID:     r.CompanyID,
			Status:        folio.FolioProvisional,
		})
		if err != nil {
			return err
		}
		r.FolioID = f.ID
		return s.UpdateReservation(ctx, r)
	})
	if err != nil {
		return folio.Reservation{}, err
	}
	h.Log.Info("reservation created",
		slog.String("reservation", string(r.ID)),
		slog.String("room", string(r.RoomID)),
		slog.String("folio", string(r.FolioID)))
	return r, nil
}

// UpdateReservation saves editable fields. Status, folio and notes only
// change through the lifecycle operations; a Checked In guest changes room
// through MoveRoom.
func (h *Hotel) UpdateReservation(ctx context.Context, hc folio.HotelContext, r folio.Reservation) (folio.Reservation, error) {
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		current, err := s.GetReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		if current.Status == folio.ReservationCheckedIn && r.RoomID != current.RoomID {
			return fmt.Errorf("reservation %s is checked in; use a room move: %w", r.ID, folio.ErrInvalidInput)
		}
		r.Status = current.Status
		r.FolioID = current.FolioID
		r.Notes = current.Notes

		if err := validate(ctx, s, r); err != nil {
			return err
		}
		if r.CompanyID != "" {
			if _, err := h.Engine.Folios.EnsureCompanyMaster(ctx, s, hc, r.CompanyID); err != nil {
				return err
			}
		}
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		return h.syncFolio(ctx, s, hc, r)
	})
	if err != nil {
		return folio.Reservation{}, err
	}
	return r, nil
}

// syncFolio copies room and company onto a live folio.
func (h *Hotel) syncFolio(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation) error {
	if r.FolioID == "" {
		return nil
	}
	f, err := s.GetFolio(ctx, r.FolioID)
	if err != nil {
		return err
	}
	if f.Status.IsTerminal() || (f.RoomID == r.RoomID && f.CompanyID == r.CompanyID) {
		return nil
	}
	f.RoomID, f.CompanyID = r.RoomID, r.CompanyID
	if err := s.UpdateFolio(ctx, f); err != nil {
		return err
	}
	return h.Engine.Bus.Publish(ctx, s, folio.Event{Kind: folio.FolioUpdated, Folio: f, HC: hc})
}

// Reservation returns a stored reservation.
func (h *Hotel) Reservation(ctx context.Context, id folio.ReservationID) (folio.Reservation, error) {
	return h.Store.GetReservation(ctx, id)
}

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn moves a Reserved stay to Checked In, occupies the room, opens the
// folio and bills tonight unless a room charge already exists for today.
func (h *Hotel) CheckIn(ctx context.Context, hc folio.HotelContext, id folio.ReservationID) (folio.Reservation, error) {
	var out folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		var err error
		out, err = h.checkIn(ctx, s, hc, id)
		return err
	})
	return out, err
}

func (h *Hotel) checkIn(ctx context.Context, s folio.Store, hc folio.HotelContext, id folio.ReservationID) (folio.Reservation, error) {
	today := h.today()
	r, err := s.GetReservation(ctx, id)
	if err != nil {
		return folio.Reservation{}, err
	}
	if r.Status != folio.ReservationReserved {
		return folio.Reservation{}, &folio.TransitionError{
			Kind: "reservation", ID: string(id), From: string(r.Status), To: string(folio.ReservationCheckedIn),
			Reason: "only Reserved bookings can be checked in",
		}
	}
	if r.Arrival.After(today) {
		return folio.Reservation{}, &folio.TransitionError{
			Kind: "reservation", ID: string(id), From: string(r.Status), To: string(folio.ReservationCheckedIn),
			Reason: fmt.Sprintf("arrival date %s is after today %s", r.Arrival, today),
		}
	}

	r.Status = folio.ReservationCheckedIn
	if err := s.UpdateReservation(ctx, r); err != nil {
		return folio.Reservation{}, err
	}
	if err := h.setRoomStatus(ctx, s, r.RoomID, folio.RoomOccupied); err != nil {
		return folio.Reservation{}, err
	}

	if r.FolioID != "" {
		if _, err := h.Engine.Folios.Open(ctx, s, hc, r.FolioID); err != nil {
			return folio.Reservation{}, err
		}
		charged, err := h.chargeTonight(ctx, s, hc, r, today)
		if err != nil {
			return folio.Reservation{}, err
		}
		if charged {
			h.Log.Info("first night billed at check-in", slog.String("reservation", string(id)))
		}
	}
	return r, nil
}

// =============================================================================
// CHECK-OUT
// =============================================================================

// CheckOut settles and closes the folio of a Checked In stay departing today.
//
// Group members cannot leave while the group master carries a balance.
// Company-billed postings are credited off the guest folio (their liability
// was mirrored to the company master as they were posted). A group guest's
// remaining balance moves to the group master as a two-sided transfer.
// Private guests must then be settled; company guests may leave a balance.
func (h *Hotel) CheckOut(ctx context.Context, hc folio.HotelContext, id folio.ReservationID) (folio.Reservation, error) {
	var out folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		var err error
		out, err = h.checkOut(ctx, s, hc, id)
		return err
	})
	return out, err
}

func (h *Hotel) checkOut(ctx context.Context, s folio.Store, hc folio.HotelContext, id folio.ReservationID) (folio.Reservation, error) {
	today := h.today()
	r, err := s.GetReservation(ctx, id)
	if err != nil {
		return folio.Reservation{}, err
	}
	if r.Status != folio.ReservationCheckedIn {
		return folio.Reservation{}, &folio.TransitionError{
			Kind: "reservation", ID: string(id), From: string(r.Status), To: string(folio.ReservationCheckedOut),
			Reason: "guest is not checked in",
		}
	}
	if !r.Departure.Equal(today) {
		return folio.Reservation{}, &folio.TransitionError{
			Kind: "reservation", ID: string(id), From: string(r.Status), To: string(folio.ReservationCheckedOut),
			Reason: fmt.Sprintf("departure date %s must be today %s", r.Departure, today),
		}
	}

	groupMaster, err := h.groupMasterOf(ctx, s, r)
	if err != nil {
		return folio.Reservation{}, err
	}
	if groupMaster != "" {
		totals, err := h.Engine.Aggregator.Recompute(ctx, s, hc, groupMaster)
		if err != nil {
			return folio.Reservation{}, err
		}
		if folio.ExceedsTolerance(totals.Outstanding) {
			return folio.Reservation{}, &folio.BalanceError{
				FolioID: groupMaster, Balance: totals.Outstanding, Action: "check out before the group master is settled",
			}
		}
	}

	if r.FolioID != "" {
		if err := h.settle(ctx, s, hc, r, groupMaster, today); err != nil {
			return folio.Reservation{}, err
		}
	}

	r.Status = folio.ReservationCheckedOut
	if err := s.UpdateReservation(ctx, r); err != nil {
		return folio.Reservation{}, err
	}
	if err := h.setRoomStatus(ctx, s, r.RoomID, folio.RoomDirty); err != nil {
		return folio.Reservation{}, err
	}
	return r, nil
}

func (h *Hotel) settle(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation, groupMaster folio.FolioID, today folio.Date) error {
	if r.CompanyID != "" {
		if err := h.transferToCompany(ctx, s, hc, r, today); err != nil {
			return err
		}
	}
	if groupMaster != "" {
		if err := h.transferToGroup(ctx, s, hc, r, groupMaster, today); err != nil {
			return err
		}
	}

	totals, err := h.Engine.Aggregator.Recompute(ctx, s, hc, r.FolioID)
	if err != nil {
		return err
	}
	if folio.ExceedsTolerance(totals.Outstanding) && totals.Outstanding.IsPositive() {
		if !r.IsCompanyGuest {
			return &folio.BalanceError{FolioID: r.FolioID, Balance: totals.Outstanding, Action: "check out"}
		}
		h.notify(ctx, s, folio.Notice{
			Level:     folio.NoticeInfo,
			Subject:   "Company Guest Checkout",
			Message:   fmt.Sprintf("Outstanding balance of %s remains; liability rests on the company master folio.", totals.Outstanding.StringFixed(2)),
			FolioID:   r.FolioID,
			CompanyID: r.CompanyID,
		})
	}

	closed, err := h.Engine.Folios.Close(ctx, s, hc, r.FolioID)
	if err != nil {
		return err
	}
	if closed.OutstandingBalance.IsNegative() {
		h.recordStandingCredit(ctx, closed)
	}
	return nil
}

// transferToCompany credits the company-billed portion off the guest folio.
func (h *Hotel) transferToCompany(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation, today folio.Date) error {
	billed, err := s.ListTransactions(ctx, folio.TransactionFilter{
		FolioID: r.FolioID, BillTo: folio.BillToCompany, ExcludeVoid: true,
	})
	if err != nil {
		return err
	}
	liability := decimal.Zero
	for _, t := range billed {
		liability = liability.Add(t.Amount)
	}
	if !liability.IsPositive() {
		return nil
	}

	prior, err := s.ListTransactions(ctx, folio.TransactionFilter{
		FolioID: r.FolioID, ItemCodes: []string{folio.ItemTransfer}, PostingDate: today, ExcludeVoid: true,
	})
	if err != nil {
		return err
	}
	for _, t := range prior {
		if t.Amount.Equal(liability.Neg()) {
			return nil
		}
	}

	if err := ensureItem(ctx, s, folio.ItemTransfer, "Transfer to City Ledger", folio.GroupServices); err != nil {
		return err
	}
	_, err = h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
		FolioID:     r.FolioID,
		PostingDate: today,
		ItemCode:    folio.ItemTransfer,
		Description: fmt.Sprintf("Transfer to Master Folio (City Ledger) - %s", r.CompanyID),
		Qty:         decimal.NewFromInt(1),
		Amount:      liability.Neg(),
		BillTo:      folio.BillToCompany,
	})
	if err != nil {
		return fmt.Errorf("transfer to city ledger: %w", err)
	}
	h.Log.Info("company portion transferred",
		slog.String("folio", string(r.FolioID)),
		slog.String("company", string(r.CompanyID)),
		slog.String("amount", liability.String()))
	return nil
}

// transferToGroup moves the guest folio's current balance onto the group
// master: a credit on the guest folio and a debit of the same amount on the
// master.
func (h *Hotel) transferToGroup(ctx context.Context, s folio.Store, hc folio.HotelContext, r folio.Reservation, master folio.FolioID, today folio.Date) error {
	totals, err := h.Engine.Aggregator.Recompute(ctx, s, hc, r.FolioID)
	if err != nil {
		return err
	}
	balance := totals.Outstanding
	if !balance.IsPositive() {
		return nil
	}
	if err := ensureItem(ctx, s, folio.ItemTransferGroup, "Transfer to Group Master", folio.GroupServices); err != nil {
		return err
	}

	credit, err := h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
		FolioID:     r.FolioID,
		PostingDate: today,
		ItemCode:    folio.ItemTransferGroup,
		Description: fmt.Sprintf("Transfer to Group Master - %s", r.GroupBookingID),
		Qty:         decimal.NewFromInt(1),
		Amount:      balance.Neg(),
		BillTo:      folio.BillToGroup,
	})
	if err != nil {
		return fmt.Errorf("transfer to group master: %w", err)
	}
	_, err = h.Engine.Ledger.Post(ctx, s, hc, folio.Transaction{
		FolioID:       master,
		PostingDate:   today,
		ItemCode:      folio.ItemTransferGroup,
		Description:   fmt.Sprintf("Charge from Room %s (%s)", r.RoomID, r.GuestID),
		Qty:           decimal.NewFromInt(1),
		Amount:        balance,
		BillTo:        folio.BillToGroup,
		ReferenceType: folio.RefFolioTransaction,
		ReferenceName: string(credit.ID),
	})
	if err != nil {
		return fmt.Errorf("debit group master: %w", err)
	}
	return nil
}

func (h *Hotel) groupMasterOf(ctx context.Context, s folio.Store, r folio.Reservation) (folio.FolioID, error) {
	if !r.IsGroupGuest || r.GroupBookingID == "" {
		return "", nil
	}
	g, err := s.GetGroupBooking(ctx, r.GroupBookingID)
	if folio.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return g.MasterFolioID, nil
}

// recordStandingCredit keeps an overpayment for the guest's next stay.
func (h *Hotel) recordStandingCredit(ctx context.Context, f folio.Folio) {
	credits := h.Engine.Credits
	if credits == nil || f.GuestID == "" {
		return
	}
	amount := f.OutstandingBalance.Abs()
	if err := credits.Record(ctx, f.GuestID, amount, f.ID); err != nil {
		h.Log.Warn("standing credit not recorded",
			slog.String("folio", string(f.ID)),
			slog.String("guest", string(f.GuestID)),
			slog.String("error", err.Error()))
	}
}

// =============================================================================
// CANCEL / ROOM MOVE
// =============================================================================

// Cancel cancels a Reserved stay and its folio.
func (h *Hotel) Cancel(ctx context.Context, hc folio.HotelContext, id folio.ReservationID) (folio.Reservation, error) {
	var out folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != folio.ReservationReserved {
			return &folio.TransitionError{
				Kind: "reservation", ID: string(id), From: string(r.Status), To: string(folio.ReservationCancelled),
				Reason: "only Reserved bookings can be cancelled",
			}
		}
		r.Status = folio.ReservationCancelled
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if r.FolioID != "" {
			f, err := s.GetFolio(ctx, r.FolioID)
			if err != nil {
				return err
			}
			if !f.Status.IsTerminal() {
				if _, err := h.Engine.Folios.Cancel(ctx, s, hc, f.ID); err != nil {
					return err
				}
			}
		}
		out = r
		return nil
	})
	return out, err
}

// MoveRoom moves a Checked In guest to newRoom for the rest of the stay.
// The old room is left Dirty and the new one Occupied.
func (h *Hotel) MoveRoom(ctx context.Context, hc folio.HotelContext, id folio.ReservationID, newRoom folio.RoomID) (folio.Reservation, error) {
	var out folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != folio.ReservationCheckedIn {
			return fmt.Errorf("room moves are only allowed for checked in guests: %w", folio.ErrInvalidInput)
		}
		if r.RoomID == newRoom {
			return fmt.Errorf("new room %s is the current room: %w", newRoom, folio.ErrInvalidInput)
		}
		today := h.today()
		if err := CheckAvailability(ctx, s, newRoom, today, r.Departure, r.ID); err != nil {
			return err
		}

		old := r.RoomID
		if err := h.setRoomStatus(ctx, s, old, folio.RoomDirty); err != nil {
			return err
		}
		if err := h.setRoomStatus(ctx, s, newRoom, folio.RoomOccupied); err != nil {
			return err
		}
		r.RoomID = newRoom
		r.Notes = append(r.Notes, fmt.Sprintf("Moved from Room %s to Room %s on %s", old, newRoom, today))
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if r.FolioID != "" {
			f, err := s.GetFolio(ctx, r.FolioID)
			if err != nil {
				return err
			}
			f.RoomID = newRoom
			if err := s.UpdateFolio(ctx, f); err != nil {
				return err
			}
		}
		out = r
		return nil
	})
	return out, err
}

func (h *Hotel) setRoomStatus(ctx context.Context, s folio.Store, id folio.RoomID, status folio.RoomStatus) error {
	if id == "" {
		return nil
	}
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	room.Status = status
	return s.PutRoom(ctx, room)
}
