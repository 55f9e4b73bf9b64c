package hotel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// GROUP BOOKINGS
// =============================================================================
//
// A group booking owns an optional master folio that collects Group-billed
// postings of its member reservations. Status changes are gated:
//   Confirmed            needs a master payer
//   In House/Checked Out needs a master folio

func validateGroup(g folio.GroupBooking) error {
	if !g.Arrival.IsZero() && !g.Departure.IsZero() && !g.Arrival.Before(g.Departure) {
		return fmt.Errorf("departure %s must be after arrival %s: %w", g.Departure, g.Arrival, folio.ErrInvalidDates)
	}
	switch g.Status {
	case folio.GroupInHouse, folio.GroupCheckedOut:
		if g.MasterFolioID == "" {
			return &folio.TransitionError{
				Kind: "group booking", ID: string(g.ID), To: string(g.Status),
				Reason: "create the master folio first",
			}
		}
	case folio.GroupConfirmed:
		if g.MasterPayer == "" {
			return fmt.Errorf("confirming group %s: %w", g.ID, folio.ErrMissingCompany)
		}
	}
	return nil
}

// CreateGroupBooking stores a new group booking.
func (h *Hotel) CreateGroupBooking(ctx context.Context, g folio.GroupBooking) (folio.GroupBooking, error) {
	if g.ID == "" {
		g.ID = folio.GroupBookingID(folio.NewID("GRP"))
	}
	if g.Status == "" {
		g.Status = folio.GroupDraft
	}
	g.MasterFolioID = ""
	if err := validateGroup(g); err != nil {
		return folio.GroupBooking{}, err
	}
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		return s.InsertGroupBooking(ctx, g)
	})
	if err != nil {
		return folio.GroupBooking{}, err
	}
	return g, nil
}

// SetGroupStatus changes a group's status subject to the gates above.
func (h *Hotel) SetGroupStatus(ctx context.Context, id folio.GroupBookingID, status folio.GroupStatus) (folio.GroupBooking, error) {
	var out folio.GroupBooking
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		g, err := s.GetGroupBooking(ctx, id)
		if err != nil {
			return err
		}
		from := g.Status
		g.Status = status
		if err := validateGroup(g); err != nil {
			var tr *folio.TransitionError
			if errors.As(err, &tr) {
				tr.From = string(from)
			}
			return err
		}
		out = g
		return s.UpdateGroupBooking(ctx, g)
	})
	return out, err
}

// CreateGroupMasterFolio opens the group's master folio on behalf of its
// master payer, creating an organizer guest record when none exists.
func (h *Hotel) CreateGroupMasterFolio(ctx context.Context, hc folio.HotelContext, id folio.GroupBookingID) (folio.Folio, error) {
	var out folio.Folio
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		g, err := s.GetGroupBooking(ctx, id)
		if err != nil {
			return err
		}
		if g.MasterFolioID != "" {
			return fmt.Errorf("group %s already has master folio %s: %w", id, g.MasterFolioID, folio.ErrDuplicateMaster)
		}
		if g.MasterPayer == "" {
			return fmt.Errorf("group %s needs a master payer: %w", id, folio.ErrMissingCompany)
		}

		organizer := folio.GuestID("GRP-" + string(g.ID))
		if _, err := s.GetGuest(ctx, organizer); folio.IsNotFound(err) {
			if err := s.PutGuest(ctx, folio.Guest{
				ID: organizer, FullName: g.Name, CustomerID: g.MasterPayer, GuestType: "Group",
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		out, err = h.Engine.Folios.Create(ctx, s, hc, folio.Folio{
			GuestID:        organizer,
			CompanyID:      g.MasterPayer,
			GroupBookingID: g.ID,
			Status:         folio.FolioOpen,
		})
		if err != nil {
			return err
		}
		g.MasterFolioID = out.ID
		return s.UpdateGroupBooking(ctx, g)
	})
	if err != nil {
		return folio.Folio{}, err
	}
	h.Log.Info("group master folio created", slog.String("group", string(id)), slog.String("folio", string(out.ID)))
	return out, nil
}

// AddReservationsToGroup links reservations to a group and flags them as
// group guests.
func (h *Hotel) AddReservationsToGroup(ctx context.Context, id folio.GroupBookingID, reservations []folio.ReservationID) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error {
		if _, err := s.GetGroupBooking(ctx, id); err != nil {
			return err
		}
		for _, rid := range reservations {
			r, err := s.GetReservation(ctx, rid)
			if err != nil {
				return err
			}
			r.GroupBookingID = id
			r.IsGroupGuest = true
			if err := s.UpdateReservation(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// MassCheckIn checks in every Reserved member of the group. Each member is
// its own transaction; failures are collected.
func (h *Hotel) MassCheckIn(ctx context.Context, hc folio.HotelContext, id folio.GroupBookingID) (BatchResult, error) {
	return h.massTransition(ctx, id, folio.ReservationReserved, "check-in", func(s folio.Store, rid folio.ReservationID) error {
		_, err := h.checkIn(ctx, s, hc, rid)
		return err
	})
}

// MassCheckOut checks out every Checked In member of the group.
func (h *Hotel) MassCheckOut(ctx context.Context, hc folio.HotelContext, id folio.GroupBookingID) (BatchResult, error) {
	return h.massTransition(ctx, id, folio.ReservationCheckedIn, "check-out", func(s folio.Store, rid folio.ReservationID) error {
		_, err := h.checkOut(ctx, s, hc, rid)
		return err
	})
}

func (h *Hotel) massTransition(ctx context.Context, id folio.GroupBookingID, from folio.ReservationStatus, action string, fn func(folio.Store, folio.ReservationID) error) (BatchResult, error) {
	var members []folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		if _, err := s.GetGroupBooking(ctx, id); err != nil {
			return err
		}
		var err error
		members, err = s.ListReservations(ctx, folio.ReservationFilter{
			GroupBookingID: id,
			Statuses:       []folio.ReservationStatus{from},
		})
		return err
	})
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for _, r := range members {
		err := h.Store.WithTx(ctx, func(s folio.Store) error { return fn(s, r.ID) })
		if err != nil {
			h.Log.Error("group "+action+" failed",
				slog.String("group", string(id)),
				slog.String("reservation", string(r.ID)),
				slog.String("error", err.Error()))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.ID, err))
			continue
		}
		result.Count++
	}
	return result, nil
}
