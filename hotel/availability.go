package hotel

import (
	"context"
	"fmt"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// AVAILABILITY
// =============================================================================
//
// Two stays overlap when newArrival < existingDeparture and
// newDeparture > existingArrival. Back-to-back stays (departure day equals
// the next arrival day) do not overlap. Only Reserved and Checked In
// reservations hold a room.

var holdingStatuses = []folio.ReservationStatus{folio.ReservationReserved, folio.ReservationCheckedIn}

// CheckAvailability returns a ConflictError naming the first reservation
// that holds room during [arrival, departure). ignore excludes the
// reservation being edited.
func CheckAvailability(ctx context.Context, s folio.Store, room folio.RoomID, arrival, departure folio.Date, ignore folio.ReservationID) error {
	if room == "" || arrival.IsZero() || departure.IsZero() {
		return nil
	}
	r, err := s.GetRoom(ctx, room)
	if err != nil {
		return err
	}
	if problem := roomProblem(r); problem != "" {
		return fmt.Errorf("%s: %w", problem, folio.ErrRoomUnavailable)
	}

	conflict, err := findConflict(ctx, s, room, arrival, departure, ignore)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflict
	}
	return nil
}

// CheckBulkAvailability checks every room and reports all problems in one
// AvailabilityError.
func CheckBulkAvailability(ctx context.Context, s folio.Store, rooms []folio.RoomID, arrival, departure folio.Date, ignore folio.ReservationID) error {
	if len(rooms) == 0 || arrival.IsZero() || departure.IsZero() {
		return nil
	}

	var problems []string
	for _, id := range rooms {
		r, err := s.GetRoom(ctx, id)
		if folio.IsNotFound(err) {
			problems = append(problems, fmt.Sprintf("room %s does not exist", id))
			continue
		}
		if err != nil {
			return err
		}
		if problem := roomProblem(r); problem != "" {
			problems = append(problems, problem)
		}
	}
	for _, id := range rooms {
		held, err := s.ListReservations(ctx, folio.ReservationFilter{RoomID: id, Statuses: holdingStatuses})
		if err != nil {
			return err
		}
		for _, existing := range held {
			if existing.ID == ignore || !overlaps(arrival, departure, existing) {
				continue
			}
			problems = append(problems, conflictOf(existing).Error())
		}
	}

	if len(problems) > 0 {
		return &folio.AvailabilityError{Problems: problems}
	}
	return nil
}

func roomProblem(r folio.Room) string {
	switch {
	case !r.IsEnabled:
		return fmt.Sprintf("room %s is disabled or under maintenance", r.ID)
	case r.Status == folio.RoomOutOfOrder:
		return fmt.Sprintf("room %s is out of order", r.ID)
	}
	return ""
}

func findConflict(ctx context.Context, s folio.Store, room folio.RoomID, arrival, departure folio.Date, ignore folio.ReservationID) (*folio.ConflictError, error) {
	held, err := s.ListReservations(ctx, folio.ReservationFilter{RoomID: room, Statuses: holdingStatuses})
	if err != nil {
		return nil, err
	}
	for _, existing := range held {
		if existing.ID != ignore && overlaps(arrival, departure, existing) {
			return conflictOf(existing), nil
		}
	}
	return nil, nil
}

func overlaps(arrival, departure folio.Date, existing folio.Reservation) bool {
	return arrival.Before(existing.Departure) && departure.After(existing.Arrival)
}

func conflictOf(r folio.Reservation) *folio.ConflictError {
	return &folio.ConflictError{
		Room:      r.RoomID,
		Existing:  r.ID,
		Guest:     r.GuestID,
		Arrival:   r.Arrival,
		Departure: r.Departure,
	}
}

// CheckAvailability runs the single-room check against current state.
func (h *Hotel) CheckAvailability(ctx context.Context, room folio.RoomID, arrival, departure folio.Date, ignore folio.ReservationID) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error {
		return CheckAvailability(ctx, s, room, arrival, departure, ignore)
	})
}

// CheckBulkAvailability runs the multi-room check against current state.
func (h *Hotel) CheckBulkAvailability(ctx context.Context, rooms []folio.RoomID, arrival, departure folio.Date, ignore folio.ReservationID) error {
	return h.Store.WithTx(ctx, func(s folio.Store) error {
		return CheckBulkAvailability(ctx, s, rooms, arrival, departure, ignore)
	})
}
