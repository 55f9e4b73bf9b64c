package hotel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// ResolveRate returns the nightly rate for a reservation on date: the
// attached rate plan's rate when date falls inside its validity window,
// otherwise the room type's default rate. A missing room type resolves to
// zero, which posts nothing.
func ResolveRate(ctx context.Context, s folio.Store, r folio.Reservation, date folio.Date) (decimal.Decimal, error) {
	if r.RatePlanID != "" {
		plan, err := s.GetRatePlan(ctx, r.RatePlanID)
		switch {
		case err == nil:
			if plan.Covers(date) {
				return plan.Rate, nil
			}
		case !folio.IsNotFound(err):
			return decimal.Zero, err
		}
	}
	if r.RoomTypeID == "" {
		return decimal.Zero, nil
	}
	rt, err := s.GetRoomType(ctx, r.RoomTypeID)
	if folio.IsNotFound(err) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return rt.DefaultRate, nil
}

// ResolveRate resolves the rate of a stored reservation.
func (h *Hotel) ResolveRate(ctx context.Context, id folio.ReservationID, date folio.Date) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		rate, err = ResolveRate(ctx, s, r, date)
		return err
	})
	return rate, err
}

// SaveRatePlan validates and stores a rate plan. At most one active plan per
// room type may cover any given day.
func (h *Hotel) SaveRatePlan(ctx context.Context, p folio.RatePlan) (folio.RatePlan, error) {
	if p.RoomTypeID == "" {
		return folio.RatePlan{}, fmt.Errorf("rate plan needs a room type: %w", folio.ErrInvalidInput)
	}
	if p.ValidFrom.IsZero() || p.ValidTo.IsZero() || p.ValidFrom.After(p.ValidTo) {
		return folio.RatePlan{}, fmt.Errorf("valid from %s is after valid to %s: %w", p.ValidFrom, p.ValidTo, folio.ErrInvalidDates)
	}
	if p.Rate.IsNegative() {
		return folio.RatePlan{}, fmt.Errorf("rate %s is negative: %w", p.Rate, folio.ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = folio.NewID("RATE")
	}

	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		if p.Active {
			plans, err := s.ListRatePlans(ctx, p.RoomTypeID)
			if err != nil {
				return err
			}
			for _, other := range plans {
				if other.ID == p.ID || !other.Active {
					continue
				}
				if p.ValidFrom.BeforeOrEqual(other.ValidTo) && p.ValidTo.AfterOrEqual(other.ValidFrom) {
					return fmt.Errorf("rate plan overlaps with active plan %s for room type %s: %w",
						other.ID, p.RoomTypeID, folio.ErrInvalidInput)
				}
			}
		}
		return s.PutRatePlan(ctx, p)
	})
	if err != nil {
		return folio.RatePlan{}, err
	}
	return p, nil
}
