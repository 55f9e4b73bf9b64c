/*
audit.go - Night audit

PURPOSE:
  The scheduler's single daily callback, run after the checkout deadline
  (14:00 by default) so the day's departures have already left. For every
  Checked In reservation:

    1. Overstay: departure <= audit date moves departure to audit date + 1
       and leaves an "auto-extended" note. Runs regardless of billing.
    2. Idempotence: skip if a room-rent posting already exists today.
    3. Rate: rate plan inside its window, else room type default. Zero
       posts nothing.
    4. Post rent plus allowance, recompute once.

FAILURE POLICY:
  Each reservation runs in its own store transaction. A failure is logged,
  reported in AuditResult.Errors and excluded from the count; the batch
  continues. The overstay extension commits separately from billing so a
  failed posting never loses it.

IDEMPOTENCE:
  Running the audit twice on the same day charges every room once.
*/
package hotel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warp/folio-engine/folio"
)

// AuditResult summarizes one night-audit run.
type AuditResult struct {
	Date     folio.Date `json:"date"`
	Charged  int        `json:"charged"`
	Extended int        `json:"extended"`
	Errors   []string   `json:"errors,omitempty"`
}

// RunNightAudit posts today's room charges for all in-house reservations.
func (h *Hotel) RunNightAudit(ctx context.Context, hc folio.HotelContext) (AuditResult, error) {
	date := h.today()
	result := AuditResult{Date: date}

	var inHouse []folio.Reservation
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		var err error
		inHouse, err = s.ListReservations(ctx, folio.ReservationFilter{
			Statuses: []folio.ReservationStatus{folio.ReservationCheckedIn},
		})
		return err
	})
	if err != nil {
		return result, fmt.Errorf("list in-house reservations: %w", err)
	}

	for _, r := range inHouse {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log := h.Log.With(slog.String("reservation", string(r.ID)), slog.String("date", date.String()))

		extended, err := h.extendOverstay(ctx, r.ID, date)
		if err != nil {
			log.Error("overstay extension failed", slog.String("error", err.Error()))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.ID, err))
			continue
		}
		if extended {
			result.Extended++
			log.Info("departure auto-extended")
		}

		var charged bool
		err = h.Store.WithTx(ctx, func(s folio.Store) error {
			current, err := s.GetReservation(ctx, r.ID)
			if err != nil {
				return err
			}
			charged, err = h.chargeTonight(ctx, s, hc, current, date)
			return err
		})
		if err != nil {
			log.Error("room charge failed", slog.String("error", err.Error()))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.ID, err))
			continue
		}
		if charged {
			result.Charged++
		}
	}

	h.Log.Info("night audit complete",
		slog.String("date", date.String()),
		slog.Int("charged", result.Charged),
		slog.Int("extended", result.Extended),
		slog.Int("failed", len(result.Errors)))
	return result, nil
}

func (h *Hotel) extendOverstay(ctx context.Context, id folio.ReservationID, date folio.Date) (bool, error) {
	var extended bool
	err := h.Store.WithTx(ctx, func(s folio.Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Departure.After(date) {
			return nil
		}
		r.Departure = date.AddDays(1)
		r.Notes = append(r.Notes, fmt.Sprintf("Auto-extended: guest still in-house on %s", date))
		extended = true
		return s.UpdateReservation(ctx, r)
	})
	return extended, err
}
