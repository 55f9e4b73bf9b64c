package folio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// =============================================================================
// MIRROR ROUTER
// =============================================================================
//
// A transaction billed to Company or Group gets exactly one copy on the
// matching master folio:
//
//   Company -> the Open company master of the source folio's company
//   Group   -> reservation.group_booking.master_folio
//
// The copy carries ReferenceType "Folio Transaction" and ReferenceName = the
// source id. That pair is the dedup key: an existing copy (void or not)
// makes Mirror a no-op. Copies are tagged IsMirror and never mirror again.
//
// TRANSFER and TRANSFER-GROUP are settlement postings; the event handler
// leaves them to the checkout flow.

type MirrorRouter struct {
	Ledger *Ledger
	Log    *slog.Logger
}

// Handle mirrors saved transactions.
func (r *MirrorRouter) Handle(ctx context.Context, s Store, ev Event) error {
	if ev.Kind != TransactionSaved {
		return nil
	}
	if IsTransferItem(ev.Transaction.ItemCode) {
		return nil
	}
	_, _, err := r.Mirror(ctx, s, ev.HC, ev.Transaction)
	return err
}

// Mirror ensures the master-folio copy of src exists. It returns the copy
// (new or existing) and whether it was created by this call. A skipped
// mirror returns a zero Transaction and false.
func (r *MirrorRouter) Mirror(ctx context.Context, s Store, hc HotelContext, src Transaction) (Transaction, bool, error) {
	if src.IsVoid || src.IsMirror || src.Amount.IsZero() {
		return Transaction{}, false, nil
	}
	if src.BillTo != BillToCompany && src.BillTo != BillToGroup {
		return Transaction{}, false, nil
	}

	folio, err := s.GetFolio(ctx, src.FolioID)
	if err != nil {
		return Transaction{}, false, err
	}

	var target Folio
	var ok bool
	if src.BillTo == BillToCompany {
		target, ok, err = r.companyTarget(ctx, s, folio)
	} else {
		target, ok, err = r.groupTarget(ctx, s, folio)
	}
	if err != nil || !ok {
		return Transaction{}, false, err
	}

	existing, err := s.ListTransactions(ctx, TransactionFilter{
		FolioID:       target.ID,
		ReferenceType: RefFolioTransaction,
		ReferenceName: string(src.ID),
	})
	if err != nil {
		return Transaction{}, false, err
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	mirror := Transaction{
		FolioID:       target.ID,
		PostingDate:   src.PostingDate,
		ItemCode:      src.ItemCode,
		Description:   r.describe(ctx, s, folio, src),
		Qty:           src.Qty,
		Amount:        src.Amount,
		BillTo:        src.BillTo,
		ReferenceType: RefFolioTransaction,
		ReferenceName: string(src.ID),
		IsMirror:      true,
	}
	posted, err := r.Ledger.Post(ctx, s, hc, mirror)
	if err != nil {
		return Transaction{}, false, fmt.Errorf("mirror %s to %s: %w", src.ID, target.ID, err)
	}
	r.logger().Debug("mirrored transaction",
		slog.String("source", string(src.ID)),
		slog.String("target_folio", string(target.ID)),
		slog.String("amount", src.Amount.String()))
	return posted, true, nil
}

func (r *MirrorRouter) companyTarget(ctx context.Context, s Store, src Folio) (Folio, bool, error) {
	if src.CompanyID == "" {
		return Folio{}, false, nil
	}
	masters, err := s.ListFolios(ctx, FolioFilter{
		Statuses:      []FolioStatus{FolioOpen},
		CompanyID:     src.CompanyID,
		CompanyMaster: Bool(true),
	})
	if err != nil {
		return Folio{}, false, err
	}
	for _, m := range masters {
		if m.ID != src.ID {
			return m, true, nil
		}
	}
	return Folio{}, false, nil
}

func (r *MirrorRouter) groupTarget(ctx context.Context, s Store, src Folio) (Folio, bool, error) {
	if src.ReservationID == "" {
		return Folio{}, false, nil
	}
	res, err := s.GetReservation(ctx, src.ReservationID)
	if IsNotFound(err) {
		return Folio{}, false, nil
	}
	if err != nil {
		return Folio{}, false, err
	}
	if res.GroupBookingID == "" {
		return Folio{}, false, nil
	}
	group, err := s.GetGroupBooking(ctx, res.GroupBookingID)
	if IsNotFound(err) {
		return Folio{}, false, nil
	}
	if err != nil {
		return Folio{}, false, err
	}
	if group.MasterFolioID == "" || group.MasterFolioID == src.ID {
		return Folio{}, false, nil
	}
	master, err := s.GetFolio(ctx, group.MasterFolioID)
	if err != nil {
		return Folio{}, false, err
	}
	if master.Status.IsTerminal() {
		r.logger().Warn("group master folio is closed, mirror skipped",
			slog.String("folio", string(master.ID)))
		return Folio{}, false, nil
	}
	return master, true, nil
}

// describe enriches the source description with guest, reservation and room.
func (r *MirrorRouter) describe(ctx context.Context, s Store, src Folio, t Transaction) string {
	guest := string(src.GuestID)
	if g, err := s.GetGuest(ctx, src.GuestID); err == nil && g.FullName != "" {
		guest = g.FullName
	}
	parts := []string{"Guest: " + guest}
	if src.ReservationID != "" {
		parts = append(parts, "Res: "+string(src.ReservationID))
	}
	if src.RoomID != "" {
		parts = append(parts, "Room: "+string(src.RoomID))
	}
	desc := t.Description
	if desc == "" {
		desc = t.ItemCode
	}
	return fmt.Sprintf("%s [%s]", desc, strings.Join(parts, " | "))
}

func (r *MirrorRouter) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
