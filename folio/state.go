package folio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FOLIO STATE MACHINE
// =============================================================================
//
//   Provisional --Open--> Open --Close--> Closed
//        |                  |
//        +------Cancel------+-----------> Cancelled
//
// Close is balance-guarded (|outstanding| <= 0.01) unless the folio belongs
// to a company-guest reservation. Delete is refused once any transaction
// exists; such folios are cancelled instead.

type Folios struct {
	Ledger     *Ledger
	Aggregator *Aggregator
	// Credits is consulted when a guest folio is created; nil disables it.
	Credits StandingCredits
	Log     *slog.Logger
}

// Create inserts a folio. New guest folios consume any standing credit the
// guest carries from earlier stays.
func (fs *Folios) Create(ctx context.Context, s Store, hc HotelContext, f Folio) (Folio, error) {
	if f.IsCompanyMaster {
		if f.CompanyID == "" {
			return Folio{}, fmt.Errorf("company master folio: %w", ErrMissingCompany)
		}
		if f.ReservationID != "" || f.RoomID != "" {
			return Folio{}, fmt.Errorf("company master folio cannot link a reservation or room: %w", ErrInvalidInput)
		}
		open, err := fs.openCompanyMasters(ctx, s, f.CompanyID)
		if err != nil {
			return Folio{}, err
		}
		if len(open) > 0 {
			return Folio{}, fmt.Errorf("company %s already has master folio %s: %w", f.CompanyID, open[0].ID, ErrDuplicateMaster)
		}
	}
	if f.ID == "" {
		f.ID = FolioID(NewID("FOLIO"))
	}
	if f.Status == "" {
		f.Status = FolioProvisional
	}
	if f.OpenDate.IsZero() {
		f.OpenDate = fs.Ledger.Clock.Today()
	}
	f.TotalCharges, f.TotalPayments, f.OutstandingBalance = decimal.Zero, decimal.Zero, decimal.Zero

	if err := s.InsertFolio(ctx, f); err != nil {
		return Folio{}, fmt.Errorf("insert folio: %w", err)
	}

	if !f.IsMaster() && f.GuestID != "" {
		if err := fs.applyStandingCredit(ctx, s, hc, f); err != nil {
			return Folio{}, err
		}
	}
	return s.GetFolio(ctx, f.ID)
}

func (fs *Folios) applyStandingCredit(ctx context.Context, s Store, hc HotelContext, f Folio) error {
	if fs.Credits == nil {
		return nil
	}
	log := fs.logger().With(slog.String("guest", string(f.GuestID)), slog.String("folio", string(f.ID)))

	credit, err := fs.Credits.Available(ctx, f.GuestID)
	if err != nil {
		log.Warn("standing credit lookup failed", slog.String("error", err.Error()))
		return nil
	}
	if !credit.IsPositive() {
		return nil
	}
	if _, err := fs.Ledger.Post(ctx, s, hc, Transaction{
		FolioID:       f.ID,
		ItemCode:      ItemGuestCredit,
		Description:   "Standing credit from previous stay",
		Amount:        credit.Neg(),
		BillTo:        BillToGuest,
		ReferenceType: RefGuestBalance,
		ReferenceName: string(f.GuestID),
	}); err != nil {
		return err
	}
	if err := fs.Credits.Consume(ctx, f.GuestID, credit, f.ID); err != nil {
		log.Warn("standing credit not consumed", slog.String("error", err.Error()))
	}
	return nil
}

// EnsureCompanyMaster returns the company's Open master folio, creating it
// (and a representative guest) when missing.
func (fs *Folios) EnsureCompanyMaster(ctx context.Context, s Store, hc HotelContext, company CompanyID) (Folio, error) {
	if company == "" {
		return Folio{}, fmt.Errorf("company master folio: %w", ErrMissingCompany)
	}
	open, err := fs.openCompanyMasters(ctx, s, company)
	if err != nil {
		return Folio{}, err
	}
	if len(open) > 0 {
		return open[0], nil
	}

	guestID := GuestID("CORP-" + string(company))
	if _, err := s.GetGuest(ctx, guestID); IsNotFound(err) {
		name := string(company)
		if c, err := s.GetCompany(ctx, company); err == nil && c.Name != "" {
			name = c.Name
		}
		if err := s.PutGuest(ctx, Guest{ID: guestID, FullName: name, CustomerID: company, GuestType: "Corporate"}); err != nil {
			return Folio{}, fmt.Errorf("create company guest: %w", err)
		}
	} else if err != nil {
		return Folio{}, err
	}

	master, err := fs.Create(ctx, s, hc, Folio{
		GuestID:         guestID,
		CompanyID:       company,
		IsCompanyMaster: true,
		Status:          FolioOpen,
	})
	if err != nil {
		return Folio{}, err
	}
	fs.logger().Info("company master folio created",
		slog.String("company", string(company)), slog.String("folio", string(master.ID)))
	return master, nil
}

func (fs *Folios) openCompanyMasters(ctx context.Context, s Store, company CompanyID) ([]Folio, error) {
	return s.ListFolios(ctx, FolioFilter{
		Statuses:      []FolioStatus{FolioOpen},
		CompanyID:     company,
		CompanyMaster: Bool(true),
	})
}

// Open moves a Provisional folio to Open. Opening an Open folio is a no-op.
func (fs *Folios) Open(ctx context.Context, s Store, hc HotelContext, id FolioID) (Folio, error) {
	f, err := s.GetFolio(ctx, id)
	if err != nil {
		return Folio{}, err
	}
	switch f.Status {
	case FolioOpen:
		return f, nil
	case FolioProvisional:
	default:
		return Folio{}, &TransitionError{Kind: "folio", ID: string(id), From: string(f.Status), To: string(FolioOpen)}
	}
	f.Status = FolioOpen
	return fs.write(ctx, s, hc, f)
}

// Close closes an Open folio after recomputing it. Non-company-guest folios
// must be within Tolerance of zero.
func (fs *Folios) Close(ctx context.Context, s Store, hc HotelContext, id FolioID) (Folio, error) {
	f, err := s.GetFolio(ctx, id)
	if err != nil {
		return Folio{}, err
	}
	if f.Status != FolioOpen {
		return Folio{}, &TransitionError{Kind: "folio", ID: string(id), From: string(f.Status), To: string(FolioClosed)}
	}

	totals, err := fs.Aggregator.Recompute(ctx, s, hc, id)
	if err != nil {
		return Folio{}, err
	}
	companyGuest, err := fs.IsCompanyGuest(ctx, s, f)
	if err != nil {
		return Folio{}, err
	}
	if !companyGuest && !WithinTolerance(totals.Outstanding) {
		return Folio{}, &BalanceError{FolioID: id, Balance: totals.Outstanding, Action: "close folio"}
	}

	f, err = s.GetFolio(ctx, id)
	if err != nil {
		return Folio{}, err
	}
	f.Status = FolioClosed
	f.CloseDate = fs.Ledger.Clock.Today()
	return fs.write(ctx, s, hc, f)
}

// Cancel cancels a Provisional or Open folio.
func (fs *Folios) Cancel(ctx context.Context, s Store, hc HotelContext, id FolioID) (Folio, error) {
	f, err := s.GetFolio(ctx, id)
	if err != nil {
		return Folio{}, err
	}
	if f.Status.IsTerminal() {
		return Folio{}, &TransitionError{Kind: "folio", ID: string(id), From: string(f.Status), To: string(FolioCancelled)}
	}
	f.Status = FolioCancelled
	f.CloseDate = fs.Ledger.Clock.Today()
	return fs.write(ctx, s, hc, f)
}

// Delete removes a folio that never received a transaction.
func (fs *Folios) Delete(ctx context.Context, s Store, id FolioID) error {
	if _, err := s.GetFolio(ctx, id); err != nil {
		return err
	}
	txs, err := s.ListTransactions(ctx, TransactionFilter{FolioID: id})
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		return fmt.Errorf("folio %s has %d transactions: %w", id, len(txs), ErrFolioHasTransactions)
	}
	return s.DeleteFolio(ctx, id)
}

// IsCompanyGuest reports whether the folio's reservation bills a company guest.
func (fs *Folios) IsCompanyGuest(ctx context.Context, s Store, f Folio) (bool, error) {
	if f.ReservationID == "" {
		return false, nil
	}
	r, err := s.GetReservation(ctx, f.ReservationID)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.IsCompanyGuest, nil
}

func (fs *Folios) write(ctx context.Context, s Store, hc HotelContext, f Folio) (Folio, error) {
	if err := s.UpdateFolio(ctx, f); err != nil {
		return Folio{}, fmt.Errorf("update folio: %w", err)
	}
	if err := fs.Ledger.Bus.Publish(ctx, s, Event{Kind: FolioUpdated, Folio: f, HC: hc}); err != nil {
		return Folio{}, err
	}
	return s.GetFolio(ctx, f.ID)
}

func (fs *Folios) logger() *slog.Logger {
	if fs.Log == nil {
		return slog.Default()
	}
	return fs.Log
}
