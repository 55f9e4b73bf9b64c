/*
store.go - Persistence interface for folios, transactions and hotel records

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  treats the store as a transactional relational store: create, get,
  update, delete, query-by-filter and aggregate sums.

KEY INTERFACES:
  LedgerStore:  transactions and folios (the financial core)
  HotelStore:   reservations, group bookings, rooms
  CatalogStore: room types, rate plans, items, guests, companies, reason codes
  Store:        all of the above
  TxStore:      Store + WithTx (one ACID boundary per external trigger)

TRANSACTION BOUNDARY:
  Every external trigger (check-in, POS sale, payment, void, night-audit
  reservation) runs inside exactly one WithTx call. Engine components never
  open transactions themselves; they receive the tx-scoped Store.

IMPLEMENTATIONS:
  - folio/store/memory.go: in-memory, snapshot rollback
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - ledger.go: posting operations built on the Store
  - balance.go: the aggregate query consumer
*/
package folio

import (
	"context"
	"slices"
)

// =============================================================================
// LEDGER STORE
// =============================================================================

// LedgerStore persists transactions and folios.
type LedgerStore interface {
	InsertTransaction(ctx context.Context, tx Transaction) error
	UpdateTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id TransactionID) error
	GetTransaction(ctx context.Context, id TransactionID) (Transaction, error)

	// ListTransactions returns matching transactions in insertion order.
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)

	// SumTransactions aggregates the non-void transactions of a folio.
	SumTransactions(ctx context.Context, folioID FolioID) (Totals, error)

	InsertFolio(ctx context.Context, f Folio) error
	UpdateFolio(ctx context.Context, f Folio) error
	DeleteFolio(ctx context.Context, id FolioID) error
	GetFolio(ctx context.Context, id FolioID) (Folio, error)
	ListFolios(ctx context.Context, f FolioFilter) ([]Folio, error)
}

// TransactionFilter selects transactions. Zero-valued fields are ignored.
type TransactionFilter struct {
	FolioID       FolioID
	ItemCodes     []string
	PostingDate   Date
	BillTo        BillTo
	ReferenceType string
	ReferenceName string
	ExcludeVoid   bool
	OnlyUnbilled  bool
}

// FolioFilter selects folios. Zero-valued fields are ignored.
type FolioFilter struct {
	Statuses       []FolioStatus
	CompanyID      CompanyID
	GuestID        GuestID
	ReservationID  ReservationID
	RoomID         RoomID
	GroupBookingID GroupBookingID
	// CompanyMaster, when set, restricts to (true) or excludes (false)
	// company master folios.
	CompanyMaster *bool
}

// =============================================================================
// HOTEL STORE
// =============================================================================

// HotelStore persists reservations, group bookings and rooms.
type HotelStore interface {
	InsertReservation(ctx context.Context, r Reservation) error
	UpdateReservation(ctx context.Context, r Reservation) error
	GetReservation(ctx context.Context, id ReservationID) (Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)

	InsertGroupBooking(ctx context.Context, g GroupBooking) error
	UpdateGroupBooking(ctx context.Context, g GroupBooking) error
	GetGroupBooking(ctx context.Context, id GroupBookingID) (GroupBooking, error)

	PutRoom(ctx context.Context, r Room) error
	GetRoom(ctx context.Context, id RoomID) (Room, error)
}

// ReservationFilter selects reservations. Zero-valued fields are ignored.
type ReservationFilter struct {
	Statuses       []ReservationStatus
	RoomID         RoomID
	GuestID        GuestID
	GroupBookingID GroupBookingID
}

// =============================================================================
// CATALOG STORE
// =============================================================================

// CatalogStore holds reference data.
type CatalogStore interface {
	PutRoomType(ctx context.Context, rt RoomType) error
	GetRoomType(ctx context.Context, id string) (RoomType, error)

	PutRatePlan(ctx context.Context, p RatePlan) error
	GetRatePlan(ctx context.Context, id string) (RatePlan, error)
	ListRatePlans(ctx context.Context, roomTypeID string) ([]RatePlan, error)

	PutItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, code string) (Item, error)

	PutGuest(ctx context.Context, g Guest) error
	GetGuest(ctx context.Context, id GuestID) (Guest, error)

	PutCompany(ctx context.Context, c Company) error
	GetCompany(ctx context.Context, id CompanyID) (Company, error)

	PutAllowanceReason(ctx context.Context, r AllowanceReason) error
	GetAllowanceReason(ctx context.Context, code string) (AllowanceReason, error)
}

// =============================================================================
// COMBINED + TRANSACTIONAL STORE
// =============================================================================

type Store interface {
	LedgerStore
	HotelStore
	CatalogStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// FILTER HELPERS (shared by implementations)
// =============================================================================

// Match reports whether t satisfies the filter.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.FolioID != "" && t.FolioID != f.FolioID {
		return false
	}
	if len(f.ItemCodes) > 0 && !slices.Contains(f.ItemCodes, t.ItemCode) {
		return false
	}
	if !f.PostingDate.IsZero() && !t.PostingDate.Equal(f.PostingDate) {
		return false
	}
	if f.BillTo != "" && t.BillTo != f.BillTo {
		return false
	}
	if f.ReferenceType != "" && t.ReferenceType != f.ReferenceType {
		return false
	}
	if f.ReferenceName != "" && t.ReferenceName != f.ReferenceName {
		return false
	}
	if f.ExcludeVoid && t.IsVoid {
		return false
	}
	if f.OnlyUnbilled && t.IsInvoiced {
		return false
	}
	return true
}

// Match reports whether fo satisfies the filter.
func (f FolioFilter) Match(fo Folio) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, fo.Status) {
		return false
	}
	if f.CompanyID != "" && fo.CompanyID != f.CompanyID {
		return false
	}
	if f.GuestID != "" && fo.GuestID != f.GuestID {
		return false
	}
	if f.ReservationID != "" && fo.ReservationID != f.ReservationID {
		return false
	}
	if f.RoomID != "" && fo.RoomID != f.RoomID {
		return false
	}
	if f.GroupBookingID != "" && fo.GroupBookingID != f.GroupBookingID {
		return false
	}
	if f.CompanyMaster != nil && fo.IsCompanyMaster != *f.CompanyMaster {
		return false
	}
	return true
}

// Match reports whether r satisfies the filter.
func (f ReservationFilter) Match(r Reservation) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.GuestID != "" && r.GuestID != f.GuestID {
		return false
	}
	if f.GroupBookingID != "" && r.GroupBookingID != f.GroupBookingID {
		return false
	}
	return true
}

// Bool returns a pointer to b, for optional filter fields.
func Bool(b bool) *bool { return &b }
