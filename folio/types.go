/*
Package folio provides the Folio Ledger Engine.

PURPOSE:
  Tracks guest, company and group financial obligations as transactions
  arrive from room-rate posting, POS sales, payments, transfers and voids.
  Aggregate balances, mirrored postings on master folios and credit-limit
  checks are kept consistent inside one store transaction per trigger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: a signed line on a folio (positive = charge, negative = credit)
  - Folio: running bill with derived totals (never hand-edited)
  - Reservation, GroupBooking, Room: the records that drive ledger activity
  - Catalog records: RoomType, RatePlan, Item, Guest, Company, AllowanceReason

DERIVED TOTALS:
  TotalCharges, TotalPayments and OutstandingBalance are written only by the
  Aggregator. OutstandingBalance == TotalCharges - TotalPayments == sum of
  non-void transaction amounts.

SEE ALSO:
  - ledger.go: posting, void, move and delete
  - balance.go: Aggregator
  - mirror.go: MirrorRouter
  - state.go: folio lifecycle
*/
package folio

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type FolioID string
type TransactionID string
type ReservationID string
type GroupBookingID string
type RoomID string
type GuestID string

// CompanyID identifies a billing entity (a customer of the hotel).
type CompanyID string

// NewID returns a prefixed, globally unique identifier such as FOLIO-3f2a9c1d0b4e.
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:12])
}

// =============================================================================
// MONEY
// =============================================================================

// Tolerance is the rounding tolerance applied to balance guards.
var Tolerance = decimal.RequireFromString("0.01")

// WithinTolerance reports whether |v| <= Tolerance.
func WithinTolerance(v decimal.Decimal) bool {
	return v.Abs().LessThanOrEqual(Tolerance)
}

// ExceedsTolerance reports whether v > Tolerance.
func ExceedsTolerance(v decimal.Decimal) bool {
	return v.GreaterThan(Tolerance)
}

// =============================================================================
// ITEM CODES
// =============================================================================

const (
	ItemRoomRent      = "ROOM-RENT"
	ItemDiscount      = "DISCOUNT"
	ItemComplimentary = "COMPLIMENTARY"
	ItemTransfer      = "TRANSFER"
	ItemTransferGroup = "TRANSFER-GROUP"
	ItemPayment       = "PAYMENT"
	ItemGuestCredit   = "GUEST-CREDIT"

	// GroupAccommodation marks items that count as room rent.
	GroupAccommodation = "Accommodation"
	GroupServices      = "Services"
)

// IsTransferItem reports whether code is a settlement posting that must never
// be mirrored by the generic saved-transaction handler.
func IsTransferItem(code string) bool {
	return code == ItemTransfer || code == ItemTransferGroup
}

// Reference document types used on Transaction.ReferenceType.
const (
	RefFolioTransaction = "Folio Transaction"
	RefPOSInvoice       = "POS Invoice"
	RefPaymentEntry     = "Payment Entry"
	RefSalesInvoice     = "Sales Invoice"
	RefStockEntry       = "Stock Entry"
	RefGuestBalance     = "Guest Balance Ledger"
)

// =============================================================================
// TRANSACTION
// =============================================================================

// BillTo is the entity that ultimately pays a transaction.
type BillTo string

const (
	BillToGuest   BillTo = "Guest"
	BillToCompany BillTo = "Company"
	BillToGroup   BillTo = "Group"
)

func (b BillTo) Valid() bool {
	return b == BillToGuest || b == BillToCompany || b == BillToGroup
}

// Transaction is a child record of a folio. It is append-biased: after
// insertion only IsVoid, IsInvoiced, VoidReason and the reference fields
// change, and nothing but VoidReason changes once IsInvoiced is set.
type Transaction struct {
	ID          TransactionID
	FolioID     FolioID
	PostingDate Date
	ItemCode    string
	Description string
	Qty         decimal.Decimal
	Amount      decimal.Decimal
	BillTo      BillTo

	IsVoid     bool
	VoidReason string
	IsInvoiced bool

	// Back-link to the originating document, or to the source transaction
	// when this row is a mirror copy.
	ReferenceType string
	ReferenceName string

	// IsMirror tags copies created by the MirrorRouter so they never
	// re-enter the router.
	IsMirror bool

	CreatedAt time.Time
}

// IsCharge reports whether the transaction counts toward total charges.
func (t Transaction) IsCharge() bool { return t.Amount.IsPositive() }

// =============================================================================
// FOLIO
// =============================================================================

type FolioStatus string

const (
	FolioProvisional FolioStatus = "Provisional"
	FolioOpen        FolioStatus = "Open"
	FolioClosed      FolioStatus = "Closed"
	FolioCancelled   FolioStatus = "Cancelled"
)

// IsTerminal reports whether no further postings are accepted.
func (s FolioStatus) IsTerminal() bool {
	return s == FolioClosed || s == FolioCancelled
}

type Folio struct {
	ID            FolioID
	GuestID       GuestID
	ReservationID ReservationID
	CompanyID     CompanyID
	RoomID        RoomID
	Status        FolioStatus

	// IsCompanyMaster marks the per-company aggregation folio (City Ledger).
	IsCompanyMaster bool
	// GroupBookingID is set on a group master folio.
	GroupBookingID GroupBookingID

	TotalCharges       decimal.Decimal
	TotalPayments      decimal.Decimal
	OutstandingBalance decimal.Decimal

	OpenDate  Date
	CloseDate Date
}

// IsGroupMaster reports whether this folio aggregates a group booking.
func (f Folio) IsGroupMaster() bool { return f.GroupBookingID != "" }

// IsMaster reports whether this is any kind of master folio.
func (f Folio) IsMaster() bool { return f.IsCompanyMaster || f.IsGroupMaster() }

// Totals is the output of a balance recompute.
type Totals struct {
	Charges     decimal.Decimal
	Payments    decimal.Decimal
	Outstanding decimal.Decimal
}

// =============================================================================
// RESERVATION
// =============================================================================

type ReservationStatus string

const (
	ReservationReserved   ReservationStatus = "Reserved"
	ReservationCheckedIn  ReservationStatus = "Checked In"
	ReservationCheckedOut ReservationStatus = "Checked Out"
	ReservationCancelled  ReservationStatus = "Cancelled"
)

// HoldsRoom reports whether a reservation in this status blocks its room.
func (s ReservationStatus) HoldsRoom() bool {
	return s == ReservationReserved || s == ReservationCheckedIn
}

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "Percentage"
	DiscountAmount     DiscountType = "Amount"
)

// RoutingRule sends charges of an item group to a payer.
type RoutingRule struct {
	ItemGroup string
	BillTo    BillTo
}

type Reservation struct {
	ID         ReservationID
	GuestID    GuestID
	RoomID     RoomID
	RoomTypeID string
	RatePlanID string
	Arrival    Date
	Departure  Date
	Status     ReservationStatus

	CompanyID      CompanyID
	IsCompanyGuest bool
	IsGroupGuest   bool
	GroupBookingID GroupBookingID

	IsComplimentary bool
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal

	Routing []RoutingRule
	FolioID FolioID
	Notes   []string
}

// =============================================================================
// GROUP BOOKING
// =============================================================================

type GroupStatus string

const (
	GroupDraft      GroupStatus = "Draft"
	GroupConfirmed  GroupStatus = "Confirmed"
	GroupInHouse    GroupStatus = "In House"
	GroupCheckedOut GroupStatus = "Checked Out"
	GroupCancelled  GroupStatus = "Cancelled"
)

type GroupBooking struct {
	ID            GroupBookingID
	Name          string
	Arrival       Date
	Departure     Date
	MasterPayer   CompanyID
	MasterFolioID FolioID
	Status        GroupStatus
}

// =============================================================================
// ROOM AND CATALOG
// =============================================================================

type RoomStatus string

const (
	RoomAvailable  RoomStatus = "Available"
	RoomDirty      RoomStatus = "Dirty"
	RoomOccupied   RoomStatus = "Occupied"
	RoomOutOfOrder RoomStatus = "Out of Order"
)

type Room struct {
	ID         RoomID
	RoomTypeID string
	Status     RoomStatus
	// IsEnabled is the maintenance gate, independent of Status.
	IsEnabled bool
	Warehouse string
}

type RoomType struct {
	ID          string
	Name        string
	DefaultRate decimal.Decimal
}

type RatePlan struct {
	ID         string
	RoomTypeID string
	Rate       decimal.Decimal
	ValidFrom  Date
	ValidTo    Date
	Active     bool
}

// Covers reports whether d falls within the plan's validity window.
func (p RatePlan) Covers(d Date) bool { return d.Within(p.ValidFrom, p.ValidTo) }

type Item struct {
	Code          string
	Name          string
	ItemGroup     string
	StandardRate  decimal.Decimal
	PriceListRate decimal.Decimal
	IsStockItem   bool
	StockUOM      string

	// DefaultWarehouse is used for stock issues when the room has none.
	DefaultWarehouse string
}

type Guest struct {
	ID         GuestID
	FullName   string
	CustomerID CompanyID
	GuestType  string
}

// Company is a billing customer. HotelCreditLimits holds per-operating-company
// overrides of the customer-level CreditLimit.
type Company struct {
	ID                CompanyID
	Name              string
	CreditLimit       decimal.Decimal
	HotelCreditLimits map[string]decimal.Decimal
}

// AllowanceReason is a void/allowance reason code.
type AllowanceReason struct {
	Code                    string
	Description             string
	RequiresManagerApproval bool
}
