/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND DATES:
  Amounts travel as decimal strings ("100.25"), never floats. Dates are
  YYYY-MM-DD strings.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// FOLIOS AND TRANSACTIONS
// =============================================================================

type FolioDTO struct {
	ID                 string          `json:"id"`
	GuestID            string          `json:"guest_id"`
	ReservationID      string          `json:"reservation_id,omitempty"`
	CompanyID          string          `json:"company_id,omitempty"`
	RoomID             string          `json:"room_id,omitempty"`
	Status             string          `json:"status"`
	IsCompanyMaster    bool            `json:"is_company_master"`
	GroupBookingID     string          `json:"group_booking_id,omitempty"`
	TotalCharges       decimal.Decimal `json:"total_charges"`
	TotalPayments      decimal.Decimal `json:"total_payments"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	OpenDate           folio.Date      `json:"open_date"`
	CloseDate          folio.Date      `json:"close_date,omitempty"`
}

func toFolioDTO(f folio.Folio) FolioDTO {
	return FolioDTO{
		ID:                 string(f.ID),
		GuestID:            string(f.GuestID),
		ReservationID:      string(f.ReservationID),
		CompanyID:          string(f.CompanyID),
		RoomID:             string(f.RoomID),
		Status:             string(f.Status),
		IsCompanyMaster:    f.IsCompanyMaster,
		GroupBookingID:     string(f.GroupBookingID),
		TotalCharges:       f.TotalCharges,
		TotalPayments:      f.TotalPayments,
		OutstandingBalance: f.OutstandingBalance,
		OpenDate:           f.OpenDate,
		CloseDate:          f.CloseDate,
	}
}

func toFolioDTOs(fs []folio.Folio) []FolioDTO {
	out := make([]FolioDTO, len(fs))
	for i, f := range fs {
		out[i] = toFolioDTO(f)
	}
	return out
}

type TransactionDTO struct {
	ID            string          `json:"id"`
	FolioID       string          `json:"folio_id"`
	PostingDate   folio.Date      `json:"posting_date"`
	ItemCode      string          `json:"item_code"`
	Description   string          `json:"description"`
	Qty           decimal.Decimal `json:"qty"`
	Amount        decimal.Decimal `json:"amount"`
	BillTo        string          `json:"bill_to"`
	IsVoid        bool            `json:"is_void"`
	VoidReason    string          `json:"void_reason,omitempty"`
	IsInvoiced    bool            `json:"is_invoiced"`
	IsMirror      bool            `json:"is_mirror,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceName string          `json:"reference_name,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
}

func toTransactionDTO(t folio.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            string(t.ID),
		FolioID:       string(t.FolioID),
		PostingDate:   t.PostingDate,
		ItemCode:      t.ItemCode,
		Description:   t.Description,
		Qty:           t.Qty,
		Amount:        t.Amount,
		BillTo:        string(t.BillTo),
		IsVoid:        t.IsVoid,
		VoidReason:    t.VoidReason,
		IsInvoiced:    t.IsInvoiced,
		IsMirror:      t.IsMirror,
		ReferenceType: t.ReferenceType,
		ReferenceName: t.ReferenceName,
	}
	if !t.CreatedAt.IsZero() {
		dto.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toTransactionDTOs(ts []folio.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, len(ts))
	for i, t := range ts {
		out[i] = toTransactionDTO(t)
	}
	return out
}

// PostTransactionRequest adds a charge or credit to a folio. A zero amount
// is priced from the item.
type PostTransactionRequest struct {
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	Amount      decimal.Decimal `json:"amount"`
	BillTo      string          `json:"bill_to"`
	PostingDate folio.Date      `json:"posting_date"`
}

type VoidRequest struct {
	Reason string `json:"reason"`
}

type MoveTransactionsRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
	TargetFolioID  string   `json:"target_folio_id"`
}

type InvoiceDTO struct {
	InvoiceID string `json:"invoice_id"`
	FolioID   string `json:"folio_id"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type RoutingRuleDTO struct {
	ItemGroup string `json:"item_group"`
	BillTo    string `json:"bill_to"`
}

type ReservationDTO struct {
	ID              string           `json:"id"`
	GuestID         string           `json:"guest_id"`
	RoomID          string           `json:"room_id"`
	RoomTypeID      string           `json:"room_type_id"`
	RatePlanID      string           `json:"rate_plan_id,omitempty"`
	Arrival         folio.Date       `json:"arrival"`
	Departure       folio.Date       `json:"departure"`
	Status          string           `json:"status,omitempty"`
	CompanyID       string           `json:"company_id,omitempty"`
	IsCompanyGuest  bool             `json:"is_company_guest"`
	IsGroupGuest    bool             `json:"is_group_guest"`
	GroupBookingID  string           `json:"group_booking_id,omitempty"`
	IsComplimentary bool             `json:"is_complimentary"`
	DiscountType    string           `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal  `json:"discount_value"`
	Routing         []RoutingRuleDTO `json:"routing,omitempty"`
	FolioID         string           `json:"folio_id,omitempty"`
	Notes           []string         `json:"notes,omitempty"`
}

func toReservationDTO(r folio.Reservation) ReservationDTO {
	dto := ReservationDTO{
		ID:              string(r.ID),
		GuestID:         string(r.GuestID),
		RoomID:          string(r.RoomID),
		RoomTypeID:      r.RoomTypeID,
		RatePlanID:      r.RatePlanID,
		Arrival:         r.Arrival,
		Departure:       r.Departure,
		Status:          string(r.Status),
		CompanyID:       string(r.CompanyID),
		IsCompanyGuest:  r.IsCompanyGuest,
		IsGroupGuest:    r.IsGroupGuest,
		GroupBookingID:  string(r.GroupBookingID),
		IsComplimentary: r.IsComplimentary,
		DiscountType:    string(r.DiscountType),
		DiscountValue:   r.DiscountValue,
		FolioID:         string(r.FolioID),
		Notes:           r.Notes,
	}
	for _, rule := range r.Routing {
		dto.Routing = append(dto.Routing, RoutingRuleDTO{ItemGroup: rule.ItemGroup, BillTo: string(rule.BillTo)})
	}
	return dto
}

// toReservation maps a request body onto a reservation. Status, folio and
// notes are owned by the lifecycle operations and are not read.
func (d ReservationDTO) toReservation() folio.Reservation {
	r := folio.Reservation{
		ID:              folio.ReservationID(d.ID),
		GuestID:         folio.GuestID(d.GuestID),
		RoomID:          folio.RoomID(d.RoomID),
		RoomTypeID:      d.RoomTypeID,
		RatePlanID:      d.RatePlanID,
		Arrival:         d.Arrival,
		Departure:       d.Departure,
		CompanyID:       folio.CompanyID(d.CompanyID),
		IsCompanyGuest:  d.IsCompanyGuest,
		IsGroupGuest:    d.IsGroupGuest,
		GroupBookingID:  folio.GroupBookingID(d.GroupBookingID),
		IsComplimentary: d.IsComplimentary,
		DiscountType:    folio.DiscountType(d.DiscountType),
		DiscountValue:   d.DiscountValue,
	}
	for _, rule := range d.Routing {
		r.Routing = append(r.Routing, folio.RoutingRule{ItemGroup: rule.ItemGroup, BillTo: folio.BillTo(rule.BillTo)})
	}
	return r
}

type MoveRoomRequest struct {
	RoomID string `json:"room_id"`
}

type AvailabilityRequest struct {
	Rooms     []string   `json:"rooms"`
	Arrival   folio.Date `json:"arrival"`
	Departure folio.Date `json:"departure"`
	Ignore    string     `json:"ignore_reservation,omitempty"`
}

type AvailabilityDTO struct {
	Available bool     `json:"available"`
	Problems  []string `json:"problems,omitempty"`
}

type RateDTO struct {
	ReservationID string          `json:"reservation_id"`
	Date          folio.Date      `json:"date"`
	Rate          decimal.Decimal `json:"rate"`
}

type RatePlanDTO struct {
	ID         string          `json:"id"`
	RoomTypeID string          `json:"room_type_id"`
	Rate       decimal.Decimal `json:"rate"`
	ValidFrom  folio.Date      `json:"valid_from"`
	ValidTo    folio.Date      `json:"valid_to"`
	Active     bool            `json:"active"`
}

// =============================================================================
// GROUPS
// =============================================================================

type GroupBookingDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Arrival       folio.Date `json:"arrival"`
	Departure     folio.Date `json:"departure"`
	MasterPayer   string     `json:"master_payer,omitempty"`
	MasterFolioID string     `json:"master_folio_id,omitempty"`
	Status        string     `json:"status,omitempty"`
}

func toGroupDTO(g folio.GroupBooking) GroupBookingDTO {
	return GroupBookingDTO{
		ID:            string(g.ID),
		Name:          g.Name,
		Arrival:       g.Arrival,
		Departure:     g.Departure,
		MasterPayer:   string(g.MasterPayer),
		MasterFolioID: string(g.MasterFolioID),
		Status:        string(g.Status),
	}
}

type GroupStatusRequest struct {
	Status string `json:"status"`
}

type AddReservationsRequest struct {
	Reservations []string `json:"reservations"`
}

// =============================================================================
// CATALOG
// =============================================================================

type RoomDTO struct {
	ID         string `json:"id"`
	RoomTypeID string `json:"room_type_id"`
	Status     string `json:"status"`
	IsEnabled  bool   `json:"is_enabled"`
	Warehouse  string `json:"warehouse,omitempty"`
}

type RoomTypeDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DefaultRate decimal.Decimal `json:"default_rate"`
}

type ItemDTO struct {
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	ItemGroup        string          `json:"item_group"`
	StandardRate     decimal.Decimal `json:"standard_rate"`
	PriceListRate    decimal.Decimal `json:"price_list_rate"`
	IsStockItem      bool            `json:"is_stock_item"`
	StockUOM         string          `json:"stock_uom,omitempty"`
	DefaultWarehouse string          `json:"default_warehouse,omitempty"`
}

type GuestDTO struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	CustomerID string `json:"customer_id,omitempty"`
	GuestType  string `json:"guest_type,omitempty"`
}

type CompanyDTO struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	CreditLimit       decimal.Decimal            `json:"credit_limit"`
	HotelCreditLimits map[string]decimal.Decimal `json:"hotel_credit_limits,omitempty"`
}

type AllowanceReasonDTO struct {
	Code                    string `json:"code"`
	Description             string `json:"description"`
	RequiresManagerApproval bool   `json:"requires_manager_approval"`
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
