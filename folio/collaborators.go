package folio

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTBOUND COLLABORATORS
// =============================================================================
// The engine calls these in-process. Implementations live in external/ and
// notify/. Failures of the advisory ones (Notifier, ReceivableLedger,
// StandingCredits, StockService) are logged and never abort a posting.

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a user-facing message emitted by the engine.
type Notice struct {
	Level     NoticeLevel       `json:"level"`
	Subject   string            `json:"subject"`
	Message   string            `json:"message"`
	FolioID   FolioID           `json:"folio_id,omitempty"`
	CompanyID CompanyID         `json:"company_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Notifier is the notification/logging sink.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// ReceivableLedger reports a company's current balance in the external
// accounting system.
type ReceivableLedger interface {
	Balance(ctx context.Context, company CompanyID) (decimal.Decimal, error)
}

// StandingCredits records and consumes guest credit balances carried between
// stays.
type StandingCredits interface {
	Available(ctx context.Context, guest GuestID) (decimal.Decimal, error)
	Record(ctx context.Context, guest GuestID, amount decimal.Decimal, source FolioID) error
	Consume(ctx context.Context, guest GuestID, amount decimal.Decimal, target FolioID) error
}

// InvoiceLine is one billed transaction.
type InvoiceLine struct {
	TransactionID TransactionID
	ItemCode      string
	Description   string
	Qty           decimal.Decimal
	Rate          decimal.Decimal
	Amount        decimal.Decimal
}

// InvoiceRequest is sent to the invoice-generation service.
type InvoiceRequest struct {
	Customer    CompanyID
	Company     string
	FolioID     FolioID
	PostingDate Date
	Lines       []InvoiceLine
}

// InvoiceService produces an external invoice and returns its id.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (string, error)
}

// StockIssue is a warehouse deduction request.
type StockIssue struct {
	ItemCode    string
	Qty         decimal.Decimal
	UOM         string
	Warehouse   string
	Company     string
	PostingDate Date
	Reference   TransactionID
}

// StockService issues a warehouse deduction and returns the stock movement id.
type StockService interface {
	Issue(ctx context.Context, req StockIssue) (string, error)
}

// =============================================================================
// NO-OP DEFAULTS
// =============================================================================

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notice) error { return nil }

// NopNotifier discards every notice.
var NopNotifier Notifier = nopNotifier{}
