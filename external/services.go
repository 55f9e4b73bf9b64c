package external

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// INVOICES
// =============================================================================

// Invoice is a sales invoice issued by Invoices.
type Invoice struct {
	ID string `json:"id"`
	folio.InvoiceRequest
	Total decimal.Decimal `json:"total"`
}

// Invoices numbers invoices per posting year ("SINV-2025-00001") and, when
// Receivables is set, raises the customer's receivable by the invoice total.
type Invoices struct {
	Receivables ReceivableBook

	mu       sync.Mutex
	seq      map[int]int
	invoices []Invoice
}

func NewInvoices(receivables ReceivableBook) *Invoices {
	return &Invoices{Receivables: receivables, seq: make(map[int]int)}
}

func (iv *Invoices) CreateInvoice(ctx context.Context, req folio.InvoiceRequest) (string, error) {
	if req.Customer == "" {
		return "", fmt.Errorf("invoice needs a customer: %w", folio.ErrMissingCompany)
	}
	if len(req.Lines) == 0 {
		return "", folio.ErrNothingToInvoice
	}
	total := decimal.Zero
	for _, l := range req.Lines {
		total = total.Add(l.Amount)
	}

	iv.mu.Lock()
	year := req.PostingDate.Time.Year()
	iv.seq[year]++
	inv := Invoice{ID: fmt.Sprintf("SINV-%d-%05d", year, iv.seq[year]), InvoiceRequest: req, Total: total}
	iv.invoices = append(iv.invoices, inv)
	iv.mu.Unlock()

	if iv.Receivables != nil {
		if err := iv.Receivables.Add(ctx, req.Customer, total); err != nil {
			return "", err
		}
	}
	return inv.ID, nil
}

// Get returns an issued invoice.
func (iv *Invoices) Get(id string) (Invoice, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	for _, inv := range iv.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, folio.NotFound("invoice", id)
}

// =============================================================================
// STOCK
// =============================================================================

// StockEntry is one issued warehouse movement.
type StockEntry struct {
	ID string `json:"id"`
	folio.StockIssue
}

// Stock records warehouse issues and numbers them "STE-00001".
type Stock struct {
	mu      sync.Mutex
	entries []StockEntry
}

func NewStock() *Stock { return &Stock{} }

func (s *Stock) Issue(_ context.Context, req folio.StockIssue) (string, error) {
	if req.Warehouse == "" {
		return "", fmt.Errorf("stock issue of %s needs a warehouse: %w", req.ItemCode, folio.ErrInvalidInput)
	}
	if !req.Qty.IsPositive() {
		return "", fmt.Errorf("stock issue of %s needs a positive qty: %w", req.ItemCode, folio.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := StockEntry{ID: fmt.Sprintf("STE-%05d", len(s.entries)+1), StockIssue: req}
	s.entries = append(s.entries, e)
	return e.ID, nil
}

// Entries lists issued movements in order.
func (s *Stock) Entries() []StockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StockEntry(nil), s.entries...)
}

var (
	_ folio.InvoiceService = (*Invoices)(nil)
	_ folio.StockService   = (*Stock)(nil)
)
