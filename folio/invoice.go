package folio

import (
	"context"
	"fmt"
)

// Invoicer bills a folio's unbilled transactions through the invoice service
// and marks them invoiced.
type Invoicer struct {
	Ledger  *Ledger
	Service InvoiceService
}

// CreateInvoice returns the external invoice id. The customer is the folio's
// company, else the guest's linked customer.
func (iv *Invoicer) CreateInvoice(ctx context.Context, s Store, hc HotelContext, id FolioID) (string, error) {
	if iv.Service == nil {
		return "", fmt.Errorf("no invoice service configured: %w", ErrInvalidInput)
	}
	f, err := s.GetFolio(ctx, id)
	if err != nil {
		return "", err
	}

	customer := f.CompanyID
	if customer == "" {
		g, err := s.GetGuest(ctx, f.GuestID)
		if err != nil && !IsNotFound(err) {
			return "", err
		}
		customer = g.CustomerID
	}
	if customer == "" {
		return "", fmt.Errorf("link a company to folio %s or its guest to invoice it: %w", id, ErrMissingCompany)
	}

	unbilled, err := s.ListTransactions(ctx, TransactionFilter{FolioID: id, ExcludeVoid: true, OnlyUnbilled: true})
	if err != nil {
		return "", err
	}
	if len(unbilled) == 0 {
		return "", fmt.Errorf("folio %s: %w", id, ErrNothingToInvoice)
	}

	req := InvoiceRequest{
		Customer:    customer,
		Company:     hc.Company,
		FolioID:     id,
		PostingDate: iv.Ledger.Clock.Today(),
	}
	for _, t := range unbilled {
		rate := t.Amount
		if !t.Qty.IsZero() {
			rate = t.Amount.Div(t.Qty)
		}
		req.Lines = append(req.Lines, InvoiceLine{
			TransactionID: t.ID,
			ItemCode:      t.ItemCode,
			Description:   t.Description,
			Qty:           t.Qty,
			Rate:          rate,
			Amount:        t.Amount,
		})
	}

	invoiceID, err := iv.Service.CreateInvoice(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create invoice for folio %s: %w", id, err)
	}

	for _, t := range unbilled {
		t.IsInvoiced = true
		// Mirror copies keep their source link; it is the dedup key.
		if !t.IsMirror {
			t.ReferenceType = RefSalesInvoice
			t.ReferenceName = invoiceID
		}
		if _, err := iv.Ledger.Save(ctx, s, hc, t); err != nil {
			return "", fmt.Errorf("mark %s invoiced: %w", t.ID, err)
		}
	}
	return invoiceID, nil
}
