package folio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func TestCreateInvoice_BillsUnbilledNonVoid(t *testing.T) {
	f := newFixture(t)
	fo := f.openFolio(t, func(fo *folio.Folio) { fo.CompanyID = "ACME" })
	room := f.post(t, fo.ID, folio.ItemRoomRent, "200", func(tx *folio.Transaction) { tx.Qty = money("2") })
	bar := f.post(t, fo.ID, "BAR", "15")
	_, err := f.eng.Void(f.ctx, f.hc, bar.ID, "ERR")
	require.NoError(t, err)

	id, err := f.eng.CreateInvoice(f.ctx, f.hc, fo.ID)
	require.NoError(t, err)
	assert.Equal(t, "SINV-0001", id)

	require.Len(t, f.invoices.requests, 1)
	req := f.invoices.requests[0]
	assert.Equal(t, folio.CompanyID("ACME"), req.Customer)
	assert.Equal(t, "Grand Hotel", req.Company)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, room.ID, req.Lines[0].TransactionID)
	assert.True(t, req.Lines[0].Rate.Equal(money("100")))

	got, err := f.store.GetTransaction(f.ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, got.IsInvoiced)
	assert.Equal(t, folio.RefSalesInvoice, got.ReferenceType)
	assert.Equal(t, id, got.ReferenceName)

	// Nothing left to bill.
	_, err = f.eng.CreateInvoice(f.ctx, f.hc, fo.ID)
	assert.ErrorIs(t, err, folio.ErrNothingToInvoice)
}

func TestCreateInvoice_CustomerFromGuest(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutGuest(f.ctx, folio.Guest{ID: "G-9", FullName: "Private", CustomerID: "CUST-9"}))
	fo := f.openFolio(t, func(fo *folio.Folio) { fo.GuestID = "G-9" })
	f.post(t, fo.ID, "BAR", "15")

	_, err := f.eng.CreateInvoice(f.ctx, f.hc, fo.ID)
	require.NoError(t, err)
	assert.Equal(t, folio.CompanyID("CUST-9"), f.invoices.requests[0].Customer)
}

func TestCreateInvoice_RequiresCustomer(t *testing.T) {
	f := newFixture(t)
	fo := f.openFolio(t)
	f.post(t, fo.ID, "BAR", "15")

	_, err := f.eng.CreateInvoice(f.ctx, f.hc, fo.ID)
	assert.ErrorIs(t, err, folio.ErrMissingCompany)
	assert.Empty(t, f.invoices.requests)
}
