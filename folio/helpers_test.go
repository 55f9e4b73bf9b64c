package folio_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/folio/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var today = folio.MustParseDate("2025-03-10")

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	ctx      context.Context
	store    *store.Memory
	eng      *folio.Engine
	hc       folio.HotelContext
	notices  *recordingNotifier
	credits  *stubCredits
	invoices *stubInvoices
	stock    *stubStock
	recv     *stubReceivables
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    store.NewMemory(),
		hc:       folio.HotelContext{Company: "Grand Hotel", Actor: folio.Actor{ID: "clerk"}},
		notices:  &recordingNotifier{},
		credits:  &stubCredits{balances: map[folio.GuestID]decimal.Decimal{}},
		invoices: &stubInvoices{},
		stock:    &stubStock{},
		recv:     &stubReceivables{balances: map[folio.CompanyID]decimal.Decimal{}},
	}
	f.eng = folio.NewEngine(f.store, folio.Config{
		Clock:       folio.FixedClock(today),
		Notifier:    f.notices,
		Receivables: f.recv,
		Credits:     f.credits,
		Invoices:    f.invoices,
		Stock:       f.stock,
	})
	require.NoError(t, f.store.PutAllowanceReason(f.ctx, folio.AllowanceReason{Code: "ERR", Description: "Posting error"}))
	require.NoError(t, f.store.PutAllowanceReason(f.ctx, folio.AllowanceReason{Code: "COMP", Description: "Goodwill", RequiresManagerApproval: true}))
	return f
}

// openFolio creates an Open guest folio.
func (f *fixture) openFolio(t *testing.T, mutate ...func(*folio.Folio)) folio.Folio {
	t.Helper()
	fo := folio.Folio{GuestID: "G-1", Status: folio.FolioOpen}
	for _, m := range mutate {
		m(&fo)
	}
	created, err := f.eng.CreateFolio(f.ctx, f.hc, fo)
	require.NoError(t, err)
	return created
}

func (f *fixture) post(t *testing.T, id folio.FolioID, item, amount string, mutate ...func(*folio.Transaction)) folio.Transaction {
	t.Helper()
	tx := folio.Transaction{FolioID: id, ItemCode: item, Amount: money(amount)}
	for _, m := range mutate {
		m(&tx)
	}
	posted, err := f.eng.Post(f.ctx, f.hc, tx)
	require.NoError(t, err)
	return posted
}

func (f *fixture) folio(t *testing.T, id folio.FolioID) folio.Folio {
	t.Helper()
	fo, err := f.eng.Folio(f.ctx, id)
	require.NoError(t, err)
	return fo
}

func billTo(b folio.BillTo) func(*folio.Transaction) {
	return func(tx *folio.Transaction) { tx.BillTo = b }
}

// =============================================================================
// COLLABORATOR STUBS
// =============================================================================

type recordingNotifier struct {
	mu      sync.Mutex
	notices []folio.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n folio.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recordingNotifier) count(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.notices {
		if x.Subject == subject {
			n++
		}
	}
	return n
}

type stubReceivables struct {
	balances map[folio.CompanyID]decimal.Decimal
	err      error
}

func (s *stubReceivables) Balance(_ context.Context, c folio.CompanyID) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.balances[c], nil
}

type stubCredits struct {
	balances map[folio.GuestID]decimal.Decimal
	consumed []decimal.Decimal
}

func (s *stubCredits) Available(_ context.Context, g folio.GuestID) (decimal.Decimal, error) {
	return s.balances[g], nil
}

func (s *stubCredits) Record(_ context.Context, g folio.GuestID, amount decimal.Decimal, _ folio.FolioID) error {
	s.balances[g] = s.balances[g].Add(amount)
	return nil
}

func (s *stubCredits) Consume(_ context.Context, g folio.GuestID, amount decimal.Decimal, _ folio.FolioID) error {
	s.balances[g] = s.balances[g].Sub(amount)
	s.consumed = append(s.consumed, amount)
	return nil
}

type stubInvoices struct {
	requests []folio.InvoiceRequest
	err      error
}

func (s *stubInvoices) CreateInvoice(_ context.Context, req folio.InvoiceRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.requests = append(s.requests, req)
	return "SINV-0001", nil
}

type stubStock struct {
	issues []folio.StockIssue
	fail   bool
}

func (s *stubStock) Issue(_ context.Context, req folio.StockIssue) (string, error) {
	if s.fail {
		return "", errors.New("warehouse offline")
	}
	s.issues = append(s.issues, req)
	return "STE-0001", nil
}
