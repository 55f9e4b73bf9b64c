package external_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/external"
	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/folio/store"
)

var ctx = context.Background()

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCredits_RecordAndConsume(t *testing.T) {
	c := external.NewCredits()

	require.NoError(t, c.Record(ctx, "G-1", money("40"), "FOLIO-A"))
	require.NoError(t, c.Record(ctx, "G-1", money("10.50"), "FOLIO-B"))
	avail, err := c.Available(ctx, "G-1")
	require.NoError(t, err)
	assert.True(t, avail.Equal(money("50.50")))

	require.NoError(t, c.Consume(ctx, "G-1", money("50.50"), "FOLIO-C"))
	avail, _ = c.Available(ctx, "G-1")
	assert.True(t, avail.IsZero())
	assert.Len(t, c.History("G-1"), 3)

	assert.ErrorIs(t, c.Consume(ctx, "G-1", money("1"), "FOLIO-D"), folio.ErrInvalidInput)
	assert.ErrorIs(t, c.Record(ctx, "G-1", money("-5"), "FOLIO-E"), folio.ErrInvalidInput)

	other, _ := c.Available(ctx, "G-2")
	assert.True(t, other.IsZero())
}

// fakeRedis keeps integer keys in a map and answers with prebuilt commands.
type fakeRedis struct {
	vals map[string]int64
	err  error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(v, 10), nil)
}

func (f *fakeRedis) IncrBy(_ context.Context, key string, value int64) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.vals[key] += value
	return redis.NewIntResult(f.vals[key], nil)
}

func TestRedisReceivables(t *testing.T) {
	fake := &fakeRedis{vals: map[string]int64{}}
	r := &external.RedisReceivables{Client: fake}

	bal, err := r.Balance(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "missing key reads as zero")

	require.NoError(t, r.Add(ctx, "ACME", money("1200.25")))
	require.NoError(t, r.Add(ctx, "ACME", money("-200.005")))
	assert.Equal(t, int64(1000245000), fake.vals["receivable:ACME"])

	bal, err = r.Balance(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, bal.Equal(money("1000.245")), "got %s", bal)

	fake.err = errors.New("connection refused")
	_, err = r.Balance(ctx, "ACME")
	assert.ErrorContains(t, err, "connection refused")
}

func TestInvoices_NumbersAndRaisesReceivable(t *testing.T) {
	book := external.NewMemoryReceivables()
	iv := external.NewInvoices(book)
	req := folio.InvoiceRequest{
		Customer:    "ACME",
		Company:     "Grand Hotel",
		FolioID:     "FOLIO-1",
		PostingDate: folio.MustParseDate("2025-03-11"),
		Lines: []folio.InvoiceLine{
			{TransactionID: "FT-1", ItemCode: "ROOM-RENT", Qty: decimal.NewFromInt(1), Rate: money("100"), Amount: money("100")},
			{TransactionID: "FT-2", ItemCode: "DISCOUNT", Qty: decimal.NewFromInt(1), Rate: money("-10"), Amount: money("-10")},
		},
	}

	first, err := iv.CreateInvoice(ctx, req)
	require.NoError(t, err)
	second, err := iv.CreateInvoice(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "SINV-2025-00001", first)
	assert.Equal(t, "SINV-2025-00002", second)
	inv, err := iv.Get(first)
	require.NoError(t, err)
	assert.True(t, inv.Total.Equal(money("90")))
	bal, _ := book.Balance(ctx, "ACME")
	assert.True(t, bal.Equal(money("180")))

	_, err = iv.Get("SINV-1999-00001")
	assert.True(t, folio.IsNotFound(err))

	req.Customer = ""
	_, err = iv.CreateInvoice(ctx, req)
	assert.ErrorIs(t, err, folio.ErrMissingCompany)
}

func TestStock_Issue(t *testing.T) {
	s := external.NewStock()

	id, err := s.Issue(ctx, folio.StockIssue{ItemCode: "WATER", Qty: decimal.NewFromInt(2), Warehouse: "Minibar - GH", Reference: "FT-9"})
	require.NoError(t, err)
	assert.Equal(t, "STE-00001", id)
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, folio.TransactionID("FT-9"), s.Entries()[0].Reference)

	_, err = s.Issue(ctx, folio.StockIssue{ItemCode: "WATER", Qty: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, folio.ErrInvalidInput)
}

type recorder struct{ subjects []string }

func (r *recorder) Notify(_ context.Context, n folio.Notice) error {
	r.subjects = append(r.subjects, n.Subject)
	return nil
}

func TestEngineWiring_InvoiceFeedsCreditGuard(t *testing.T) {
	book := external.NewMemoryReceivables()
	notices := &recorder{}
	mem := store.NewMemory()
	eng := folio.NewEngine(mem, folio.Config{
		Clock:       folio.FixedClock(folio.MustParseDate("2025-03-11")),
		Notifier:    notices,
		Receivables: book,
		Invoices:    external.NewInvoices(book),
	})
	hc := folio.HotelContext{Company: "Grand Hotel"}
	require.NoError(t, mem.PutCompany(ctx, folio.Company{ID: "ACME", Name: "Acme Corp", CreditLimit: money("1000")}))

	master, err := eng.EnsureCompanyMaster(ctx, hc, "ACME")
	require.NoError(t, err)
	_, err = eng.Post(ctx, hc, folio.Transaction{FolioID: master.ID, ItemCode: "ROOM-RENT", Amount: money("600")})
	require.NoError(t, err)
	assert.Empty(t, notices.subjects, "600 alone is within the limit")

	// WHEN: the 600 is invoiced, the external receivable carries it too
	_, err = eng.CreateInvoice(ctx, hc, master.ID)
	require.NoError(t, err)

	// THEN: receivable 600 + exposure 600 breaches 1000
	bal, err := book.Balance(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, bal.Equal(money("600")))
	assert.Contains(t, notices.subjects, "Credit Limit Exceeded")
}
