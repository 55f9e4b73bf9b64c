package folio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func stockSetup(t *testing.T, f *fixture) folio.Folio {
	t.Helper()
	require.NoError(t, f.store.PutItem(f.ctx, folio.Item{
		Code: "COKE", Name: "Coke", StandardRate: money("3"), IsStockItem: true, StockUOM: "Nos", DefaultWarehouse: "Main Store",
	}))
	require.NoError(t, f.store.PutRoom(f.ctx, folio.Room{ID: "R101", Warehouse: "Minibar R101", IsEnabled: true}))
	return f.openFolio(t, func(fo *folio.Folio) { fo.RoomID = "R101" })
}

func TestStockDeduction_IssuesFromRoomWarehouse(t *testing.T) {
	f := newFixture(t)
	fo := stockSetup(t, f)

	tx, err := f.eng.Post(f.ctx, f.hc, folio.Transaction{FolioID: fo.ID, ItemCode: "COKE", Qty: money("2")})
	require.NoError(t, err)

	require.Len(t, f.stock.issues, 1)
	issue := f.stock.issues[0]
	assert.Equal(t, "Minibar R101", issue.Warehouse)
	assert.Equal(t, "Grand Hotel", issue.Company)
	assert.True(t, issue.Qty.Equal(money("2")))
	assert.Equal(t, tx.ID, issue.Reference)

	stored, err := f.store.GetTransaction(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, folio.RefStockEntry, stored.ReferenceType)
	assert.Equal(t, "STE-0001", stored.ReferenceName)
}

func TestStockDeduction_SkipsNonStockAndCredits(t *testing.T) {
	f := newFixture(t)
	fo := stockSetup(t, f)

	f.post(t, fo.ID, "BAR", "12")
	f.post(t, fo.ID, "COKE", "-3")

	assert.Empty(t, f.stock.issues)
}

func TestStockDeduction_FailureDoesNotBlockPosting(t *testing.T) {
	f := newFixture(t)
	fo := stockSetup(t, f)
	f.stock.fail = true

	tx, err := f.eng.Post(f.ctx, f.hc, folio.Transaction{FolioID: fo.ID, ItemCode: "COKE"})

	require.NoError(t, err)
	stored, err := f.store.GetTransaction(f.ctx, tx.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ReferenceType)
	assert.True(t, f.folio(t, fo.ID).OutstandingBalance.Equal(money("3")))
}
