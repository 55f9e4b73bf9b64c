package folio_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func breachSetup(t *testing.T, f *fixture) folio.Folio {
	t.Helper()
	require.NoError(t, f.store.PutCompany(f.ctx, folio.Company{ID: "ACME", CreditLimit: money("1000")}))
	f.recv.balances["ACME"] = money("950")
	return f.openFolio(t, func(fo *folio.Folio) { fo.CompanyID = "ACME" })
}

func TestOutbox_RollbackDropsNotices(t *testing.T) {
	f := newFixture(t)
	fo := breachSetup(t, f)
	abort := errors.New("abort")

	// WHEN: a breaching posting is rolled back
	err := f.eng.Store.WithTx(f.ctx, func(s folio.Store) error {
		_, err := f.eng.Ledger.Post(f.ctx, s, f.hc, folio.Transaction{FolioID: fo.ID, ItemCode: "BAR", Amount: money("60")})
		require.NoError(t, err)
		return abort
	})
	require.ErrorIs(t, err, abort)

	// THEN: nothing went out and nothing was kept
	assert.Zero(t, f.notices.count(creditSubject))
	assert.True(t, f.folio(t, fo.ID).OutstandingBalance.IsZero())
}

func TestOutbox_CommitDeliversAfterTransaction(t *testing.T) {
	f := newFixture(t)
	fo := breachSetup(t, f)

	err := f.eng.Store.WithTx(f.ctx, func(s folio.Store) error {
		_, err := f.eng.Ledger.Post(f.ctx, s, f.hc, folio.Transaction{FolioID: fo.ID, ItemCode: "BAR", Amount: money("60")})
		require.NoError(t, err)
		assert.Zero(t, f.notices.count(creditSubject), "held until commit")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.notices.count(creditSubject))
}

func TestNotifyAfterCommit_OutsideTransactionSendsNow(t *testing.T) {
	f := newFixture(t)
	n := folio.Notice{Level: folio.NoticeInfo, Subject: "Direct"}

	require.NoError(t, folio.NotifyAfterCommit(context.Background(), f.store, f.notices, n))
	assert.Equal(t, 1, f.notices.count("Direct"))

	assert.NoError(t, folio.NotifyAfterCommit(context.Background(), f.store, nil, n))
}
