package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNightAuditScheduler_RunsAfterCheckoutByDefault(t *testing.T) {
	s := NewNightAuditScheduler(nil, "Grand Hotel", quietLog())

	assert.Equal(t, 14, s.Hour)
	// An early-morning start waits for the afternoon of the same day
	early := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), s.NextRun(early))
}

func TestNightAuditScheduler_NextRun(t *testing.T) {
	s := &NightAuditScheduler{Hour: 14}
	at := func(day, hour, min int) time.Time { return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before the hour", at(10, 13, 30), at(10, 14, 0)},
		{"exactly on the hour", at(10, 14, 0), at(11, 14, 0)},
		{"after the hour", at(10, 23, 0), at(11, 14, 0)},
		{"end of month", time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.NextRun(tt.now))
		})
	}
}

func TestNightAuditScheduler_RunNow(t *testing.T) {
	ts := newTestServer(t)
	ts.seed()
	res := ts.book("R101", 3)
	ts.expect(200, "POST", "/api/reservations/"+res.ID+"/check-in", nil, nil)

	s := NewNightAuditScheduler(ts.hotel, "Grand Hotel", quietLog())

	// GIVEN: the next day
	ts.day = ts.day.AddDays(1)

	// WHEN: the audit runs twice
	first := s.RunNow(context.Background())
	second := s.RunNow(context.Background())

	// THEN: the night is charged once
	assert.Equal(t, 1, first.Charged)
	assert.Equal(t, 0, second.Charged)
	assert.Equal(t, ts.day, first.Date)

	f, err := ts.hotel.Engine.Folio(context.Background(), folio.FolioID(res.FolioID))
	require.NoError(t, err)
	assert.Equal(t, "200", f.OutstandingBalance.String())
}

func TestNightAuditScheduler_StartStop(t *testing.T) {
	ts := newTestServer(t)
	s := NewNightAuditScheduler(ts.hotel, "Grand Hotel", quietLog())
	s.Now = func() time.Time { return time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC) }

	s.Enabled = false
	s.Start()
	assert.False(t, s.running)

	s.Enabled = true
	s.Start()
	s.Start()
	assert.True(t, s.running)

	s.Stop()
	s.Stop()
	assert.False(t, s.running)
}
