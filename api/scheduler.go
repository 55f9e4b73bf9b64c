/*
scheduler.go - Automated night audit scheduler

PURPOSE:
  Runs the night audit once a day at a configured hour, so every in-house
  reservation gets its nightly room charge without a manual trigger.

DESIGN:
  - Runs a background goroutine that sleeps until the next run time
  - The audit itself is idempotent per night, so a restart that runs it
    twice on the same day posts nothing new
  - Per-reservation failures are logged and do not stop the run

CONFIGURATION:
  - Hour: local hour of day to run (NIGHT_AUDIT_HOUR, default 14). The
    audit extends every stay whose departure is on or before the audit
    date, so it must run after the checkout deadline
  - Enabled: whether the scheduler is active (NIGHT_AUDIT_ENABLED)

USAGE:
  scheduler := NewNightAuditScheduler(h, company, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunNightAudit endpoint (manual run)
  - hotel/audit.go: the audit itself
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
)

// NightAuditScheduler runs the night audit daily.
type NightAuditScheduler struct {
	Hotel   *hotel.Hotel
	Company string
	Hour    int
	Enabled bool
	Log     *slog.Logger

	// Now is the wall clock used to compute the next run.
	Now func() time.Time

	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewNightAuditScheduler creates a scheduler that runs at 14:00, after the
// day's departures have checked out.
func NewNightAuditScheduler(h *hotel.Hotel, company string, log *slog.Logger) *NightAuditScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &NightAuditScheduler{
		Hotel:   h,
		Company: company,
		Hour:    14,
		Enabled: true,
		Log:     log,
		Now:     time.Now,
	}
}

// Start begins the scheduler.
func (s *NightAuditScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info("night audit scheduler disabled")
		return
	}
	if s.running {
		return
	}
	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.run(s.stop)

	s.Log.Info("night audit scheduler started",
		slog.Int("hour", s.Hour),
		slog.Time("next_run", s.NextRun(s.Now())))
}

// Stop stops the scheduler and waits for a run in progress to finish.
func (s *NightAuditScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.running = false
	s.Log.Info("night audit scheduler stopped")
}

func (s *NightAuditScheduler) run(stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(s.NextRun(s.Now()).Sub(s.Now()))
		select {
		case <-timer.C:
			s.RunNow(context.Background())
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// RunNow runs the audit immediately (for testing/admin).
func (s *NightAuditScheduler) RunNow(ctx context.Context) hotel.AuditResult {
	res, err := s.Hotel.RunNightAudit(ctx, folio.System(s.Company))
	if err != nil {
		s.Log.Error("night audit failed", slog.String("error", err.Error()))
		return res
	}
	for _, msg := range res.Errors {
		s.Log.Warn("night audit skipped reservation", slog.String("error", msg))
	}
	s.Log.Info("night audit completed",
		slog.String("date", res.Date.String()),
		slog.Int("charged", res.Charged),
		slog.Int("extended", res.Extended),
		slog.Int("errors", len(res.Errors)))
	return res
}

// NextRun returns the first run time strictly after now.
func (s *NightAuditScheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
