/*
Package external holds in-process adapters for the services the folio engine
calls out to.

ADAPTERS:
  Credits             standing guest credit carried between stays (memory)
  MemoryReceivables   company receivable balances (memory)
  RedisReceivables    company receivable balances shared through Redis
  Invoices            local sales-invoice numbering; raises receivables
  Stock               warehouse issue log with stock-entry numbering

All adapters are safe for concurrent use.

SEE ALSO:
  - folio/collaborators.go: the interfaces implemented here
*/
package external

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
)

// =============================================================================
// STANDING CREDITS
// =============================================================================

// CreditEntry is one movement on a guest's standing credit.
type CreditEntry struct {
	Guest  folio.GuestID   `json:"guest"`
	Amount decimal.Decimal `json:"amount"` // positive when recorded, negative when consumed
	Folio  folio.FolioID   `json:"folio"`
}

// Credits keeps a per-guest credit ledger.
type Credits struct {
	mu      sync.Mutex
	entries []CreditEntry
}

func NewCredits() *Credits { return &Credits{} }

func (c *Credits) Available(_ context.Context, guest folio.GuestID) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance(guest), nil
}

func (c *Credits) Record(_ context.Context, guest folio.GuestID, amount decimal.Decimal, source folio.FolioID) error {
	if !amount.IsPositive() {
		return fmt.Errorf("standing credit must be positive, got %s: %w", amount, folio.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, CreditEntry{Guest: guest, Amount: amount, Folio: source})
	return nil
}

func (c *Credits) Consume(_ context.Context, guest folio.GuestID, amount decimal.Decimal, target folio.FolioID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if available := c.balance(guest); amount.GreaterThan(available) {
		return fmt.Errorf("guest %s has %s standing credit, %s requested: %w", guest, available, amount, folio.ErrInvalidInput)
	}
	c.entries = append(c.entries, CreditEntry{Guest: guest, Amount: amount.Neg(), Folio: target})
	return nil
}

// History lists a guest's credit movements in order.
func (c *Credits) History(guest folio.GuestID) []CreditEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []CreditEntry
	for _, e := range c.entries {
		if e.Guest == guest {
			out = append(out, e)
		}
	}
	return out
}

func (c *Credits) balance(guest folio.GuestID) decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		if e.Guest == guest {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// =============================================================================
// RECEIVABLES
// =============================================================================

// ReceivableBook is a receivable ledger that can also be charged.
type ReceivableBook interface {
	folio.ReceivableLedger
	Add(ctx context.Context, company folio.CompanyID, amount decimal.Decimal) error
}

// MemoryReceivables keeps company balances in a map.
type MemoryReceivables struct {
	mu       sync.Mutex
	balances map[folio.CompanyID]decimal.Decimal
}

func NewMemoryReceivables() *MemoryReceivables {
	return &MemoryReceivables{balances: make(map[folio.CompanyID]decimal.Decimal)}
}

func (m *MemoryReceivables) Balance(_ context.Context, company folio.CompanyID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[company], nil
}

func (m *MemoryReceivables) Add(_ context.Context, company folio.CompanyID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[company] = m.balances[company].Add(amount)
	return nil
}

var (
	_ folio.StandingCredits = (*Credits)(nil)
	_ ReceivableBook        = (*MemoryReceivables)(nil)
)
