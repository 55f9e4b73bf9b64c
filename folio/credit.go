package folio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// CreditGuard compares a company's exposure with its credit limit. It never
// blocks: every failure to resolve a limit or balance is logged and dropped.
type CreditGuard struct {
	Receivables ReceivableLedger
	Notifier    Notifier
	Log         *slog.Logger
}

// Check emits a warning notice when external balance + exposure exceeds the
// resolved limit, and reports whether it did.
func (g *CreditGuard) Check(ctx context.Context, s Store, hc HotelContext, company CompanyID, exposure decimal.Decimal) bool {
	log := g.logger().With(slog.String("company", string(company)))

	limit, err := g.ResolveLimit(ctx, s, hc, company)
	if err != nil {
		log.Warn("credit limit unresolved", slog.String("error", err.Error()))
		return false
	}
	if !limit.IsPositive() {
		return false
	}

	balance := decimal.Zero
	if g.Receivables != nil {
		balance, err = g.Receivables.Balance(ctx, company)
		if err != nil {
			log.Warn("receivable balance unavailable", slog.String("error", err.Error()))
			return false
		}
	}

	total := balance.Add(exposure)
	if total.LessThanOrEqual(limit) {
		return false
	}

	notice := Notice{
		Level:     NoticeWarning,
		Subject:   "Credit Limit Exceeded",
		CompanyID: company,
		Message: fmt.Sprintf("company %s exposure %s exceeds credit limit %s",
			company, total.StringFixed(2), limit.StringFixed(2)),
		Fields: map[string]string{
			"limit":    limit.StringFixed(2),
			"balance":  balance.StringFixed(2),
			"exposure": exposure.StringFixed(2),
		},
	}
	log.Warn("credit limit exceeded",
		slog.String("limit", notice.Fields["limit"]),
		slog.String("total", total.StringFixed(2)))
	if err := NotifyAfterCommit(ctx, s, g.Notifier, notice); err != nil {
		log.Warn("credit notice not delivered", slog.String("error", err.Error()))
	}
	return true
}

// ResolveLimit returns the operating company's override for the customer,
// else the customer-level default.
func (g *CreditGuard) ResolveLimit(ctx context.Context, s Store, hc HotelContext, company CompanyID) (decimal.Decimal, error) {
	c, err := s.GetCompany(ctx, company)
	if err != nil {
		return decimal.Zero, err
	}
	if v, ok := c.HotelCreditLimits[hc.Company]; ok && v.IsPositive() {
		return v, nil
	}
	return c.CreditLimit, nil
}

func (g *CreditGuard) logger() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}
