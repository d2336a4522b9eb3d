// Package inventory reports parts stock for repair selections.
package inventory

import (
	"context"

	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
)

// Provider supplies stock status for a (repair, tier) pair. Implemented
// by the static catalog table in this repo and by external inventory
// systems in deployments that have one.
type Provider interface {
	StockStatus(ctx context.Context, repairID, tierID string) (domain.StockStatus, error)
}

// StaticProvider serves stock from an in-memory table
type StaticProvider struct {
	table map[string]domain.StockStatus
}

// NewStaticProvider creates a provider backed by the given table,
// keyed by catalog.StockKey.
func NewStaticProvider(table map[string]domain.StockStatus) *StaticProvider {
	return &StaticProvider{table: table}
}

func (p *StaticProvider) StockStatus(ctx context.Context, repairID, tierID string) (domain.StockStatus, error) {
	if status, ok := p.table[catalog.StockKey(repairID, tierID)]; ok {
		return status, nil
	}
	return domain.StockUnknown, nil
}

// Checker aggregates stock status over a quote selection
type Checker struct {
	provider Provider
}

// NewChecker creates a checker over the given provider.
func NewChecker(provider Provider) *Checker {
	return &Checker{provider: provider}
}

// StockFor returns the stock status for a single pair. Provider
// failures degrade to unknown rather than erroring the wizard.
func (c *Checker) StockFor(ctx context.Context, repairID, tierID string) domain.StockStatus {
	status, err := c.provider.StockStatus(ctx, repairID, tierID)
	if err != nil {
		return domain.StockUnknown
	}
	return status
}

// AllInStock reports whether every selected (issue, tier) pair is
// confirmed in stock. An unknown status counts as not in stock: the
// checker never claims availability it cannot confirm.
func (c *Checker) AllInStock(ctx context.Context, sel *domain.QuoteSelection) bool {
	if sel == nil || len(sel.Issues) == 0 {
		return false
	}
	for _, repairID := range sel.Issues {
		tierID, ok := sel.IssueTiers[repairID]
		if !ok {
			return false
		}
		if c.StockFor(ctx, repairID, tierID) != domain.StockInStock {
			return false
		}
	}
	return true
}

// NeedsOrder reports whether at least one selected pair requires a
// parts order. Unknown statuses do not trigger an ordering delay; only
// an explicit needs-order status shifts the schedule.
func (c *Checker) NeedsOrder(ctx context.Context, sel *domain.QuoteSelection) bool {
	if sel == nil {
		return false
	}
	for _, repairID := range sel.Issues {
		tierID, ok := sel.IssueTiers[repairID]
		if !ok {
			continue
		}
		if c.StockFor(ctx, repairID, tierID) == domain.StockNeedsOrder {
			return true
		}
	}
	return false
}
