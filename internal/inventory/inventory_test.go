package inventory_test

import (
	"context"
	"testing"

	"fixitapp/internal/catalog"
	"fixitapp/internal/domain"
	"fixitapp/internal/inventory"

	"github.com/stretchr/testify/require"
)

func testChecker() *inventory.Checker {
	table := map[string]domain.StockStatus{
		catalog.StockKey("screen", "premium"):  domain.StockInStock,
		catalog.StockKey("screen", "genuine"):  domain.StockNeedsOrder,
		catalog.StockKey("battery", "premium"): domain.StockInStock,
	}
	return inventory.NewChecker(inventory.NewStaticProvider(table))
}

func selection(issueTiers map[string]string) *domain.QuoteSelection {
	sel := &domain.QuoteSelection{IssueTiers: issueTiers}
	for id := range issueTiers {
		sel.Issues = append(sel.Issues, id)
	}
	return sel
}

func TestStockForTriState(t *testing.T) {
	checker := testChecker()
	ctx := context.Background()

	require.Equal(t, domain.StockInStock, checker.StockFor(ctx, "screen", "premium"))
	require.Equal(t, domain.StockNeedsOrder, checker.StockFor(ctx, "screen", "genuine"))
	// Pairs absent from the table are unknown, not in stock
	require.Equal(t, domain.StockUnknown, checker.StockFor(ctx, "camera", "premium"))
}

func TestAllInStock(t *testing.T) {
	checker := testChecker()
	ctx := context.Background()

	tests := []struct {
		name string
		sel  *domain.QuoteSelection
		want bool
	}{
		{
			name: "all pairs in stock",
			sel:  selection(map[string]string{"screen": "premium", "battery": "premium"}),
			want: true,
		},
		{
			name: "one pair needs order",
			sel:  selection(map[string]string{"screen": "genuine"}),
			want: false,
		},
		{
			name: "unknown pair never claims in stock",
			sel:  selection(map[string]string{"camera": "premium"}),
			want: false,
		},
		{
			name: "empty selection",
			sel:  selection(map[string]string{}),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, checker.AllInStock(ctx, tt.sel))
		})
	}
}

func TestNeedsOrderOnlyOnExplicitStatus(t *testing.T) {
	checker := testChecker()
	ctx := context.Background()

	// Needs-order triggers the delay
	require.True(t, checker.NeedsOrder(ctx, selection(map[string]string{
		"screen": "genuine", "battery": "premium",
	})))

	// Unknown does not force a delay
	require.False(t, checker.NeedsOrder(ctx, selection(map[string]string{
		"camera": "premium",
	})))

	require.False(t, checker.NeedsOrder(ctx, selection(map[string]string{
		"screen": "premium",
	})))
}
