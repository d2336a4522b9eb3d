package catalog

import (
	"errors"
	"fmt"

	"fixitapp/internal/domain"
)

// ErrUnpriced is returned when neither a device-specific nor a generic
// price exists for a (device, repair, tier) combination. Callers must
// surface it, never default to zero.
var ErrUnpriced = errors.New("no price defined for selection")

// QuoteItem is one priced repair line in a quote breakdown
type QuoteItem struct {
	RepairID   string  `json:"repairId"`
	RepairName string  `json:"repairName"`
	TierID     string  `json:"tierId"`
	TierName   string  `json:"tierName"`
	Price      float64 `json:"price"`
}

// Quote is the full price breakdown for a selection
type Quote struct {
	Items      []QuoteItem `json:"items"`
	LaborFee   float64     `json:"laborFee"`
	ServiceFee float64     `json:"serviceFee"`
	Total      float64     `json:"total"`
}

// PriceFor resolves the price for a single (device, repair, tier)
// combination. Resolution order: device-specific entry, then the
// generic (repair, tier) matrix, then ErrUnpriced.
func (c *Catalog) PriceFor(deviceName, repairID, tierID string) (float64, error) {
	if price, ok := c.prices[priceKey(deviceName, repairID, tierID)]; ok {
		return price, nil
	}
	if price, ok := c.generic[genericKey(repairID, tierID)]; ok {
		return price, nil
	}
	return 0, fmt.Errorf("%w: device=%s repair=%s tier=%s", ErrUnpriced, deviceName, repairID, tierID)
}

// LaborFee returns the fixed labor fee added to every quote.
func (c *Catalog) LaborFee() float64 { return c.laborFee }

// ServiceFee returns the fixed service fee added to every quote.
func (c *Catalog) ServiceFee() float64 { return c.serviceFee }

// TotalFor computes the quote for the current selection: the sum of
// per-issue prices plus the fixed labor and service fees. The catalog
// is immutable, so the result is deterministic for a given selection.
func (c *Catalog) TotalFor(sel *domain.QuoteSelection) (*Quote, error) {
	if sel == nil || sel.Device == nil {
		return nil, fmt.Errorf("no device selected")
	}

	quote := &Quote{
		LaborFee:   c.laborFee,
		ServiceFee: c.serviceFee,
	}

	for _, repairID := range sel.Issues {
		tierID, ok := sel.IssueTiers[repairID]
		if !ok {
			return nil, fmt.Errorf("no tier assigned for repair %s", repairID)
		}
		price, err := c.PriceFor(sel.Device.Name, repairID, tierID)
		if err != nil {
			return nil, err
		}

		item := QuoteItem{
			RepairID: repairID,
			TierID:   tierID,
			Price:    price,
		}
		if repair, ok := c.RepairByID(repairID); ok {
			item.RepairName = repair.Name
		}
		if tier, ok := c.TierByID(tierID); ok {
			item.TierName = tier.Name
		}
		quote.Items = append(quote.Items, item)
		quote.Total += price
	}

	quote.Total += c.laborFee + c.serviceFee
	return quote, nil
}
