// Package catalog loads and serves immutable repair reference data.
// The catalog is read once at startup and passed by reference into the
// pricing and inventory components; it is never mutated during a session.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fixitapp/internal/domain"

	"github.com/samber/lo"
)

//go:embed catalog.json
var defaultCatalog []byte

// priceEntry is a device-specific price row in the catalog document
type priceEntry struct {
	Device string  `json:"device"`
	Repair string  `json:"repair"`
	Tier   string  `json:"tier"`
	Price  float64 `json:"price"`
}

// genericEntry is a fallback price row keyed by (repair, tier) only
type genericEntry struct {
	Repair string  `json:"repair"`
	Tier   string  `json:"tier"`
	Price  float64 `json:"price"`
}

// tierRestriction limits the tiers offered for a (device, repair) pair
type tierRestriction struct {
	Device string   `json:"device"`
	Repair string   `json:"repair"`
	Tiers  []string `json:"tiers"`
}

// stockEntry is the seeded stock status for a (repair, tier) pair
type stockEntry struct {
	Repair string `json:"repair"`
	Tier   string `json:"tier"`
	Status string `json:"status"`
}

// document is the on-disk shape of the catalog file
type document struct {
	Devices     []domain.Device     `json:"devices"`
	RepairTypes []domain.RepairType `json:"repairTypes"`
	Tiers       []domain.PartsTier  `json:"tiers"`
	Prices      []priceEntry        `json:"prices"`
	Generic     []genericEntry      `json:"genericPrices"`
	TierMatrix  []tierRestriction   `json:"tierAvailability"`
	Stock       []stockEntry        `json:"stock"`
	LaborFee    float64             `json:"laborFee"`
	ServiceFee  float64             `json:"serviceFee"`
}

// Catalog is the immutable reference data set
type Catalog struct {
	devices     []domain.Device
	repairTypes []domain.RepairType
	tiers       []domain.PartsTier

	prices     map[string]float64 // device|repair|tier
	generic    map[string]float64 // repair|tier
	tierMatrix map[string][]string
	stock      map[string]domain.StockStatus
	laborFee   float64
	serviceFee float64
}

// Load reads a catalog document from the given path, or falls back to
// the embedded default catalog when the path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		data = b
	}
	return parse(data)
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

func parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		devices:     doc.Devices,
		repairTypes: doc.RepairTypes,
		tiers:       doc.Tiers,
		prices:      make(map[string]float64, len(doc.Prices)),
		generic:     make(map[string]float64, len(doc.Generic)),
		tierMatrix:  make(map[string][]string, len(doc.TierMatrix)),
		stock:       make(map[string]domain.StockStatus, len(doc.Stock)),
		laborFee:    doc.LaborFee,
		serviceFee:  doc.ServiceFee,
	}

	for _, p := range doc.Prices {
		c.prices[priceKey(p.Device, p.Repair, p.Tier)] = p.Price
	}
	for _, g := range doc.Generic {
		c.generic[genericKey(g.Repair, g.Tier)] = g.Price
	}
	for _, t := range doc.TierMatrix {
		c.tierMatrix[genericKey(t.Device, t.Repair)] = t.Tiers
	}
	for _, s := range doc.Stock {
		c.stock[genericKey(s.Repair, s.Tier)] = domain.StockStatus(s.Status)
	}

	// Tiers are ranked so callers can pick the highest selected tier
	sort.Slice(c.tiers, func(i, j int) bool { return c.tiers[i].Rank < c.tiers[j].Rank })

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.devices) == 0 {
		return fmt.Errorf("no devices defined")
	}
	if len(c.repairTypes) == 0 {
		return fmt.Errorf("no repair types defined")
	}
	if len(c.tiers) == 0 {
		return fmt.Errorf("no parts tiers defined")
	}
	for key, tiers := range c.tierMatrix {
		for _, id := range tiers {
			if _, ok := c.TierByID(id); !ok {
				return fmt.Errorf("tier availability %q references unknown tier %q", key, id)
			}
		}
	}
	return nil
}

// Devices returns all devices in catalog order.
func (c *Catalog) Devices() []domain.Device { return c.devices }

// RepairTypes returns all repair types in catalog order.
func (c *Catalog) RepairTypes() []domain.RepairType { return c.repairTypes }

// Tiers returns all parts tiers ordered by rank.
func (c *Catalog) Tiers() []domain.PartsTier { return c.tiers }

// DeviceByID looks up a device by its id.
func (c *Catalog) DeviceByID(id int64) (domain.Device, bool) {
	return lo.Find(c.devices, func(d domain.Device) bool { return d.ID == id })
}

// RepairByID looks up a repair type by its id.
func (c *Catalog) RepairByID(id string) (domain.RepairType, bool) {
	return lo.Find(c.repairTypes, func(r domain.RepairType) bool { return r.ID == id })
}

// TierByID looks up a parts tier by its id.
func (c *Catalog) TierByID(id string) (domain.PartsTier, bool) {
	return lo.Find(c.tiers, func(t domain.PartsTier) bool { return t.ID == id })
}

// TiersFor returns the tiers offered for a (device, repair) pair. When
// the catalog restricts the pair, only the restricted subset is
// returned; otherwise every tier with a resolvable price is offered.
func (c *Catalog) TiersFor(deviceName, repairID string) []domain.PartsTier {
	if allowed, ok := c.tierMatrix[genericKey(deviceName, repairID)]; ok {
		return lo.Filter(c.tiers, func(t domain.PartsTier, _ int) bool {
			return lo.Contains(allowed, t.ID)
		})
	}
	return lo.Filter(c.tiers, func(t domain.PartsTier, _ int) bool {
		_, err := c.PriceFor(deviceName, repairID, t.ID)
		return err == nil
	})
}

// StockTable returns the seeded stock statuses keyed by repair|tier.
// The inventory checker uses this as its static provider data.
func (c *Catalog) StockTable() map[string]domain.StockStatus {
	out := make(map[string]domain.StockStatus, len(c.stock))
	for k, v := range c.stock {
		out[k] = v
	}
	return out
}

func priceKey(device, repair, tier string) string {
	return device + "|" + repair + "|" + tier
}

func genericKey(a, b string) string {
	return a + "|" + b
}

// StockKey builds the repair|tier key used by the stock table.
func StockKey(repairID, tierID string) string {
	return genericKey(repairID, tierID)
}
