package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"fixitapp/internal/repository"
)

// SettingsKey is where the availability table lives in the settings
// store. Operational tooling writes it; the engine only reads.
const SettingsKey = "availability_table"

// SettingsProvider reads the availability table from the settings
// repository. An absent table is not an error: the matcher offers the
// default slots presumptively until one is published.
type SettingsProvider struct {
	settings repository.SettingsRepository
}

// NewSettingsProvider creates a provider over the settings repository.
func NewSettingsProvider(settings repository.SettingsRepository) *SettingsProvider {
	return &SettingsProvider{settings: settings}
}

func (p *SettingsProvider) Availability(ctx context.Context) (Table, error) {
	raw, err := p.settings.Get(ctx, SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability table: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var table Table
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("failed to parse availability table: %w", err)
	}
	return table, nil
}

// StaticProvider serves a fixed table, used in tests.
type StaticProvider struct {
	table Table
}

// NewStaticProvider creates a provider over a fixed table.
func NewStaticProvider(table Table) *StaticProvider {
	return &StaticProvider{table: table}
}

func (p *StaticProvider) Availability(ctx context.Context) (Table, error) {
	return p.table, nil
}
