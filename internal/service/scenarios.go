package service

import (
	"errors"

	"fraudguard/internal/features"
)

// ErrUnknownScenario is returned when a simulate command names no preset.
var ErrUnknownScenario = errors.New("service: unknown scenario")

// Scenario is a named preset transaction.
type Scenario struct {
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Input    features.Input `json:"input"`
	Severity string         `json:"severity"`
}

var scenarios = []Scenario{
	{
		Name:     "normal",
		Label:    "Normal purchase",
		Input:    features.Input{Amount: 120.0, Hour: 14},
		Severity: "ok",
	},
	{
		Name:     "stolen_card",
		Label:    "Stolen card, night transfer",
		Input:    features.Input{Amount: 250.0, Hour: 2, V14: -12.0, V17: -8.0},
		Severity: "critical",
	},
	{
		Name:     "odd_hour",
		Label:    "Large amount at an odd hour",
		Input:    features.Input{Amount: 5000.0, Hour: 4, V14: -5.0, V17: -2.0},
		Severity: "warning",
	},
	{
		Name:     "manual",
		Label:    "Manual entry defaults",
		Input:    features.Input{Amount: 100.0, Hour: 12},
		Severity: "info",
	},
}

// Scenarios lists the presets in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// LookupScenario resolves a preset by name.
func LookupScenario(name string) (Scenario, bool) {
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}
