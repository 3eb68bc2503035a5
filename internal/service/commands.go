package service

import (
	"context"
	"fmt"

	"fraudguard/internal/features"
	"fraudguard/internal/stats"
)

// Command is one user action.
type Command interface {
	name() string
}

// SimulateCommand scores a named preset.
type SimulateCommand struct {
	Scenario string
}

// AnalyzeCommand scores operator-supplied fields.
type AnalyzeCommand struct {
	Input features.Input
}

// ClearCommand wipes the prediction history.
type ClearCommand struct{}

// RefreshCommand recomputes the dashboard.
type RefreshCommand struct {
	Recent int
}

func (SimulateCommand) name() string { return "simulate" }
func (AnalyzeCommand) name() string  { return "analyze" }
func (ClearCommand) name() string    { return "clear_all" }
func (RefreshCommand) name() string  { return "refresh_view" }

// Outcome is what a handled command produced. Only the field matching the command is set.
type Outcome struct {
	Analysis  *Analysis
	Dashboard *stats.Dashboard
}

// Handle dispatches a command. Each call runs to completion and keeps no state between calls.
func (s *Service) Handle(ctx context.Context, cmd Command) (Outcome, error) {
	if cmd == nil {
		return Outcome{}, fmt.Errorf("nil command")
	}
	s.logger.Debug().Str("command", cmd.name()).Msg("handling command")

	switch c := cmd.(type) {
	case SimulateCommand:
		a, err := s.Simulate(ctx, c.Scenario)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Analysis: &a}, nil
	case AnalyzeCommand:
		a, err := s.Analyze(ctx, c.Input)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Analysis: &a}, nil
	case ClearCommand:
		return Outcome{}, s.ClearAll(ctx)
	case RefreshCommand:
		dash := s.Refresh(ctx, c.Recent)
		return Outcome{Dashboard: &dash}, nil
	default:
		return Outcome{}, fmt.Errorf("unsupported command %q", cmd.name())
	}
}
