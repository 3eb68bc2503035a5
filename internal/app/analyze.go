package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"fraudguard/internal/features"
	"fraudguard/internal/service"
)

// Analyze scores operator-supplied transaction fields.
func (a *App) Analyze(ctx context.Context, in features.Input) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	out, err := svc.Handle(ctx, service.AnalyzeCommand{Input: in})
	if err != nil {
		return err
	}
	a.printAnalysis(*out.Analysis)
	return nil
}

// Simulate scores a named preset.
func (a *App) Simulate(ctx context.Context, scenario string) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	out, err := svc.Handle(ctx, service.SimulateCommand{Scenario: scenario})
	if err != nil {
		return err
	}
	a.printAnalysis(*out.Analysis)
	return nil
}

// ListScenarios prints the available presets.
func (a *App) ListScenarios() {
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Name\tLabel\tAmount\tHour\tV12\tV14\tV17")
	for _, sc := range service.Scenarios() {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%02d\t%.1f\t%.1f\t%.1f\n",
			sc.Name,
			sc.Label,
			decimal.NewFromFloat(sc.Input.Amount).StringFixed(2),
			sc.Input.Hour,
			sc.Input.V12,
			sc.Input.V14,
			sc.Input.V17,
		)
	}
	writer.Flush()
}

func (a *App) printAnalysis(an service.Analysis) {
	verdict := "CLEAN"
	if an.Result.Fraud {
		verdict = "FRAUD"
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	if an.Scenario != "" {
		fmt.Fprintf(writer, "Scenario\t%s\n", an.Scenario)
	}
	fmt.Fprintf(writer, "Decision\t%s\n", verdict)
	fmt.Fprintf(writer, "Probability\t%%%.2f\n", an.Result.Probability*100)
	fmt.Fprintf(writer, "Amount\t%s\n", decimal.NewFromFloat(an.Input.Amount).StringFixed(2))
	fmt.Fprintf(writer, "Hour\t%02d\n", an.Input.Hour)
	fmt.Fprintf(writer, "Night\t%t\n", an.IsNight)
	fmt.Fprintf(writer, "Record\t#%d\n", an.Record.ID)
	writer.Flush()
}
