package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"fraudguard/internal/report"
	"fraudguard/internal/service"
)

// Export renders the prediction history as CSV and/or PNG charts.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.ChartsDir == "" {
		return errors.New("at least one of --csv or --charts-dir must be provided")
	}

	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	records := svc.History(ctx, 0)
	if len(records) == 0 {
		a.Logger.Info().Msg("no predictions to export")
		return nil
	}
	a.Logger.Info().Int("records", len(records)).Msg("exporting predictions")

	if opts.CSVPath != "" {
		if err := report.WriteCSVFile(opts.CSVPath, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Fprintf(a.Out, "wrote %s\n", opts.CSVPath)
	}

	if opts.ChartsDir != "" {
		out, err := svc.Handle(ctx, service.RefreshCommand{})
		if err != nil {
			return err
		}
		for _, name := range report.ChartNames {
			path := filepath.Join(opts.ChartsDir, name+".png")
			err := report.WriteChartFile(path, name, *out.Dashboard, a.chartOptions())
			if errors.Is(err, report.ErrNoData) {
				a.Logger.Info().Str("chart", name).Msg("nothing to plot; skipped")
				continue
			}
			if err != nil {
				return fmt.Errorf("render %s chart: %w", name, err)
			}
			fmt.Fprintf(a.Out, "wrote %s\n", path)
		}
	}

	return nil
}
