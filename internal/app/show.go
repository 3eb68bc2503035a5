package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"fraudguard/internal/service"
	"fraudguard/internal/storage"
)

// Show prints recent predictions.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	records := svc.History(ctx, a.Config.ResolveRecentLimit(opts.Limit))
	if len(records) == 0 {
		fmt.Fprintln(a.Out, "no predictions recorded")
		return nil
	}

	printRecords(a, records)
	return nil
}

// Stats prints the headline metrics and the recent records of the dashboard.
func (a *App) Stats(ctx context.Context) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	out, err := svc.Handle(ctx, service.RefreshCommand{Recent: a.Config.Dashboard.RecentLimit})
	if err != nil {
		return err
	}
	dash := out.Dashboard

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Total transactions\t%d\n", dash.Snapshot.Total)
	fmt.Fprintf(writer, "Fraud detected\t%d\n", dash.Snapshot.Fraud)
	fmt.Fprintf(writer, "Fraud rate\t%s\n", dash.Snapshot.RateDisplay())
	fmt.Fprintf(writer, "Average risk\t%s\n", dash.Snapshot.RiskDisplay())
	writer.Flush()

	if len(dash.DailyFraud) > 0 {
		fmt.Fprintln(a.Out)
		writer = tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Date\tFraud")
		for _, d := range dash.DailyFraud {
			fmt.Fprintf(writer, "%s\t%d\n", d.Date, d.Count)
		}
		writer.Flush()
	}

	if len(dash.Recent) > 0 {
		fmt.Fprintln(a.Out)
		printRecords(a, dash.Recent)
	}
	return nil
}

// Clear wipes the prediction history.
func (a *App) Clear(ctx context.Context) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	if _, err := svc.Handle(ctx, service.ClearCommand{}); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "prediction history cleared")
	return nil
}

func printRecords(a *App, records []storage.Record) {
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTime\tAmount\tHour\tNight\tDecision\tProbability")
	for _, rec := range records {
		decision := "clean"
		if rec.Decision {
			decision = "fraud"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%02d\t%t\t%s\t%%%.2f\n",
			rec.ID,
			rec.Timestamp.Format(storage.TimestampLayout),
			decimal.NewFromFloat(rec.Amount).StringFixed(2),
			rec.Hour,
			rec.IsNight,
			decision,
			rec.Probability*100,
		)
	}
	writer.Flush()
}
