// Package report renders the prediction history as CSV and PNG charts.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"fraudguard/internal/stats"
	"fraudguard/internal/storage"
)

var (
	// ErrNoData is returned when a chart has nothing to plot.
	ErrNoData = errors.New("report: no data to plot")
	// ErrUnknownChart is returned for a chart name outside ChartNames.
	ErrUnknownChart = errors.New("report: unknown chart")
)

// Chart names accepted by Render.
const (
	ChartDaily  = "daily"
	ChartAmount = "amount"
	ChartHour   = "hour"
)

// ChartNames lists every renderable chart.
var ChartNames = []string{ChartDaily, ChartAmount, ChartHour}

// Options size the rendered PNGs.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}
	return w, h
}

var (
	cleanColor = drawing.ColorFromHex("2e86de")
	fraudColor = drawing.ColorFromHex("e74c3c")
)

// WriteCSV writes records with the predictions table column layout.
func WriteCSV(w io.Writer, records []storage.Record) error {
	writer := csv.NewWriter(w)

	header := []string{"id", "timestamp", "amount", "hour", "is_night", "decision", "probability"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Timestamp.Format(storage.TimestampLayout),
			decimal.NewFromFloat(rec.Amount).StringFixed(2),
			strconv.Itoa(rec.Hour),
			flag(rec.IsNight),
			flag(rec.Decision),
			strconv.FormatFloat(rec.Probability, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Render draws the named chart as PNG.
func Render(name string, dash stats.Dashboard, opts Options, w io.Writer) error {
	switch name {
	case ChartDaily:
		return RenderDailyFraud(dash.DailyFraud, opts, w)
	case ChartAmount:
		return RenderAmountDistribution(dash.AmountBuckets, opts, w)
	case ChartHour:
		return RenderHourDistribution(dash.HourBuckets, opts, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

// RenderDailyFraud draws fraud decisions per day as a bar chart.
func RenderDailyFraud(days []stats.DayCount, opts Options, w io.Writer) error {
	if len(days) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, len(days))
	for i, d := range days {
		bars[i] = bar(d.Date, d.Count, fraudColor)
	}
	return renderCounts("Daily fraud detections", "Fraud decisions", bars, opts, w)
}

// RenderAmountDistribution draws the amount histogram, clean and fraud counts side by side.
func RenderAmountDistribution(buckets []stats.Bucket, opts Options, w io.Writer) error {
	return renderHistogram("Transaction amount distribution", buckets, opts, w)
}

// RenderHourDistribution draws the hour-of-day histogram, clean and fraud counts side by side.
func RenderHourDistribution(buckets []stats.Bucket, opts Options, w io.Writer) error {
	return renderHistogram("Transactions by hour", buckets, opts, w)
}

func renderHistogram(title string, buckets []stats.Bucket, opts Options, w io.Writer) error {
	bars := histogramBars(buckets)
	if len(bars) == 0 {
		return ErrNoData
	}
	return renderCounts(title, "Transactions", bars, opts, w)
}

// histogramBars emits a clean and a fraud bar per non-empty bin, valued in record counts.
func histogramBars(buckets []stats.Bucket) []chart.Value {
	var bars []chart.Value
	for _, b := range buckets {
		if b.Clean+b.Fraud == 0 {
			continue
		}
		bars = append(bars,
			bar(b.Label+" ok", b.Clean, cleanColor),
			bar(b.Label+" fraud", b.Fraud, fraudColor),
		)
	}
	return bars
}

func bar(label string, count int, color drawing.Color) chart.Value {
	return chart.Value{
		Label: label,
		Value: float64(count),
		Style: chart.Style{FillColor: color, StrokeColor: color},
	}
}

func peakValue(bars []chart.Value) float64 {
	peak := 0.0
	for _, b := range bars {
		if b.Value > peak {
			peak = b.Value
		}
	}
	return peak
}

func renderCounts(title, axis string, bars []chart.Value, opts Options, w io.Writer) error {
	width, height := opts.size()
	graph := chart.BarChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: barWidth(width, len(bars)),
		YAxis: chart.YAxis{
			Name:  axis,
			Range: &chart.ContinuousRange{Min: 0, Max: peakValue(bars)},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// WriteChartFile renders the named chart into path, creating parent directories.
// Nothing is written when rendering fails.
func WriteChartFile(path, name string, dash stats.Dashboard, opts Options) error {
	var buf bytes.Buffer
	if err := Render(name, dash, opts, &buf); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteCSVFile writes the CSV export into path, creating parent directories.
func WriteCSVFile(path string, records []storage.Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, records)
}

func barWidth(width, n int) int {
	if n <= 0 {
		return 40
	}
	bw := width / (n * 2)
	if bw > 80 {
		bw = 80
	}
	if bw < 4 {
		bw = 4
	}
	return bw
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
