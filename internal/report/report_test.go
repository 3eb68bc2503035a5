package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fraudguard/internal/stats"
	"fraudguard/internal/storage"
)

var pngMagic = []byte("\x89PNG")

func sampleRecords() []storage.Record {
	ts := time.Date(2026, 10, 18, 2, 15, 0, 0, time.Local)
	return []storage.Record{
		{ID: 2, Timestamp: ts, Amount: 250, Hour: 2, IsNight: true, Decision: true, Probability: 0.99},
		{ID: 1, Timestamp: ts.Add(-12 * time.Hour), Amount: 120.5, Hour: 14, Decision: false, Probability: 0.005},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "timestamp" || rows[0][5] != "decision" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{"2", "2026-10-18 02:15:00", "250.00", "2", "1", "1", "0.99"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("column %d = %q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][2] != "120.50" || rows[2][4] != "0" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestRenderCharts(t *testing.T) {
	records := sampleRecords()
	dash := stats.Dashboard{
		DailyFraud:    stats.DailyFraud(records),
		AmountBuckets: stats.AmountHistogram(records),
		HourBuckets:   stats.HourHistogram(records),
	}

	for _, name := range ChartNames {
		var buf bytes.Buffer
		if err := Render(name, dash, Options{Width: 640, Height: 360}, &buf); err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
			t.Fatalf("%s chart is not a png", name)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	dash := stats.Dashboard{
		AmountBuckets: stats.AmountHistogram(nil),
		HourBuckets:   stats.HourHistogram(nil),
	}
	for _, name := range ChartNames {
		if err := Render(name, dash, Options{}, &bytes.Buffer{}); !errors.Is(err, ErrNoData) {
			t.Fatalf("%s: expected ErrNoData, got %v", name, err)
		}
	}
	if err := Render("pie", dash, Options{}, &bytes.Buffer{}); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("unknown chart should fail with ErrUnknownChart, got %v", err)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	records := sampleRecords()

	csvPath := filepath.Join(dir, "history.csv")
	if err := WriteCSVFile(csvPath, records); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}
	pngPath := filepath.Join(dir, "charts", "hour.png")
	dash := stats.Dashboard{HourBuckets: stats.HourHistogram(records)}
	if err := WriteChartFile(pngPath, ChartHour, dash, Options{}); err != nil {
		t.Fatalf("WriteChartFile: %v", err)
	}

	data, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("written chart is not a png")
	}
}

func TestHistogramBarsAreCounts(t *testing.T) {
	buckets := []stats.Bucket{
		{Label: "0-10", Clean: 1},
		{Label: "10-50"},
		{Label: "50-100", Clean: 500, Fraud: 3},
	}

	bars := histogramBars(buckets)
	if len(bars) != 4 {
		t.Fatalf("empty bins should be skipped, got %d bars", len(bars))
	}
	want := map[string]float64{"0-10 ok": 1, "0-10 fraud": 0, "50-100 ok": 500, "50-100 fraud": 3}
	for _, b := range bars {
		if want[b.Label] != b.Value {
			t.Fatalf("bar %s = %v, want %v", b.Label, b.Value, want[b.Label])
		}
	}
	if peakValue(bars) != 500 {
		t.Fatalf("axis should span raw counts, got peak %v", peakValue(bars))
	}
}

func TestWriteChartFileSkipsFailedRender(t *testing.T) {
	dir := t.TempDir()
	clean := []storage.Record{{ID: 1, Timestamp: time.Now(), Amount: 120, Hour: 14, Probability: 0.01}}
	dash := stats.Dashboard{DailyFraud: stats.DailyFraud(clean)}

	path := filepath.Join(dir, "charts", "daily.png")
	if err := WriteChartFile(path, ChartDaily, dash, Options{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be left behind, stat err %v", err)
	}

	if err := WriteChartFile(filepath.Join(dir, "pie.png"), "pie", dash, Options{}); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("expected ErrUnknownChart, got %v", err)
	}
}
