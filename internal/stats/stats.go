package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"fraudguard/internal/logging"
	"fraudguard/internal/storage"
)

// Source is the read side of the prediction store.
type Source interface {
	Summary(ctx context.Context) (storage.Summary, error)
	FetchAll(ctx context.Context) ([]storage.Record, error)
}

// Snapshot is the headline KPI row of the dashboard.
type Snapshot struct {
	Total              int64   `json:"total"`
	Fraud              int64   `json:"fraud"`
	FraudRate          float64 `json:"fraud_rate"`
	AverageProbability float64 `json:"average_probability"`
}

// RateDisplay formats the fraud rate the way the dashboard shows it.
func (s Snapshot) RateDisplay() string {
	return fmt.Sprintf("%%%.2f", s.FraudRate*100)
}

// RiskDisplay formats the average risk score the way the dashboard shows it.
func (s Snapshot) RiskDisplay() string {
	return fmt.Sprintf("%%%.1f", s.AverageProbability*100)
}

// DayCount is the number of fraud decisions recorded on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Bucket splits a histogram bin by decision.
type Bucket struct {
	Label string `json:"label"`
	Clean int    `json:"clean"`
	Fraud int    `json:"fraud"`
}

// Dashboard is everything the refresh view renders.
type Dashboard struct {
	Snapshot      Snapshot         `json:"snapshot"`
	DailyFraud    []DayCount       `json:"daily_fraud"`
	AmountBuckets []Bucket         `json:"amount_buckets"`
	HourBuckets   []Bucket         `json:"hour_buckets"`
	Recent        []storage.Record `json:"recent"`
}

// AmountEdges are the upper bounds of the amount histogram bins; the last bin is open.
var AmountEdges = []float64{10, 50, 100, 200, 500, 1000, 5000}

// Aggregator derives dashboard metrics from the store on every call.
type Aggregator struct {
	source Source
	logger zerolog.Logger
}

// NewAggregator builds an Aggregator over the given source.
func NewAggregator(source Source, logger zerolog.Logger) *Aggregator {
	return &Aggregator{source: source, logger: logging.Component(logger, "stats")}
}

// Compute returns the headline metrics. Read failures degrade to zeros.
func (a *Aggregator) Compute(ctx context.Context) Snapshot {
	sum, err := a.source.Summary(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("summary unavailable; reporting empty metrics")
		return Snapshot{}
	}
	return FromSummary(sum)
}

// Dashboard returns the snapshot plus breakdowns and the most recent records.
func (a *Aggregator) Dashboard(ctx context.Context, recent int) Dashboard {
	dash := Dashboard{
		Snapshot:      a.Compute(ctx),
		DailyFraud:    []DayCount{},
		AmountBuckets: []Bucket{},
		HourBuckets:   []Bucket{},
		Recent:        []storage.Record{},
	}
	if dash.Snapshot.Total == 0 {
		return dash
	}

	records, err := a.source.FetchAll(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("history unavailable; reporting empty dashboard")
		return dash
	}

	dash.DailyFraud = DailyFraud(records)
	dash.AmountBuckets = AmountHistogram(records)
	dash.HourBuckets = HourHistogram(records)
	if recent > len(records) {
		recent = len(records)
	}
	if recent > 0 {
		dash.Recent = records[:recent]
	}
	return dash
}

// FromSummary applies the zero-when-empty policy to raw aggregates.
func FromSummary(sum storage.Summary) Snapshot {
	snap := Snapshot{Total: sum.Total, Fraud: sum.Fraud}
	if sum.Total > 0 {
		snap.FraudRate = float64(sum.Fraud) / float64(sum.Total)
		snap.AverageProbability = sum.AverageProbability
	}
	return snap
}

// DailyFraud counts fraud decisions per local calendar day, oldest day first.
func DailyFraud(records []storage.Record) []DayCount {
	counts := make(map[string]int)
	for _, rec := range records {
		if !rec.Decision || rec.Timestamp.IsZero() {
			continue
		}
		counts[rec.Timestamp.Format("2006-01-02")]++
	}

	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// AmountHistogram bins records by amount using AmountEdges.
func AmountHistogram(records []storage.Record) []Bucket {
	buckets := make([]Bucket, len(AmountEdges)+1)
	lower := 0.0
	for i, edge := range AmountEdges {
		buckets[i].Label = fmt.Sprintf("%s-%s", trimFloat(lower), trimFloat(edge))
		lower = edge
	}
	buckets[len(AmountEdges)].Label = trimFloat(lower) + "+"

	for _, rec := range records {
		idx := sort.SearchFloat64s(AmountEdges, rec.Amount)
		// SearchFloat64s puts a value equal to an edge in that edge's bin;
		// bins are half-open [lower, edge) so move it up.
		if idx < len(AmountEdges) && rec.Amount == AmountEdges[idx] {
			idx++
		}
		tally(&buckets[idx], rec.Decision)
	}
	return buckets
}

// HourHistogram bins records by hour of day, 0 through 24.
func HourHistogram(records []storage.Record) []Bucket {
	buckets := make([]Bucket, 25)
	for h := range buckets {
		buckets[h].Label = fmt.Sprintf("%02d", h)
	}
	for _, rec := range records {
		if rec.Hour < 0 || rec.Hour >= len(buckets) {
			continue
		}
		tally(&buckets[rec.Hour], rec.Decision)
	}
	return buckets
}

func tally(b *Bucket, fraud bool) {
	if fraud {
		b.Fraud++
	} else {
		b.Clean++
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
