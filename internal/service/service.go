package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fraudguard/internal/alerting"
	"fraudguard/internal/artifact"
	"fraudguard/internal/features"
	"fraudguard/internal/logging"
	"fraudguard/internal/metrics"
	"fraudguard/internal/scoring"
	"fraudguard/internal/stats"
	"fraudguard/internal/storage"
)

// Service runs the scoring pipeline: encode, score, persist, report.
type Service struct {
	encoder    *features.Encoder
	classifier scoring.Classifier
	store      storage.PredictionStore
	aggregator *stats.Aggregator
	notifier   alerting.Notifier
	logger     zerolog.Logger
}

// Analysis is the outcome of one scored and persisted transaction.
type Analysis struct {
	Scenario string         `json:"scenario,omitempty"`
	Input    features.Input `json:"input"`
	Result   scoring.Result `json:"result"`
	IsNight  bool           `json:"is_night"`
	Record   storage.Record `json:"record"`
}

// New constructs the pipeline over a loaded artifact bundle. notifier may be nil.
func New(bundle *artifact.Bundle, store storage.PredictionStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		encoder:    bundle.Encoder(),
		classifier: bundle.Classifier,
		store:      store,
		aggregator: stats.NewAggregator(store, logger),
		notifier:   notifier,
		logger:     logging.Component(logger, "service"),
	}
}

// Analyze scores the input and stores the outcome.
func (s *Service) Analyze(ctx context.Context, in features.Input) (Analysis, error) {
	return s.analyze(ctx, in, "")
}

// Simulate runs Analyze with a named preset.
func (s *Service) Simulate(ctx context.Context, name string) (Analysis, error) {
	sc, ok := LookupScenario(name)
	if !ok {
		return Analysis{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s.analyze(ctx, sc.Input, sc.Name)
}

func (s *Service) analyze(ctx context.Context, in features.Input, scenario string) (Analysis, error) {
	vec, err := s.encoder.Encode(in)
	if err != nil {
		return Analysis{}, fmt.Errorf("encode features: %w", err)
	}

	result, err := scoring.Score(vec, s.classifier)
	if err != nil {
		return Analysis{}, fmt.Errorf("score transaction: %w", err)
	}

	night := features.IsNight(in.Hour)
	rec, err := s.store.Append(ctx, storage.Entry{
		Amount:      in.Amount,
		Hour:        in.Hour,
		IsNight:     night,
		Decision:    result.Fraud,
		Probability: result.Probability,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("append prediction: %w", err)
	}

	metrics.ObservePrediction(result.Fraud, result.Probability)
	s.logger.Info().
		Int64("record_id", rec.ID).
		Str("scenario", scenario).
		Float64("amount", in.Amount).
		Int("hour", in.Hour).
		Float64("probability", result.Probability).
		Bool("fraud", result.Fraud).
		Msg("transaction scored")

	analysis := Analysis{Scenario: scenario, Input: in, Result: result, IsNight: night, Record: rec}
	if result.Fraud {
		s.alert(ctx, analysis)
	}
	return analysis, nil
}

func (s *Service) alert(ctx context.Context, a Analysis) {
	if s.notifier == nil {
		return
	}
	note := alerting.Notification{
		RecordID:    a.Record.ID,
		Timestamp:   a.Record.Timestamp,
		Amount:      decimal.NewFromFloat(a.Input.Amount),
		Hour:        a.Input.Hour,
		IsNight:     a.IsNight,
		Probability: a.Result.Probability,
		Scenario:    a.Scenario,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Int64("record_id", a.Record.ID).Msg("failed to dispatch fraud alert")
	}
}

// ClearAll deletes every stored prediction.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear predictions: %w", err)
	}
	metrics.RecordsClearedTotal.Inc()
	s.logger.Info().Msg("prediction history cleared")
	return nil
}

// Refresh recomputes the dashboard from the store.
func (s *Service) Refresh(ctx context.Context, recent int) stats.Dashboard {
	dash := s.aggregator.Dashboard(ctx, recent)
	metrics.SetDashboard(dash.Snapshot.Total, dash.Snapshot.FraudRate, dash.Snapshot.AverageProbability)
	return dash
}

// Stats returns the headline metrics only.
func (s *Service) Stats(ctx context.Context) stats.Snapshot {
	return s.aggregator.Compute(ctx)
}

// History returns stored predictions newest first; limit <= 0 means all.
// Read failures are logged and reported as an empty history.
func (s *Service) History(ctx context.Context, limit int) []storage.Record {
	var (
		records []storage.Record
		err     error
	)
	if limit <= 0 {
		records, err = s.store.FetchAll(ctx)
	} else {
		records, err = s.store.FetchRecent(ctx, limit)
	}
	if err != nil {
		s.logger.Warn().Err(err).Int("limit", limit).Msg("history unavailable; reporting empty history")
		return []storage.Record{}
	}
	if records == nil {
		return []storage.Record{}
	}
	return records
}
