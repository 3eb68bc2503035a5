package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"fraudguard/internal/alerting"
	"fraudguard/internal/artifact"
	"fraudguard/internal/config"
	"fraudguard/internal/logging"
	"fraudguard/internal/report"
	"fraudguard/internal/service"
	"fraudguard/internal/storage"
)

// ErrArtifactsMissing is what commands report when the model files are absent.
var ErrArtifactsMissing = errors.New("model artifacts missing: check the models directory")

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	loader *artifact.Loader
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logging.Component(logger, "app"),
		Out:    os.Stdout,
		loader: artifact.NewLoader(artifact.Options{
			Dir:            cfg.Artifacts.Dir,
			ClassifierFile: cfg.Artifacts.ClassifierFile,
			AmountScaler:   cfg.Artifacts.AmountScaler,
			TimeScaler:     cfg.Artifacts.TimeScaler,
		}, logger),
	}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, a.Config.Alerting.Timeout, a.Logger)
	}
	a.Logger.Warn().Msg("alerting enabled but no channel configured")
	return nil
}

func (a *App) openStore(ctx context.Context) (storage.PredictionStore, func(), error) {
	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open prediction store: %w", err)
	}
	return store, store.Close, nil
}

func (a *App) loadBundle() (*artifact.Bundle, error) {
	bundle, err := a.loader.Load()
	if errors.Is(err, artifact.ErrMissingArtifact) {
		a.Logger.Error().Err(err).Str("dir", a.Config.Artifacts.Dir).Msg("cannot build scoring pipeline")
		return nil, ErrArtifactsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}
	return bundle, nil
}

// newService wires the scoring pipeline. Artifacts are checked before the store is touched.
func (a *App) newService(ctx context.Context) (*service.Service, func(), error) {
	bundle, err := a.loadBundle()
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	return service.New(bundle, store, a.newNotifier(), a.Logger), closeStore, nil
}

func (a *App) chartOptions() report.Options {
	return report.Options{Width: a.Config.Export.ChartWidth, Height: a.Config.Export.ChartHeight}
}

// ExportOptions hold parameters for exporting the prediction history.
type ExportOptions struct {
	CSVPath   string
	ChartsDir string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
