package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"fraudguard/internal/features"
	"fraudguard/internal/logging"
)

var (
	// ErrMissingArtifact is returned when any of the three artifact files is absent.
	ErrMissingArtifact = errors.New("artifact: missing model artifact")
	// ErrSchemaMismatch is returned when the classifier was trained on a different feature layout.
	ErrSchemaMismatch = errors.New("artifact: classifier feature schema mismatch")
)

// Options name the artifact directory and files.
type Options struct {
	Dir            string
	ClassifierFile string
	AmountScaler   string
	TimeScaler     string
}

// Bundle is the immutable set of loaded artifacts shared by every scoring call.
type Bundle struct {
	Classifier   *Classifier
	AmountScaler *Scaler
	TimeScaler   *Scaler
}

// Encoder returns a feature encoder bound to the bundle's scalers.
func (b *Bundle) Encoder() *features.Encoder {
	return features.NewEncoder(b.AmountScaler, b.TimeScaler)
}

// Loader reads the artifacts at most once.
type Loader struct {
	opts   Options
	logger zerolog.Logger

	once   sync.Once
	bundle *Bundle
	err    error
}

// NewLoader constructs a Loader; empty option fields fall back to the standard names.
func NewLoader(opts Options, logger zerolog.Logger) *Loader {
	if opts.Dir == "" {
		opts.Dir = "models"
	}
	if opts.ClassifierFile == "" {
		opts.ClassifierFile = "fraud_model.json"
	}
	if opts.AmountScaler == "" {
		opts.AmountScaler = "scaler_amount.json"
	}
	if opts.TimeScaler == "" {
		opts.TimeScaler = "scaler_time.json"
	}
	return &Loader{opts: opts, logger: logging.Component(logger, "artifact_loader")}
}

// Load returns the cached bundle, reading it from disk on first use.
func (l *Loader) Load() (*Bundle, error) {
	l.once.Do(func() {
		l.bundle, l.err = l.read()
	})
	return l.bundle, l.err
}

func (l *Loader) read() (*Bundle, error) {
	var clf Classifier
	if err := l.decode(l.opts.ClassifierFile, &clf); err != nil {
		return nil, err
	}
	if err := clf.validate(); err != nil {
		return nil, fmt.Errorf("classifier %s: %w", l.opts.ClassifierFile, err)
	}
	if err := checkSchema(clf.FeatureNames); err != nil {
		return nil, err
	}

	var amount, tm Scaler
	if err := l.decode(l.opts.AmountScaler, &amount); err != nil {
		return nil, err
	}
	if err := amount.validate(); err != nil {
		return nil, fmt.Errorf("amount scaler: %w", err)
	}
	if err := l.decode(l.opts.TimeScaler, &tm); err != nil {
		return nil, err
	}
	if err := tm.validate(); err != nil {
		return nil, fmt.Errorf("time scaler: %w", err)
	}

	l.logger.Info().
		Str("dir", l.opts.Dir).
		Str("kind", clf.Kind).
		Str("version", clf.Version).
		Int("features", len(clf.FeatureNames)).
		Msg("model artifacts loaded")

	return &Bundle{Classifier: &clf, AmountScaler: &amount, TimeScaler: &tm}, nil
}

func (l *Loader) decode(name string, dst any) error {
	path := filepath.Join(l.opts.Dir, name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(dst); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}

func checkSchema(names []string) error {
	if len(names) != len(features.Schema) {
		return fmt.Errorf("%w: artifact has %d features, encoder produces %d", ErrSchemaMismatch, len(names), len(features.Schema))
	}
	for i, name := range names {
		if name != features.Schema[i] {
			return fmt.Errorf("%w: position %d is %q, encoder has %q", ErrSchemaMismatch, i, name, features.Schema[i])
		}
	}
	return nil
}
