package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fraudguard/internal/config"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNotConfigured indicates the backing database handle was not initialised.
	ErrNotConfigured = errors.New("storage: database not configured")
)

const (
	createPredictionsSQLite = `CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp TEXT,
        amount REAL,
        hour INTEGER,
        is_night INTEGER,
        decision INTEGER,
        probability REAL
    );`

	createPredictionsPostgres = `CREATE TABLE IF NOT EXISTS predictions (
        id BIGSERIAL PRIMARY KEY,
        "timestamp" TEXT,
        amount DOUBLE PRECISION,
        hour INTEGER,
        is_night INTEGER,
        decision INTEGER,
        probability DOUBLE PRECISION
    );`

	summarySQL = `SELECT
        COUNT(*),
        COALESCE(SUM(CASE WHEN decision = 1 THEN 1 ELSE 0 END), 0),
        COALESCE(AVG(probability), 0)
    FROM predictions;`

	clearSQL = `DELETE FROM predictions;`
)

// PredictionStore persists scoring events in the predictions table.
type PredictionStore interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, entry Entry) (Record, error)
	FetchAll(ctx context.Context) ([]Record, error)
	FetchRecent(ctx context.Context, limit int) ([]Record, error)
	Summary(ctx context.Context) (Summary, error)
	Clear(ctx context.Context) error
	Close()
}

// Open connects the configured backend and ensures the schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (PredictionStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres:
		pool, err := NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(pool)
		if err := store.Initialize(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
