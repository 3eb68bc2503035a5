package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fraudguard/internal/config"
)

const (
	insertPredictionPostgres = `INSERT INTO predictions (
        "timestamp",
        amount,
        hour,
        is_night,
        decision,
        probability
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id;`

	listPredictionsPostgres = `SELECT
        id,
        "timestamp",
        amount,
        hour,
        is_night,
        decision,
        probability
    FROM predictions
    ORDER BY id DESC;`

	listRecentPredictionsPostgres = `SELECT
        id,
        "timestamp",
        amount,
        hour,
        is_night,
        decision,
        probability
    FROM predictions
    ORDER BY id DESC
    LIMIT $1;`
)

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required for postgres")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// PostgresStore keeps predictions in a PostgreSQL table with the same columns as the SQLite file.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a pgx pool into a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Initialize creates the predictions table if it does not exist.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, createPredictionsPostgres); err != nil {
		return fmt.Errorf("create predictions table: %w", err)
	}
	return nil
}

// Append inserts one scoring event stamped with the current local time.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) (Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return Record{}, err
	}

	stamp := time.Now().Format(TimestampLayout)
	var id int64
	if err := pool.QueryRow(ctx, insertPredictionPostgres,
		stamp,
		entry.Amount,
		entry.Hour,
		boolToInt(entry.IsNight),
		boolToInt(entry.Decision),
		entry.Probability,
	).Scan(&id); err != nil {
		return Record{}, fmt.Errorf("append prediction: %w", err)
	}

	return Record{
		ID:          id,
		Timestamp:   parseTimestamp(stamp),
		Amount:      entry.Amount,
		Hour:        entry.Hour,
		IsNight:     entry.IsNight,
		Decision:    entry.Decision,
		Probability: entry.Probability,
	}, nil
}

// FetchAll lists every record, newest id first.
func (s *PostgresStore) FetchAll(ctx context.Context) ([]Record, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPredictionsPostgres)
	if queryErr != nil {
		return nil, fmt.Errorf("list predictions: %w", queryErr)
	}
	return collectRecords(rows, 0)
}

// FetchRecent lists at most limit records, newest id first.
func (s *PostgresStore) FetchRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentPredictionsPostgres, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent predictions: %w", queryErr)
	}
	return collectRecords(rows, limit)
}

// Summary returns total, fraud count and mean probability in one query.
func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	pool, err := s.getPool()
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	if scanErr := pool.QueryRow(ctx, summarySQL).Scan(&sum.Total, &sum.Fraud, &sum.AverageProbability); scanErr != nil {
		return Summary{}, fmt.Errorf("summarise predictions: %w", scanErr)
	}
	return sum, nil
}

// Clear deletes every row while keeping the table.
func (s *PostgresStore) Clear(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, clearSQL); execErr != nil {
		return fmt.Errorf("clear predictions: %w", execErr)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func collectRecords(rows pgx.Rows, capacity int) ([]Record, error) {
	defer rows.Close()

	records := make([]Record, 0, capacity)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanRecord(rows pgx.Rows) (Record, error) {
	var (
		rec      Record
		stamp    string
		isNight  int
		decision int
	)
	if err := rows.Scan(
		&rec.ID,
		&stamp,
		&rec.Amount,
		&rec.Hour,
		&isNight,
		&decision,
		&rec.Probability,
	); err != nil {
		return Record{}, err
	}

	rec.Timestamp = parseTimestamp(stamp)
	rec.IsNight = isNight == 1
	rec.Decision = decision == 1
	return rec, nil
}

var _ PredictionStore = (*PostgresStore)(nil)
