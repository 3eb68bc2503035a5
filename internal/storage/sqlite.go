package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// predictionRow maps the predictions table column-for-column.
type predictionRow struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp   string  `gorm:"column:timestamp"`
	Amount      float64 `gorm:"column:amount"`
	Hour        int     `gorm:"column:hour"`
	IsNight     int     `gorm:"column:is_night"`
	Decision    int     `gorm:"column:decision"`
	Probability float64 `gorm:"column:probability"`
}

func (predictionRow) TableName() string {
	return "predictions"
}

func (r predictionRow) record() Record {
	return Record{
		ID:          r.ID,
		Timestamp:   parseTimestamp(r.Timestamp),
		Amount:      r.Amount,
		Hour:        r.Hour,
		IsNight:     r.IsNight == 1,
		Decision:    r.Decision == 1,
		Probability: r.Probability,
	}
}

// SQLiteStore keeps predictions in a local SQLite file.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating when needed) the database file and its table.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database.path is required for sqlite")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) getDB() (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}

// Initialize creates the predictions table if it does not exist.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(createPredictionsSQLite).Error; err != nil {
		return fmt.Errorf("create predictions table: %w", err)
	}
	return nil
}

// Append inserts one scoring event stamped with the current local time.
func (s *SQLiteStore) Append(ctx context.Context, entry Entry) (Record, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, err
	}

	row := predictionRow{
		Timestamp:   time.Now().Format(TimestampLayout),
		Amount:      entry.Amount,
		Hour:        entry.Hour,
		IsNight:     boolToInt(entry.IsNight),
		Decision:    boolToInt(entry.Decision),
		Probability: entry.Probability,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return Record{}, fmt.Errorf("append prediction: %w", err)
	}
	return row.record(), nil
}

// FetchAll lists every record, newest id first.
func (s *SQLiteStore) FetchAll(ctx context.Context) ([]Record, error) {
	return s.fetch(ctx, 0)
}

// FetchRecent lists at most limit records, newest id first.
func (s *SQLiteStore) FetchRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	return s.fetch(ctx, limit)
}

func (s *SQLiteStore) fetch(ctx context.Context, limit int) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []predictionRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// Summary returns total, fraud count and mean probability in one query.
func (s *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	row := db.WithContext(ctx).Raw(summarySQL).Row()
	if err := row.Scan(&sum.Total, &sum.Fraud, &sum.AverageProbability); err != nil {
		return Summary{}, fmt.Errorf("summarise predictions: %w", err)
	}
	return sum, nil
}

// Clear deletes every row while keeping the table.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(clearSQL).Error; err != nil {
		return fmt.Errorf("clear predictions: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

var _ PredictionStore = (*SQLiteStore)(nil)
