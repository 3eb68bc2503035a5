package storage

import (
	"time"
)

// TimestampLayout is the on-disk text format of the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is one scoring event waiting to be persisted.
type Entry struct {
	Amount      float64
	Hour        int
	IsNight     bool
	Decision    bool
	Probability float64
}

// Record is a persisted row of the predictions table.
type Record struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Amount      float64   `json:"amount"`
	Hour        int       `json:"hour"`
	IsNight     bool      `json:"is_night"`
	Decision    bool      `json:"decision"`
	Probability float64   `json:"probability"`
}

// Summary holds the aggregate columns used by the dashboard metrics.
type Summary struct {
	Total              int64
	Fraud              int64
	AverageProbability float64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTimestamp(raw string) time.Time {
	ts, err := time.ParseInLocation(TimestampLayout, raw, time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
