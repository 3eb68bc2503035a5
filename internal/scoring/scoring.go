package scoring

import (
	"errors"
	"fmt"
	"math"

	"fraudguard/internal/features"
)

// Threshold is the fixed probability above which a transaction is fraud.
const Threshold = 0.5

// ErrInvalidProbability is returned when the classifier output leaves [0,1].
var ErrInvalidProbability = errors.New("scoring: probability outside [0,1]")

// Classifier estimates the positive-class probability for an encoded row.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
}

// Result is the scored outcome of one transaction.
type Result struct {
	Probability float64 `json:"probability"`
	Fraud       bool    `json:"fraud"`
}

// Score runs the classifier and applies the decision threshold.
func Score(vec features.Vector, clf Classifier) (Result, error) {
	p, err := clf.PredictProba(vec)
	if err != nil {
		return Result{}, fmt.Errorf("predict probability: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return Result{Probability: p, Fraud: p > Threshold}, nil
}
