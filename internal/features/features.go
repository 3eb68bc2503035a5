package features

import (
	"errors"
	"fmt"
	"math"
)

// Schema is the ordered list of feature names the classifier was trained on.
// Positions are part of the artifact contract; append-only changes still
// require a retrained model.
var Schema = []string{
	"Time_Scaled", "Amount_Scaled",
	"V1", "V2", "V3", "V4", "V5", "V6", "V7", "V8", "V9", "V10",
	"V11", "V12", "V13", "V14", "V15", "V16", "V17", "V18", "V19", "V20",
	"V21", "V22", "V23", "V24", "V25", "V26", "V27", "V28",
	"Amount_Log", "Is_Small_Amount", "Is_Large_Amount", "Hour", "Is_Night",
	"V17_V14", "Top5_sum",
}

// Width is the encoded vector length.
var Width = len(Schema)

const (
	idxTimeScaled   = 0
	idxAmountScaled = 1
	idxV1           = 2
	idxAmountLog    = 30
	idxIsSmall      = 31
	idxIsLarge      = 32
	idxHour         = 33
	idxIsNight      = 34
	idxV17V14       = 35
	idxTop5Sum      = 36

	smallAmountLimit = 10.0
	largeAmountLimit = 200.0
	secondsPerHour   = 3600
)

// ErrTransform wraps scaler failures.
var ErrTransform = errors.New("features: scaler transform failed")

// Input holds the raw operator-supplied transaction fields.
type Input struct {
	Amount float64 `json:"amount"`
	Hour   int     `json:"hour"`
	V12    float64 `json:"v12"`
	V14    float64 `json:"v14"`
	V17    float64 `json:"v17"`
}

// Scaler applies a pre-fitted single-column transform.
type Scaler interface {
	Transform(x float64) (float64, error)
}

// Vector is an encoded feature row laid out in Schema order.
type Vector []float64

// Get returns the value of the named feature.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range Schema {
		if n == name && i < len(v) {
			return v[i], true
		}
	}
	return 0, false
}

// Named returns the vector as a name -> value map, mostly for logging.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, len(v))
	for i, value := range v {
		if i < len(Schema) {
			out[Schema[i]] = value
		}
	}
	return out
}

// Encoder turns Input into a Vector using the fitted scalers.
type Encoder struct {
	amount Scaler
	time   Scaler
}

// NewEncoder builds an encoder around the amount and time scalers.
func NewEncoder(amount, time Scaler) *Encoder {
	return &Encoder{amount: amount, time: time}
}

// Encode builds the feature vector for one transaction.
func (e *Encoder) Encode(in Input) (Vector, error) {
	timeSeconds := float64(in.Hour * secondsPerHour)

	scaledAmount, err := e.amount.Transform(in.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrTransform, err)
	}
	scaledTime, err := e.time.Transform(timeSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: time: %v", ErrTransform, err)
	}

	vec := make(Vector, Width)
	vec[idxTimeScaled] = scaledTime
	vec[idxAmountScaled] = scaledAmount

	// V1..V28 stay zero apart from the three inputs the operator controls.
	vec[idxV1+11] = in.V12
	vec[idxV1+13] = in.V14
	vec[idxV1+16] = in.V17

	vec[idxAmountLog] = math.Log1p(in.Amount)
	vec[idxIsSmall] = flag(in.Amount < smallAmountLimit)
	vec[idxIsLarge] = flag(in.Amount > largeAmountLimit)
	vec[idxHour] = float64(in.Hour)
	vec[idxIsNight] = flag(IsNight(in.Hour))
	vec[idxV17V14] = in.V17 * in.V14
	vec[idxTop5Sum] = in.V17 + in.V14 + in.V12

	return vec, nil
}

// IsNight reports whether the hour falls in the 22:00-06:59 window.
func IsNight(hour int) bool {
	return hour >= 22 || hour <= 6
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
