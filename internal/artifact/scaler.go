package artifact

import (
	"fmt"
	"math"
)

// Scaler kinds understood by the loader.
const (
	ScalerStandard = "standard"
	ScalerRobust   = "robust"
	ScalerMinMax   = "minmax"
)

// Scaler is a fitted single-column transform read from a scaler artifact.
type Scaler struct {
	Kind    string  `json:"kind"`
	Feature string  `json:"feature"`
	Mean    float64 `json:"mean,omitempty"`
	Center  float64 `json:"center,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Scale   float64 `json:"scale"`
}

func (s *Scaler) validate() error {
	switch s.Kind {
	case ScalerStandard, ScalerRobust, ScalerMinMax:
	default:
		return fmt.Errorf("unsupported scaler kind %q", s.Kind)
	}
	for _, v := range []float64{s.Mean, s.Center, s.Min, s.Scale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler %q has non-finite parameters", s.Feature)
		}
	}
	return nil
}

// Transform applies the fitted transform to one value.
func (s *Scaler) Transform(x float64) (float64, error) {
	var out float64
	switch s.Kind {
	case ScalerStandard:
		out = (x - s.Mean) / unitIfZero(s.Scale)
	case ScalerRobust:
		out = (x - s.Center) / unitIfZero(s.Scale)
	case ScalerMinMax:
		out = x*s.Scale + s.Min
	default:
		return 0, fmt.Errorf("unsupported scaler kind %q", s.Kind)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("scaler %q produced %v for input %v", s.Feature, out, x)
	}
	return out, nil
}

// unitIfZero treats a zero spread as 1: values are centred but unscaled.
func unitIfZero(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}
