package features

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"
)

type linearScaler struct {
	mean  float64
	scale float64
}

func (s linearScaler) Transform(x float64) (float64, error) {
	return (x - s.mean) / s.scale, nil
}

type failingScaler struct{}

func (failingScaler) Transform(float64) (float64, error) {
	return 0, errors.New("boom")
}

func testEncoder() *Encoder {
	return NewEncoder(linearScaler{mean: 88.35, scale: 250.12}, linearScaler{mean: 94813.86, scale: 47488.15})
}

func mustGet(t *testing.T, v Vector, name string) float64 {
	t.Helper()
	value, ok := v.Get(name)
	if !ok {
		t.Fatalf("feature %s missing", name)
	}
	return value
}

func TestSchemaShape(t *testing.T) {
	if Width != 37 {
		t.Fatalf("expected 37 features, got %d", Width)
	}
	if Schema[0] != "Time_Scaled" || Schema[1] != "Amount_Scaled" {
		t.Fatalf("scaled fields must lead the schema: %v", Schema[:2])
	}
	for i := 1; i <= 28; i++ {
		if want := "V" + strconv.Itoa(i); Schema[i+1] != want {
			t.Fatalf("position %d: want %s got %s", i+1, want, Schema[i+1])
		}
	}
	tail := []string{"Amount_Log", "Is_Small_Amount", "Is_Large_Amount", "Hour", "Is_Night", "V17_V14", "Top5_sum"}
	if !reflect.DeepEqual(Schema[30:], tail) {
		t.Fatalf("unexpected derived tail: %v", Schema[30:])
	}
}

func TestEncodeNormalPurchase(t *testing.T) {
	vec, err := testEncoder().Encode(Input{Amount: 120.0, Hour: 14})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(vec) != Width {
		t.Fatalf("vector length %d, want %d", len(vec), Width)
	}

	checks := map[string]float64{
		"Is_Small_Amount": 0,
		"Is_Large_Amount": 0,
		"Is_Night":        0,
		"Top5_sum":        0,
		"V17_V14":         0,
		"Hour":            14,
	}
	for name, want := range checks {
		if got := mustGet(t, vec, name); got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}

	if got := mustGet(t, vec, "Amount_Log"); math.Abs(got-math.Log1p(120)) > 1e-12 {
		t.Fatalf("Amount_Log = %v", got)
	}
	wantTime := (14*3600 - 94813.86) / 47488.15
	if got := mustGet(t, vec, "Time_Scaled"); math.Abs(got-wantTime) > 1e-12 {
		t.Fatalf("Time_Scaled = %v, want %v", got, wantTime)
	}
	wantAmount := (120.0 - 88.35) / 250.12
	if got := mustGet(t, vec, "Amount_Scaled"); math.Abs(got-wantAmount) > 1e-12 {
		t.Fatalf("Amount_Scaled = %v, want %v", got, wantAmount)
	}
}

func TestEncodeStolenCard(t *testing.T) {
	vec, err := testEncoder().Encode(Input{Amount: 250.0, Hour: 2, V12: 1.5, V14: -12.0, V17: -8.0})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if got := mustGet(t, vec, "Is_Night"); got != 1 {
		t.Fatalf("Is_Night = %v, want 1", got)
	}
	if got := mustGet(t, vec, "V17_V14"); got != 96.0 {
		t.Fatalf("V17_V14 = %v, want 96", got)
	}
	if got := mustGet(t, vec, "Top5_sum"); got != -20.0+1.5 {
		t.Fatalf("Top5_sum = %v, want %v", got, -20.0+1.5)
	}
	if got := mustGet(t, vec, "Is_Large_Amount"); got != 1 {
		t.Fatalf("Is_Large_Amount = %v, want 1", got)
	}
	if mustGet(t, vec, "V12") != 1.5 || mustGet(t, vec, "V14") != -12 || mustGet(t, vec, "V17") != -8 {
		t.Fatalf("latent inputs landed in the wrong slots: %v", vec.Named())
	}

	for i := 1; i <= 28; i++ {
		name := "V" + strconv.Itoa(i)
		if name == "V12" || name == "V14" || name == "V17" {
			continue
		}
		if got := mustGet(t, vec, name); got != 0 {
			t.Fatalf("%s should be zero-filled, got %v", name, got)
		}
	}
}

func TestEncodeAmountFlags(t *testing.T) {
	enc := testEncoder()

	small, _ := enc.Encode(Input{Amount: 5.0, Hour: 12})
	if mustGet(t, small, "Is_Small_Amount") != 1 || mustGet(t, small, "Is_Large_Amount") != 0 {
		t.Fatalf("5.0 should be small only")
	}

	large, _ := enc.Encode(Input{Amount: 500.0, Hour: 12})
	if mustGet(t, large, "Is_Large_Amount") != 1 || mustGet(t, large, "Is_Small_Amount") != 0 {
		t.Fatalf("500.0 should be large only")
	}

	edgeSmall, _ := enc.Encode(Input{Amount: 10.0, Hour: 12})
	edgeLarge, _ := enc.Encode(Input{Amount: 200.0, Hour: 12})
	if mustGet(t, edgeSmall, "Is_Small_Amount") != 0 || mustGet(t, edgeLarge, "Is_Large_Amount") != 0 {
		t.Fatalf("thresholds are strict comparisons")
	}
}

func TestIsNightBoundaries(t *testing.T) {
	cases := map[int]bool{0: true, 6: true, 7: false, 14: false, 21: false, 22: true, 23: true, 24: true}
	for hour, want := range cases {
		if got := IsNight(hour); got != want {
			t.Fatalf("IsNight(%d) = %v, want %v", hour, got, want)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	enc := testEncoder()
	in := Input{Amount: 5000, Hour: 4, V14: -5, V17: -2}

	first, err := enc.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := enc.Encode(in)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("encoding changed between calls")
		}
	}
}

func TestEncodeScalerFailure(t *testing.T) {
	enc := NewEncoder(failingScaler{}, linearScaler{scale: 1})
	if _, err := enc.Encode(Input{Amount: 1, Hour: 1}); !errors.Is(err, ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}
