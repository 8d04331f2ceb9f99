package stretch

import (
	"math"
	"testing"

	"fitsview/internal/cuts"
)

func TestMaskedNonPositive(t *testing.T) {
	r := cuts.Range{Lo: 1, Hi: 100}
	for _, k := range Kinds() {
		if k == Linear {
			continue
		}
		n := New(k, r)
		for _, v := range []float64{0, -1, -1e9, math.Inf(-1), math.NaN()} {
			if got := n.Apply(v); got != 0 {
				t.Errorf("%v.Apply(%v) = %v, want 0", k, v, got)
			}
		}
	}
}

func TestLinearKeepsNegative(t *testing.T) {
	n := New(Linear, cuts.Range{Lo: -10, Hi: 10})
	if got := n.Apply(-5); got != 0.25 {
		t.Errorf("Apply(-5) = %v, want 0.25", got)
	}
	if got := n.Apply(0); got != 0.5 {
		t.Errorf("Apply(0) = %v, want 0.5", got)
	}
	if got := n.Apply(math.NaN()); got != 0 {
		t.Errorf("Apply(NaN) = %v, want 0", got)
	}
}

func TestKnownValues(t *testing.T) {
	r := cuts.Range{Lo: 1, Hi: 9}
	tests := []struct {
		kind Kind
		v    float64
		want float64
	}{
		{Linear, 5, 0.5},
		{Sqrt, 5, (math.Sqrt(5) - 1) / 2},
		{Log, 3, math.Log(3) / math.Log(9)},
		{Squared, 5, 24.0 / 80},
		{Asinh, 9, 1},
		{Linear, 100, 1},
		{Sqrt, 0.5, 0},
	}
	for _, tt := range tests {
		got := New(tt.kind, r).Apply(tt.v)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%v.Apply(%v) = %v, want %v", tt.kind, tt.v, got, tt.want)
		}
	}
}

func TestSqrtScenario(t *testing.T) {
	got := New(Sqrt, cuts.Range{Lo: 1, Hi: 9}).Apply(5)
	// (sqrt(5)-sqrt(1)) / (sqrt(9)-sqrt(1))
	if math.Abs(got-0.618034) > 1e-6 {
		t.Fatalf("sqrt(5) normalized = %v, want ~0.618034", got)
	}
}

func TestDegenerate(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		r    cuts.Range
	}{
		{"equal", Linear, cuts.Range{Lo: 5, Hi: 5}},
		{"inverted", Sqrt, cuts.Range{Lo: 9, Hi: 1}},
		{"log_zero_lo", Log, cuts.Range{Lo: 0, Hi: 10}},
		{"squared_negative", Squared, cuts.Range{Lo: -3, Hi: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.kind, tt.r)
			if !n.Degenerate() {
				t.Fatal("expected degenerate normalizer")
			}
			for _, v := range []float64{-1, 0, 1, 5, 9, 1e6} {
				if got := n.Apply(v); got != 0 {
					t.Errorf("Apply(%v) = %v, want 0", v, got)
				}
			}
		})
	}
}

func TestUnknownKindIsDegenerate(t *testing.T) {
	for _, k := range []Kind{Kind(-1), Kind(len(Kinds())), Kind(99)} {
		n := New(k, cuts.Range{Lo: 1, Hi: 10})
		if !n.Degenerate() {
			t.Errorf("New(%d) not degenerate", int(k))
		}
		if got := n.Apply(5); got != 0 {
			t.Errorf("Kind(%d).Apply(5) = %v, want 0", int(k), got)
		}
		if k.String() != "unknown" {
			t.Errorf("Kind(%d).String() = %q", int(k), k.String())
		}
	}
}

func TestApplyIdempotentAndPure(t *testing.T) {
	src := []float64{-2, 0, 1, 2.5, 7, 12, math.NaN()}
	n := New(Asinh, cuts.Range{Lo: 1, Hi: 10})
	a := make([]float64, len(src))
	b := make([]float64, len(src))
	n.ApplySlice(a, src)
	n.ApplySlice(b, src)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("repeated application differs at %d: %v vs %v", i, a[i], b[i])
		}
		if a[i] < 0 || a[i] > 1 {
			t.Fatalf("out of range at %d: %v", i, a[i])
		}
	}
	if src[3] != 2.5 {
		t.Fatal("ApplySlice modified its source")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		if got, err := ParseKind(k.String()); err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("gamma"); err == nil {
		t.Error("expected error for unknown stretch")
	}
}
