// Package stretch maps raw pixel values into [0,1] through a monotonic
// transfer function between two cuts.
package stretch

import (
	"fmt"
	"math"
	"strings"

	"fitsview/internal/cuts"
)

// Kind is the transfer function applied before linear cut normalization.
type Kind int

// Stretch kinds
const (
	Linear Kind = iota
	Log
	Sqrt
	Squared
	Asinh
)

// Kinds returns all stretch kinds in display order.
func Kinds() []Kind {
	return []Kind{Linear, Log, Sqrt, Squared, Asinh}
}

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Log:
		return "log"
	case Sqrt:
		return "sqrt"
	case Squared:
		return "squared"
	case Asinh:
		return "asinh"
	default:
		return "unknown"
	}
}

// ParseKind accepts the names printed by String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown stretch %q", s)
}

// transform evaluates the transfer function. Unknown kinds yield NaN, which
// makes New degenerate.
func (k Kind) transform(v float64) float64 {
	switch k {
	case Linear:
		return v
	case Log:
		return math.Log(v)
	case Sqrt:
		return math.Sqrt(v)
	case Squared:
		return v * v
	case Asinh:
		return math.Asinh(v)
	default:
		return math.NaN()
	}
}

// Masked reports whether non-positive input is forced to 0.
func (k Kind) Masked() bool {
	return k != Linear
}

// Normalizer is an immutable (kind, cuts) pair. It holds no mutable state and
// may be shared between goroutines.
type Normalizer struct {
	kind       Kind
	cuts       cuts.Range
	flo, fhi   float64
	degenerate bool
}

// New prepares a normalizer. A range with f(hi) <= f(lo), a bound the
// transfer function cannot evaluate, or an unknown kind maps every value to 0.
func New(kind Kind, r cuts.Range) Normalizer {
	lo, hi := r.Lo, r.Hi
	if kind.Masked() {
		lo, hi = math.Max(lo, 0), math.Max(hi, 0)
	}
	n := Normalizer{kind: kind, cuts: r, flo: kind.transform(lo), fhi: kind.transform(hi)}
	n.degenerate = !finite(n.flo) || !finite(n.fhi) || !(n.fhi > n.flo)
	return n
}

// Kind returns the transfer function.
func (n Normalizer) Kind() Kind { return n.kind }

// Cuts returns the range the normalizer was built with.
func (n Normalizer) Cuts() cuts.Range { return n.cuts }

// Degenerate reports whether every value maps to 0.
func (n Normalizer) Degenerate() bool { return n.degenerate }

// Apply normalizes a single value.
func (n Normalizer) Apply(v float64) float64 {
	if n.degenerate || !finite(v) {
		return 0
	}
	if n.kind.Masked() && v <= 0 {
		return 0
	}
	f := n.kind.transform(v)
	if f < n.flo {
		f = n.flo
	} else if f > n.fhi {
		f = n.fhi
	}
	return (f - n.flo) / (n.fhi - n.flo)
}

// ApplySlice normalizes src into dst, which must be at least as long.
func (n Normalizer) ApplySlice(dst, src []float64) {
	if n.degenerate {
		clear(dst[:len(src)])
		return
	}
	for i, v := range src {
		dst[i] = n.Apply(v)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
