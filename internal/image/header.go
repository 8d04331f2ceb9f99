package image

import (
	"strconv"
	"strings"
)

// Header is a parsed FITS header. Keys are upper-case; values are string,
// float64, int, or bool.
type Header map[string]interface{}

// Has reports whether the key is present.
func (h Header) Has(key string) bool {
	_, ok := h[strings.ToUpper(key)]
	return ok
}

// String returns a string value with FITS padding trimmed.
func (h Header) String(key string) (string, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	default:
		return "", false
	}
}

// Float returns a numeric value. Numeric strings are accepted since some
// writers quote numbers.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// FloatWithFallback returns the numeric value or fallback if missing.
func (h Header) FloatWithFallback(key string, fallback float64) float64 {
	if f, ok := h.Float(key); ok {
		return f
	}
	return fallback
}

// Int returns an integer value.
func (h Header) Int(key string) (int, bool) {
	f, ok := h.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
