package valuation

import (
	"errors"
	"fmt"
	"math"
)

// Error kinds surfaced by the engine. Callers match them with errors.Is; the
// returned errors wrap one of these with the offending field and value.
var (
	// ErrInvalidInput: a field that must be positive is not (shares outstanding).
	ErrInvalidInput = errors.New("invalid input")
	// ErrValuationUndefined: the formula has no finite result (discount rate <= growth).
	ErrValuationUndefined = errors.New("valuation undefined")
	// ErrDataUnavailable: the upstream payload was absent or malformed.
	ErrDataUnavailable = errors.New("data unavailable")
)

// Kind names used on the wire.
const (
	KindInvalidInput       = "invalid_input"
	KindValuationUndefined = "valuation_undefined"
	KindDataUnavailable    = "data_unavailable"
)

// KindOf maps an error to its wire kind, or "" when it is not an engine error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrValuationUndefined):
		return KindValuationUndefined
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	}
	return ""
}

func invalidInput(name string, v float64) error {
	return fmt.Errorf("%w: %s must be > 0, got %g", ErrInvalidInput, name, v)
}

type field struct {
	name  string
	value float64
}

// requireFinite checks fields in order so the reported field is stable.
func requireFinite(fields ...field) error {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, f.name)
		}
	}
	return nil
}
