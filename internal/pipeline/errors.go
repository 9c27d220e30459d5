package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyConstraint marks a buffer constraint that is enabled but has no
// underlying geometry (e.g. no network lines were available for the
// commune). The filter fails closed in that case: it returns an empty
// collection wrapped with this sentinel, so callers can tell "configured but
// empty" apart from a genuine zero-match result.
var ErrEmptyConstraint = errors.New("enabled buffer constraint has no geometry")

// DataFormatError reports a required numeric field that could not be
// coerced from its raw attribute value.
type DataFormatError struct {
	Field string
	Value interface{}
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %v (%T) to a number", e.Field, e.Value, e.Value)
}

// coerceNumeric converts a raw GeoJSON property value to float64. Cadastre
// exports carry contenance as a number, but some district dumps quote it.
func coerceNumeric(field string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &DataFormatError{Field: field, Value: v}
		}
		return f, nil
	default:
		return 0, &DataFormatError{Field: field, Value: v}
	}
}
