package visit

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Number is a numeric form value. The browser sends input boxes as text,
// so it decodes from either a JSON number or a JSON string and keeps the
// text as entered. Empty means "not provided".
type Number string

// NumberOf returns the Number for f in its shortest exact form.
func NumberOf(f float64) Number {
	return Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// IsZero reports whether no value was provided.
func (n Number) IsZero() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Float parses the value. It reports false for empty, non-numeric,
// NaN or infinite input.
func (n Number) Float() (float64, bool) {
	if n.IsZero() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int parses the value as a whole number.
func (n Number) Int() (int, bool) {
	f, ok := n.Float()
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// UnmarshalJSON accepts a number, a string or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*n = NumberOf(f)
		return nil
	}
}

// MarshalJSON writes numeric values as JSON numbers and anything else as
// a string so the entered text survives a round trip.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.IsZero() {
		return []byte("null"), nil
	}
	if f, ok := n.Float(); ok {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(string(n))
}
