package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Count is a non-negative integer that decodes leniently.
// Records arrive from forms and spreadsheets where numbers are often strings;
// anything that is not a finite number decodes to 0 instead of failing.
type Count int

// ParseCount converts s to a Count. Blank, non-numeric, non-finite and negative
// input yields 0; fractional values are truncated.
func ParseCount(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return countFromFloat(f)
}

func countFromFloat(f float64) Count {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return Count(math.MaxInt32)
	}
	return Count(f)
}

// Int returns c as an int.
func (c Count) Int() int { return int(c) }

// UnmarshalJSON accepts numbers, numeric strings, booleans and null. It never
// returns an error.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*c = 0
	case bytes.Equal(data, []byte("true")):
		*c = 1
	case bytes.Equal(data, []byte("false")):
		*c = 0
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = 0
			return nil
		}
		*c = ParseCount(s)
	default:
		*c = ParseCount(string(data))
	}
	return nil
}
