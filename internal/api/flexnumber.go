package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a numeric string, since form inputs
// often arrive as strings. Anything else leaves it unset. Blank marks an
// explicit null or an empty string.
type FlexNumber struct {
	Value float64
	Valid bool
	Blank bool
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	*n = FlexNumber{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		n.Blank = true
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			n.Blank = true
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = FlexNumber{Value: v, Valid: true}
	return nil
}

// Float returns NaN when unset so downstream clamps pick their fallback.
func (n FlexNumber) Float() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Value
}

// Coerced is Float with a blank field read as zero. A cleared age input
// therefore clamps to the minimum age instead of taking the default.
func (n FlexNumber) Coerced() float64 {
	if n.Blank {
		return 0
	}
	return n.Float()
}
