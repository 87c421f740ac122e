package presence

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeStreamID returns the canonical registry key for a stream id.
// Room keys are plain strings; "42" and the JSON number 42 name the same room.
func NormalizeStreamID(raw string) string {
	return strings.TrimSpace(raw)
}

// LooseID is an identifier that clients may send either as a JSON string or a JSON number.
// Integral numbers are rendered in base 10 without exponent or fraction.
type LooseID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *LooseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LooseID(NormalizeStreamID(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	if i, err := n.Int64(); err == nil {
		*id = LooseID(strconv.FormatInt(i, 10))
		return nil
	}

	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*id = LooseID(strconv.FormatInt(int64(f), 10))
		return nil
	}

	*id = LooseID(n.String())
	return nil
}

// String returns the normalized id.
func (id LooseID) String() string {
	return NormalizeStreamID(string(id))
}
