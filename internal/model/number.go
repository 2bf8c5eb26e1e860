package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNotInteger = errors.New("value is not an integer")
)

// ParseNumber coerces a raw JSON value to a float64. Numbers, booleans and
// numeric strings are accepted; null, arrays and objects are not.
func ParseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, ErrNotNumeric
	}

	switch raw[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return 0, ErrNotNumeric
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrNotNumeric
		}
		s = strings.TrimSpace(s)
		if isHexLiteral(s) {
			return 0, ErrNotNumeric
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, ErrNotNumeric
		}
		return f, nil
	case 'n', '[', '{':
		return 0, ErrNotNumeric
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// isHexLiteral reports whether s is a hexadecimal literal such as "0x1p3".
// Only decimal strings count as numeric.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// FlexInt is an integer that also decodes from an integer-valued string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && (raw[0] == 't' || raw[0] == 'f') {
		return ErrNotInteger
	}

	f, err := ParseNumber(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return ErrNotInteger
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return ErrNotInteger
	}

	*n = FlexInt(f)
	return nil
}

// IntPtr returns the value as *int, or nil when n is nil.
func (n *FlexInt) IntPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}
