package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize converts a Go value into one of the scalar kinds a dataset cell
// may hold: int64, float64, string, bool or nil.
// It handles the standard integer and float widths, byte slices (as text)
// and time.Time (as RFC 3339 text). Any other type is rejected.
func Normalize(val any) (any, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		return uintToInt64(uint64(v))
	case uint64:
		return uintToInt64(v)
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", val)
	}
}

func uintToInt64(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", v)
	}
	return int64(v), nil
}

// ToString renders a normalized value as delimited-file text.
// Null becomes the empty string. Whole floats keep a trailing ".0" so they
// read back as floats rather than integers.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !math.IsInf(v, 0) && !math.IsNaN(v) && !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseInt parses text as a base-10 int64.
func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// ParseFloat parses text as a float64.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseBool accepts "true"/"false" in any letter case.
// Numeric forms ("1", "0") are deliberately not accepted so that integer
// columns are never mistaken for booleans.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
