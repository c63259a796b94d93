package relational

import (
	"fmt"
	"math"
	"strings"

	"delta-apply/core/dataset"
	"delta-apply/core/utils"
)

// columnType maps a declared SQL column type to a dataset column type.
func columnType(sqlType string) dataset.ColumnType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch {
	case strings.HasPrefix(t, "tinyint(1)"), strings.HasPrefix(t, "bool"):
		return dataset.TypeBool
	case strings.Contains(t, "int"):
		return dataset.TypeInt
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"),
		strings.Contains(t, "dec"), strings.Contains(t, "numeric"):
		return dataset.TypeFloat
	default:
		return dataset.TypeString
	}
}

// cellValue converts a scanned driver value into a value of the column type.
// MySQL's text protocol returns most values as []byte, and SQLite stores
// whatever it is given, so both are parsed by the declared type.
func cellValue(raw any, typ dataset.ColumnType) (any, error) {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	v, err := utils.Normalize(raw)
	if err != nil || v == nil {
		return v, err
	}

	switch typ {
	case dataset.TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case string:
			if n, ok := utils.ParseInt(x); ok {
				return n, nil
			}
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case dataset.TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			if f, ok := utils.ParseFloat(x); ok {
				return f, nil
			}
		}
	case dataset.TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			switch x {
			case "1":
				return true, nil
			case "0":
				return false, nil
			}
			if b, ok := utils.ParseBool(x); ok {
				return b, nil
			}
		}
	default:
		return utils.ToString(v), nil
	}

	return nil, fmt.Errorf("cannot read %v (%T) as %s", v, v, typ)
}

// readType returns declared, or the narrowest wider type that every value
// in vals can be read as.
func readType(declared dataset.ColumnType, vals []any) dataset.ColumnType {
	typ := declared
	for {
		widened := typ
		for _, v := range vals {
			if _, err := cellValue(v, widened); err == nil {
				continue
			}
			next := dataset.CommonType(widened, valueType(v))
			if next == widened {
				next = dataset.TypeString
			}
			widened = next
		}
		if widened == typ {
			return typ
		}
		typ = widened
	}
}

// valueType is the type a scanned value would be read as on its own.
func valueType(raw any) dataset.ColumnType {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	v, err := utils.Normalize(raw)
	if err != nil {
		return dataset.TypeString
	}
	if s, ok := v.(string); ok {
		return dataset.InferType([]string{s})
	}
	return dataset.TypeOf(v)
}
