package dataset

import "delta-apply/core/utils"

// CommonType returns the narrowest type both a and b can be represented in.
// Unknown gives way to the other side, int and float meet at float and any
// other pair falls back to string.
func CommonType(a, b ColumnType) ColumnType {
	switch {
	case a == b || b == TypeUnknown:
		return a
	case a == TypeUnknown:
		return b
	case (a == TypeInt && b == TypeFloat) || (a == TypeFloat && b == TypeInt):
		return TypeFloat
	default:
		return TypeString
	}
}

// Coerce converts a normalized value to typ when typ is at least as wide as
// the value's own type. Ints widen to floats, and anything becomes its text
// form in a string column. Values that cannot be widened are returned as is.
func Coerce(v any, typ ColumnType) any {
	switch typ {
	case TypeFloat:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case TypeString:
		if v != nil {
			if _, ok := v.(string); !ok {
				return utils.ToString(v)
			}
		}
	}
	return v
}
