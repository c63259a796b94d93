package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Key is the ordered tuple of a row's key-column values.
type Key []any

// KeyOf projects the key columns of a row, in order.
func KeyOf(row Row, columns []string) Key {
	return Key(row.Project(columns))
}

// Encode returns a canonical, type-tagged string for the key.
// Two keys encode equally only if they have the same length and every
// position holds the same kind and value.
func (k Key) Encode() string {
	var b strings.Builder
	for i, v := range k {
		if i > 0 {
			b.WriteByte('|')
		}
		switch x := v.(type) {
		case nil:
			b.WriteByte('n')
		case int64:
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			if x == 0 {
				x = 0 // -0 and 0 are the same key
			}
			b.WriteByte('f')
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case string:
			b.WriteByte('s')
			b.WriteString(strconv.Quote(x))
		case bool:
			b.WriteByte('b')
			if x {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		default:
			b.WriteByte('?')
			b.WriteString(strconv.Quote(fmt.Sprintf("%T:%v", x, x)))
		}
	}
	return b.String()
}

// Format renders the key against its column names, e.g. `id=2` or
// `region="eu", id=7`.
func (k Key) Format(columns []string) string {
	parts := make([]string, len(k))
	for i, v := range k {
		name := fmt.Sprintf("#%d", i)
		if i < len(columns) {
			name = columns[i]
		}
		parts[i] = name + "=" + formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Equal reports whether two normalized values are equal: both null, or both
// non-null of the same kind with the same value. There is no coercion
// between kinds. Two NaN floats are treated as equal so that a NaN cell does
// not register as a change on every run.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && (x == y || (math.IsNaN(x) && math.IsNaN(y)))
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	default:
		return false
	}
}

// EqualWithin is Equal, except that two floats within tolerance of each
// other are equal. A tolerance of zero or less is exact equality.
func EqualWithin(a, b any, tolerance float64) bool {
	if tolerance > 0 {
		x, xok := a.(float64)
		y, yok := b.(float64)
		if xok && yok && math.Abs(x-y) <= tolerance {
			return true
		}
	}
	return Equal(a, b)
}
