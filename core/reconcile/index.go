package reconcile

import (
	"delta-apply/core/dataset"
)

// KeyIndex maps encoded row keys to rows, remembering build order.
// It lives for one diff call.
type KeyIndex struct {
	keyColumns []string
	order      []string
	rows       map[string]dataset.Row
	keys       map[string]dataset.Key
	positions  map[string]int
}

// BuildIndex indexes a dataset by its key columns.
// A repeated key fails with a DuplicateKeyError unless policy says otherwise.
func BuildIndex(side Side, ds *dataset.Dataset, keyColumns []string, policy DuplicatePolicy) (*KeyIndex, error) {
	n := ds.Len()
	idx := &KeyIndex{
		keyColumns: keyColumns,
		order:      make([]string, 0, n),
		rows:       make(map[string]dataset.Row, n),
		keys:       make(map[string]dataset.Key, n),
		positions:  make(map[string]int, n),
	}

	for i := 0; i < n; i++ {
		row := ds.Row(i)
		key := dataset.KeyOf(row, keyColumns)
		enc := key.Encode()

		if first, seen := idx.positions[enc]; seen {
			switch policy {
			case DuplicateKeepFirst:
				continue
			case DuplicateKeepLast:
				idx.rows[enc] = row
				continue
			default:
				return nil, &DuplicateKeyError{
					Side:       side,
					KeyColumns: keyColumns,
					Key:        key,
					FirstRow:   first,
					SecondRow:  i,
				}
			}
		}

		idx.order = append(idx.order, enc)
		idx.rows[enc] = row
		idx.keys[enc] = key
		idx.positions[enc] = i
	}

	return idx, nil
}

// Len returns the number of distinct keys.
func (x *KeyIndex) Len() int {
	return len(x.order)
}

// Lookup returns the row for an encoded key.
func (x *KeyIndex) Lookup(encoded string) (dataset.Row, bool) {
	row, ok := x.rows[encoded]
	return row, ok
}

// Keys returns the encoded keys in build order.
func (x *KeyIndex) Keys() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Key returns the decoded key tuple for an encoded key.
func (x *KeyIndex) Key(encoded string) dataset.Key {
	return x.keys[encoded]
}
