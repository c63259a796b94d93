package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditor(t *testing.T) {
	target, err := FromRecords([]string{"id", "name", "amount", "note"}, [][]any{
		{1, "Alice", 10.5, "keep"},
		{2, "Bob", 20.0, "old"},
		{5, "Eve", 50.0, nil},
	})
	require.NoError(t, err)

	e := NewEditor(target)

	n := e.Delete([]string{"id"}, []Row{{"id": int64(5)}, {"id": int64(99)}})
	assert.Equal(t, 1, n)

	// Source rows carry an extra column and lack "note"; amount is an int.
	n, err = e.Insert([]Row{{"id": int64(3), "name": "Charlie", "amount": int64(30), "extra": true}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.Update([]string{"id"}, []string{"name", "amount", "extra"}, []Row{
		{"id": int64(2), "name": "Bob Updated", "amount": 25.0, "extra": false},
		{"id": int64(7), "name": "Nobody", "amount": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err := e.Dataset()
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{int64(1), "Alice", 10.5, "keep"},
		{int64(2), "Bob Updated", 25.0, "old"},
		{int64(3), "Charlie", 30.0, nil},
	}, out.Records())

	// The original is untouched
	assert.Equal(t, 3, target.Len())
	assert.Equal(t, "Bob", target.Row(1)["name"])
}

func TestEditor_WidensMixedColumns(t *testing.T) {
	target, err := FromRecords([]string{"id", "amount", "code"}, [][]any{{1, 10, 7}, {2, 20, 8}})
	require.NoError(t, err)

	e := NewEditor(target)
	_, err = e.Update([]string{"id"}, []string{"amount", "code"}, []Row{{"id": int64(1), "amount": 10.5, "code": "B9"}})
	require.NoError(t, err)

	out, err := e.Dataset()
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, out.Schema().Columns[1].Type)
	assert.Equal(t, TypeString, out.Schema().Columns[2].Type)
	assert.Equal(t, [][]any{
		{int64(1), 10.5, "B9"},
		{int64(2), 20.0, "8"},
	}, out.Records())

	// Back to ints only: the column narrows again.
	_, err = e.Update([]string{"id"}, []string{"amount"}, []Row{{"id": int64(1), "amount": int64(10)}})
	require.NoError(t, err)
	out, err = e.Dataset()
	require.NoError(t, err)
	assert.Equal(t, TypeInt, out.Schema().Columns[1].Type)

	_, err = e.Insert([]Row{{"id": int64(3), "amount": struct{}{}}})
	assert.ErrorContains(t, err, "amount")
}

func TestEditor_Entries(t *testing.T) {
	target, err := FromRecords([]string{"id", "v"}, [][]any{{1, "a"}, {2, "b"}, {3, "c"}})
	require.NoError(t, err)

	e := NewEditor(target)
	e.Delete([]string{"id"}, []Row{{"id": int64(2)}})
	_, err = e.Update([]string{"id"}, []string{"v"}, []Row{{"id": int64(3), "v": int64(30)}})
	require.NoError(t, err)
	_, err = e.Insert([]Row{{"id": int64(4), "v": "d"}})
	require.NoError(t, err)

	entries := e.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Row: Row{"id": int64(1), "v": "a"}, Origin: 0}, entries[0])
	assert.Equal(t, Entry{Row: Row{"id": int64(3), "v": int64(30)}, Origin: 2, Modified: true}, entries[1])
	assert.Equal(t, Entry{Row: Row{"id": int64(4), "v": "d"}, Origin: -1}, entries[2])
}

func TestEditor_DeleteThenUpdateSameKeyColumns(t *testing.T) {
	target, err := FromRecords([]string{"id", "v"}, [][]any{{1, "a"}, {2, "b"}, {3, "c"}})
	require.NoError(t, err)

	e := NewEditor(target)
	e.Delete([]string{"id"}, []Row{{"id": int64(1)}})
	_, err = e.Insert([]Row{{"id": int64(4), "v": "d"}})
	require.NoError(t, err)
	n, err := e.Update([]string{"id"}, []string{"v"}, []Row{{"id": int64(4), "v": "D"}, {"id": int64(1), "v": "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err := e.Dataset()
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2), "b"}, {int64(3), "c"}, {int64(4), "D"}}, out.Records())
}
