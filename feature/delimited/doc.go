// Package delimited implements a backend over a delimited text file (CSV,
// TSV) with a header row.
//
// # Reading
//
// The whole file is parsed. Column types are inferred per column the way a
// dataframe reader does it: int, then float, then bool, then string. An
// empty cell is null.
//
// # Writing
//
// A writer holds an exclusive lock on "<file>.lock" for its lifetime and
// edits the file's rows in memory. Commit writes the result to a temporary
// file in the same directory and renames it over the original, so readers
// see either the old file or the new one. The header order of the file is
// preserved; updated rows stay where they were, inserted rows are appended
// and deleted rows are dropped.
//
// Records nobody edited are written back byte for byte, line endings and
// quoting included. Edited records are re-encoded, keeping the original text
// of every cell whose value is unchanged. Inserts use the file's line ending.
//
// The codec (Parse, Document.Render) is shared with the objectstore backend.
package delimited
