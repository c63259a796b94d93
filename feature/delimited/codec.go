package delimited

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"delta-apply/core/dataset"
	"delta-apply/core/utils"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("missing header row")

// Document is parsed delimited text that still knows the bytes each record
// was read from, so rows nobody edited can be written back verbatim.
type Document struct {
	ds        *dataset.Dataset
	delimiter rune
	crlf      bool

	header  []byte     // header line with its terminator
	records [][]byte   // body records with their terminators
	cells   [][]string // parsed fields per body record
	tail    []byte     // blank lines after the last record
}

// Decode parses delimited text with a header row into a dataset.
func Decode(r io.Reader, delimiter rune) (*dataset.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data, delimiter)
	if err != nil {
		return nil, err
	}
	return doc.Dataset(), nil
}

// Parse reads delimited text with a header row. Column types are inferred
// from the cells.
func Parse(data []byte, delimiter rune) (*Document, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	doc := &Document{delimiter: delimiter}
	offset := cr.InputOffset()
	doc.header = data[:offset]
	doc.crlf = bytes.HasSuffix(doc.header, []byte("\r\n"))

	var lines []int
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse: %w", err)
		}
		line, _ := cr.FieldPos(0)
		next := cr.InputOffset()
		doc.records = append(doc.records, data[offset:next])
		doc.cells = append(doc.cells, rec)
		lines = append(lines, line)
		offset = next
	}
	doc.tail = data[offset:]

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	cols := make([]dataset.Column, len(header))
	column := make([]string, len(doc.cells))
	for ci, name := range header {
		for ri, rec := range doc.cells {
			column[ri] = rec[ci]
		}
		cols[ci] = dataset.Column{Name: strings.TrimSpace(name), Type: dataset.InferType(column)}
	}

	schema, err := dataset.NewSchema(cols...)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	rows := make([]dataset.Row, len(doc.cells))
	for ri, rec := range doc.cells {
		row := make(dataset.Row, len(cols))
		for ci, col := range cols {
			v, err := dataset.ParseCell(rec[ci], col.Type)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", lines[ri], col.Name, err)
			}
			row[col.Name] = v
		}
		rows[ri] = row
	}

	doc.ds, err = dataset.New(schema, rows)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Dataset returns the parsed rows.
func (d *Document) Dataset() *dataset.Dataset {
	return d.ds
}

// Render writes entries, as produced by an editor started on d's dataset,
// back in d's format. Untouched records are copied byte for byte, edited
// records keep the original text of every cell whose value did not change,
// and inserted records are appended with the document's line ending.
func (d *Document) Render(entries []dataset.Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(d.header)

	cw := csv.NewWriter(&buf)
	cw.Comma = d.delimiter
	cw.UseCRLF = d.crlf

	names := d.ds.Schema().Names()
	record := make([]string, len(names))
	for _, en := range entries {
		d.terminate(&buf)

		if en.Origin >= 0 && !en.Modified {
			buf.Write(d.records[en.Origin])
			continue
		}

		for i, name := range names {
			v := en.Row[name]
			if en.Origin >= 0 && dataset.Equal(v, d.ds.Row(en.Origin)[name]) {
				record[i] = d.cells[en.Origin][i]
			} else {
				record[i] = utils.ToString(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return nil, err
		}
	}

	buf.Write(d.tail)
	return buf.Bytes(), nil
}

// terminate ends the last line in buf if it is still open.
func (d *Document) terminate(buf *bytes.Buffer) {
	b := buf.Bytes()
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return
	}
	if d.crlf {
		buf.WriteString("\r\n")
	} else {
		buf.WriteByte('\n')
	}
}
