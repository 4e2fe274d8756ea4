// Package decoder turns a delimited text stream into typed list rows.
//
// Field values are mapped to columns by position; whatever header text the
// source carries is ignored. The decoder is pull based: callers fetch one row
// at a time with Next, so nothing is read from the source while the caller is
// busy writing the previous rows.
//
// Quotes are read leniently: a quote inside an unquoted field is kept as
// text, so a bare JSON value such as {"a":1} decodes as is. A structured value
// that contains the delimiter still has to be quoted, with inner quotes
// doubled.
package decoder

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cuongbtq/list-import/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder reads rows from a comma-delimited stream
type Decoder struct {
	reader     *csv.Reader
	columns    []domain.ColumnSpec
	skipHeader bool
	err        error
}

// New creates a decoder over r. Columns are matched to fields in slice order.
func New(r io.Reader, columns []domain.ColumnSpec, firstRowIsHeader bool) *Decoder {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	return &Decoder{
		reader:     reader,
		columns:    columns,
		skipHeader: firstRowIsHeader,
	}
}

// Next returns the next non-empty row. It returns io.EOF once the stream is
// exhausted. After any error the decoder is spent and keeps returning it.
func (d *Decoder) Next() (domain.Row, error) {
	if d.err != nil {
		return nil, d.err
	}

	for {
		record, err := d.reader.Read()
		if err != nil {
			d.err = d.wrapReadError(err)
			return nil, d.err
		}

		if d.skipHeader {
			d.skipHeader = false
			continue
		}

		line, _ := d.reader.FieldPos(0)
		row, empty, err := d.decodeRecord(record, line)
		if err != nil {
			d.err = err
			return nil, err
		}
		if empty {
			continue
		}
		return row, nil
	}
}

func (d *Decoder) decodeRecord(record []string, line int) (domain.Row, bool, error) {
	row := make(domain.Row, len(d.columns))
	empty := true

	for i, col := range d.columns {
		var raw string
		if i < len(record) {
			raw = strings.TrimSpace(record[i])
		}
		if raw == "" {
			row[col.Key] = nil
			continue
		}
		empty = false

		value, err := decodeValue(col, raw)
		if err != nil {
			return nil, false, &domain.DecodeError{
				Line:     line,
				Column:   col.Key,
				RawValue: raw,
				Reason:   err.Error(),
			}
		}
		row[col.Key] = value
	}

	return row, empty, nil
}

func decodeValue(col domain.ColumnSpec, raw string) (any, error) {
	if col.Type != domain.ColumnTypeStructured {
		return raw, nil
	}
	if raw[0] != '{' && raw[0] != '[' {
		return raw, nil
	}
	return parseStructured(raw)
}

// parseStructured parses a JSON object or array, keeping numbers exact
func parseStructured(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return value, nil
}

func (d *Decoder) wrapReadError(err error) error {
	if err == io.EOF {
		return io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &domain.DecodeError{
			Line:   parseErr.StartLine,
			Reason: fmt.Sprintf("%s at line %d, byte %d", parseErr.Err, parseErr.Line, parseErr.Column),
		}
	}
	return err
}
