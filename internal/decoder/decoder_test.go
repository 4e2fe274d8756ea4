package decoder

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []domain.ColumnSpec{
	{Name: "Name", Key: "name", Type: domain.ColumnTypeText, Order: 1},
	{Name: "Email", Key: "email", Type: domain.ColumnTypeText, Order: 0},
	{Name: "Meta", Key: "meta", Type: domain.ColumnTypeStructured, Order: 2},
}

func readAll(t *testing.T, d *Decoder) ([]domain.Row, error) {
	t.Helper()

	var rows []domain.Row
	for {
		row, err := d.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

func TestDecoder_PositionalMapping(t *testing.T) {
	input := "Full Name,E-Mail Address,Extra\nalice,alice@example.com,plain\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, true))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, domain.Row{
		"name":  "alice",
		"email": "alice@example.com",
		"meta":  "plain",
	}, rows[0])
}

func TestDecoder_HeaderHandling(t *testing.T) {
	input := "bob,bob@example.com,\ncarol,carol@example.com,\n"

	t.Run("first record discarded even when it looks like data", func(t *testing.T) {
		rows, err := readAll(t, New(strings.NewReader(input), testColumns, true))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "carol", rows[0]["name"])
	})

	t.Run("no header keeps every record", func(t *testing.T) {
		rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "bob", rows[0]["name"])
	})
}

func TestDecoder_TrimsAndNullsEmptyValues(t *testing.T) {
	input := "  dave  ,   ,\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "dave", rows[0]["name"])
	assert.Nil(t, rows[0]["email"])
	assert.Nil(t, rows[0]["meta"])
	assert.Contains(t, rows[0], "email")
}

func TestDecoder_SkipsBlankRecords(t *testing.T) {
	input := "erin,erin@example.com,\n,,\n  ,\t, \n\nfrank,,\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "erin", rows[0]["name"])
	assert.Equal(t, "frank", rows[1]["name"])
}

func TestDecoder_ShortAndLongRecords(t *testing.T) {
	input := "gina\nhank,hank@example.com,x,ignored,also-ignored\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.Row{"name": "gina", "email": nil, "meta": nil}, rows[0])
	assert.Equal(t, domain.Row{"name": "hank", "email": "hank@example.com", "meta": "x"}, rows[1])
}

func TestDecoder_StructuredColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "object with surrounding whitespace",
			input: `a,b,"  {""a"":1}  "` + "\n",
			want:  map[string]any{"a": json.Number("1")},
		},
		{
			name:  "array",
			input: `a,b,"[1,""two"",null]"` + "\n",
			want:  []any{json.Number("1"), "two", nil},
		},
		{
			name:  "plain text kept verbatim",
			input: "a,b,not-json\n",
			want:  "not-json",
		},
		{
			name:  "number-like text kept as string",
			input: "a,b,42\n",
			want:  "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := readAll(t, New(strings.NewReader(tt.input), testColumns, false))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0]["meta"])
		})
	}
}

func TestDecoder_TextColumnNeverParsesJSON(t *testing.T) {
	input := `"{""a"":1}",b,` + "\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `{"a":1}`, rows[0]["name"])
}

func TestDecoder_MalformedStructuredValueIsFatal(t *testing.T) {
	input := "ivan,ivan@example.com,\njudy,judy@example.com,{bad json\nkate,kate@example.com,\n"

	d := New(strings.NewReader(input), testColumns, false)
	rows, err := readAll(t, d)

	require.Error(t, err)
	assert.Len(t, rows, 1)

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "meta", decodeErr.Column)
	assert.Equal(t, "{bad json", decodeErr.RawValue)
	assert.Equal(t, 2, decodeErr.Line)

	// the decoder stays failed
	_, err = d.Next()
	assert.Same(t, decodeErr, err)
}

func TestDecoder_TrailingDataAfterStructuredValue(t *testing.T) {
	input := `a,b,"{""a"":1} trailing"` + "\n"

	_, err := readAll(t, New(strings.NewReader(input), testColumns, false))

	var decodeErr *domain.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "meta", decodeErr.Column)
}

func TestDecoder_LenientQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Row
	}{
		{
			name:  "bare object with padding",
			input: "mia,mia@example.com,  {\"a\":1}  \n",
			expected: domain.Row{
				"name":  "mia",
				"email": "mia@example.com",
				"meta":  map[string]any{"a": json.Number("1")},
			},
		},
		{
			name:  "bare array",
			input: "mia,mia@example.com,[\"x\",2]\n",
			expected: domain.Row{
				"name":  "mia",
				"email": "mia@example.com",
				"meta":  []any{"x", json.Number("2")},
			},
		},
		{
			name:  "quoted object with delimiter",
			input: "mia,mia@example.com,\"{\"\"a\"\":1,\"\"b\"\":2}\"\n",
			expected: domain.Row{
				"name":  "mia",
				"email": "mia@example.com",
				"meta":  map[string]any{"a": json.Number("1"), "b": json.Number("2")},
			},
		},
		{
			name:  "stray quote in text",
			input: "5\" tall,mia@example.com,\n",
			expected: domain.Row{
				"name":  "5\" tall",
				"email": "mia@example.com",
				"meta":  nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := readAll(t, New(strings.NewReader(tt.input), testColumns, false))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.expected, rows[0])
		})
	}
}

func TestDecoder_WrapReadError(t *testing.T) {
	readErr := errors.New("connection reset by peer")

	tests := []struct {
		name       string
		err        error
		wantDecode *domain.DecodeError
		wantErr    error
	}{
		{
			name: "parse error keeps position",
			err:  &csv.ParseError{StartLine: 3, Line: 4, Column: 7, Err: csv.ErrQuote},
			wantDecode: &domain.DecodeError{
				Line:   3,
				Reason: csv.ErrQuote.Error() + " at line 4, byte 7",
			},
		},
		{
			name:    "end of stream",
			err:     io.EOF,
			wantErr: io.EOF,
		},
		{
			name:    "read failure passes through",
			err:     readErr,
			wantErr: readErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(strings.NewReader(""), testColumns, false)
			err := d.wrapReadError(tt.err)

			if tt.wantDecode != nil {
				var decodeErr *domain.DecodeError
				require.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, tt.wantDecode, decodeErr)
				return
			}
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestDecoder_StripsBOM(t *testing.T) {
	input := string(utf8BOM) + "lena,lena@example.com,\n"

	rows, err := readAll(t, New(strings.NewReader(input), testColumns, false))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "lena", rows[0]["name"])
}

func TestDecoder_EmptyInput(t *testing.T) {
	rows, err := readAll(t, New(strings.NewReader(""), testColumns, true))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecoder_PropagatesSourceErrors(t *testing.T) {
	_, err := New(failingReader{err: domain.ErrObjectTooLarge}, testColumns, false).Next()
	assert.ErrorIs(t, err, domain.ErrObjectTooLarge)
}
