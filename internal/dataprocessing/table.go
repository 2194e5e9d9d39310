package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is the untyped feed: a header and rows of strings, all rows
// padded to the header width.
type RawTable struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewRawTable builds a table, trimming header names and padding or
// truncating rows to the header width.
func NewRawTable(header []string, rows [][]string) *RawTable {
	t := &RawTable{
		Header: make([]string, len(header)),
		Rows:   make([][]string, 0, len(rows)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		t.Header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, rectify(row, len(header)))
	}
	return t
}

// rectify pads short rows with blanks and drops cells past width.
func rectify(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// ColumnIndex returns the position of a header column.
func (t *RawTable) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[strings.ToUpper(name)]
	return i, ok
}

// Len returns the number of data rows.
func (t *RawTable) Len() int { return len(t.Rows) }

// ReadTable reads a UTF-8 feed file, choosing the parser from the extension.
func ReadTable(path string) (*RawTable, error) {
	return ReadTableWithEncoding(path, "")
}

// ReadTableWithEncoding reads a feed file whose CSV text is in the named
// character encoding (a WHATWG label such as "windows-1252"). Workbooks
// carry their own encoding and ignore it.
func ReadTableWithEncoding(path, encoding string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		r, err := DecodeReader(f, encoding)
		if err != nil {
			return nil, err
		}
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported feed format %q", filepath.Ext(path))
	}
}

// DecodeReader wraps r so it yields UTF-8. An empty name or any UTF-8
// label returns r unchanged.
func DecodeReader(r io.Reader, name string) (io.Reader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown feed encoding %q: %w", name, err)
	}
	return enc.NewDecoder().Reader(r), nil
}

// ReadCSV parses a CSV feed with a header row. A leading UTF-8 BOM is
// skipped and ragged rows are rectified.
func ReadCSV(r io.Reader) (*RawTable, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file appears to be empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	slog.Debug("Read CSV feed",
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)))

	return NewRawTable(header, rows), nil
}

// ReadXLSX reads the first sheet of a workbook; the first non-empty row is
// the header.
func ReadXLSX(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	headerRow := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(strings.Join(row, "")) != "" {
			headerRow = i
			break
		}
	}
	if headerRow == -1 {
		return nil, fmt.Errorf("sheet %s appears to be empty", sheets[0])
	}

	slog.Debug("Read XLSX feed",
		slog.String("sheet_name", sheets[0]),
		slog.Int("header_row", headerRow),
		slog.Int("rows", len(rows)-headerRow-1))

	return NewRawTable(rows[headerRow], rows[headerRow+1:]), nil
}
