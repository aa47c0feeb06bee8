package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// CSV PARSER — Upload bytes → Dataset
// ============================================================================
// The first record is the header. Data rows may be shorter than the header
// (padded with missing cells) but never longer. Any failure is returned as a
// *ParseError so callers can stop processing the upload.
// ============================================================================

var (
	// ErrEmpty indicates the upload contained no header.
	ErrEmpty = errors.New("no columns to parse from file")
	// ErrEncoding indicates the upload is not valid UTF-8 text.
	ErrEncoding = errors.New("file is not valid UTF-8 text")
	// ErrRowWidth indicates a data row has more fields than the header.
	ErrRowWidth = errors.New("row has more fields than the header")
)

// ParseError is a ParseFailure: the upload could not be decoded into a
// Dataset. Line is 1-based and zero when unknown.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error reading %q (line %d): %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("error reading %q: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseFailure reports whether err is (or wraps) a *ParseError.
func IsParseFailure(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse picks the parser from the file extension: .xlsx uploads go to
// ParseXLSX, everything else is read as CSV.
func Parse(name string, data []byte) (*Dataset, error) {
	if strings.EqualFold(path.Ext(name), ".xlsx") {
		return ParseXLSX(name, data)
	}
	return ParseCSV(name, data)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses CSV bytes into a Dataset named after the uploaded file.
func ParseCSV(name string, data []byte) (*Dataset, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{File: name, Err: ErrEmpty}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{File: name, Err: ErrEncoding}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{File: name, Line: csvLine(err), Err: unwrapCSV(err)}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{File: name, Line: csvLine(err), Err: unwrapCSV(err)}
		}
		if len(row) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				File: name,
				Line: line,
				Err:  fmt.Errorf("%w: expected %d, saw %d", ErrRowWidth, len(header), len(row)),
			}
		}
		rows = append(rows, row)
	}

	return New(name, NormalizeHeader(header), rows), nil
}

// NormalizeHeader trims header cells, names blank cells "Unnamed: i" and
// disambiguates duplicates as "name.1", "name.2", ...
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[h]; dup {
			base := h
			for {
				seen[base]++
				h = fmt.Sprintf("%s.%d", base, seen[base])
				if _, taken := seen[h]; !taken {
					break
				}
			}
		}
		seen[h] = 0
		out[i] = h
	}
	return out
}

func csvLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

func unwrapCSV(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err
	}
	return err
}
