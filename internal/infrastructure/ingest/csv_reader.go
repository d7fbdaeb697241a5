// Package usagecsv streams usage CSV files into domain rows. It detects and
// strips a UTF-8 BOM, rejects non-UTF-8 input and tolerates ragged rows,
// leaving per-field validation to the domain validator.
package usagecsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tejit/billing/internal/domain/ingest"
)

var (
	// ErrEmptyFile is returned when the usage file has no content
	ErrEmptyFile = errors.New("usage file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("usage file is not valid UTF-8")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("usage file missing header row")
)

// Reader streams a usage CSV source row by row. It never buffers the whole
// file, so arbitrarily large imports run in constant memory.
type Reader struct {
	delimiter  rune
	lazyQuotes bool
	headers    []string
	headerMap  map[string]int
	currentRow int
	dataRows   int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// Option is a functional option for Reader configuration
type Option func(*Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		r.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) Option {
	return func(r *Reader) {
		r.lazyQuotes = lazy
	}
}

// NewReader creates a streaming reader over a usage CSV source.
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{
		delimiter:  ',',
		lazyQuotes: true,
		headerMap:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.bufReader = bufio.NewReader(src)

	// Detect and strip UTF-8 BOM (0xEF 0xBB 0xBF).
	head, err := r.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read usage file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = r.bufReader.Discard(3)
	}

	if err := validateUTF8(r.bufReader); err != nil {
		return nil, err
	}

	r.reader = csv.NewReader(r.bufReader)
	r.reader.Comma = r.delimiter
	r.reader.LazyQuotes = r.lazyQuotes
	r.reader.TrimLeadingSpace = true
	r.reader.FieldsPerRecord = -1 // short and long rows are a row-level concern

	return r, nil
}

// validateUTF8 checks the leading window of the stream for valid UTF-8.
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read usage file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}

	// Ignore a rune truncated by the window boundary.
	end := len(content)
	if end == checkSize {
		for end > 0 && end > checkSize-utf8.UTFMax {
			if r, _ := utf8.DecodeLastRune(content[:end]); r != utf8.RuneError {
				break
			}
			end--
		}
	}
	if !utf8.Valid(content[:end]) {
		return ErrInvalidEncoding
	}
	return nil
}

// ReadHeader reads and indexes the header row. Header names are trimmed and
// lower-cased so "Cost", "cost" and " COST " all bind the same column.
func (r *Reader) ReadHeader() error {
	record, err := r.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	r.headers = make([]string, len(record))
	for i, h := range record {
		header := strings.ToLower(strings.TrimSpace(h))
		r.headers[i] = header
		r.headerMap[header] = i
	}
	if len(r.headers) == 0 {
		return ErrMissingHeader
	}

	r.currentRow = 1 // header is line 1

	return nil
}

// Headers returns the parsed header names
func (r *Reader) Headers() []string {
	return r.headers
}

// HasHeader checks if a header exists
func (r *Reader) HasHeader(name string) bool {
	_, ok := r.headerMap[name]
	return ok
}

// MissingHeaders returns the required headers absent from the file.
func (r *Reader) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !r.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// ReadRow reads the next data row. It returns io.EOF at end of stream and a
// non-nil error for rows the csv layer itself cannot parse; such rows still
// advance the line counter so later diagnostics stay accurate.
func (r *Reader) ReadRow() (ingest.Row, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return ingest.Row{}, io.EOF
	}
	r.currentRow++
	if err != nil {
		return ingest.Row{Line: r.currentRow}, fmt.Errorf("error reading row %d: %w", r.currentRow, err)
	}
	r.dataRows++

	row := ingest.Row{
		Line:   r.currentRow,
		Fields: make(map[string]string, len(r.headers)),
	}
	for i, header := range r.headers {
		if i < len(record) {
			row.Fields[header] = strings.TrimSpace(record[i])
		} else {
			row.Fields[header] = ""
		}
	}
	return row, nil
}

// CurrentRow returns the current line number (1-indexed, header included)
func (r *Reader) CurrentRow() int {
	return r.currentRow
}

// DataRows returns the number of data rows successfully read so far
func (r *Reader) DataRows() int {
	return r.dataRows
}
