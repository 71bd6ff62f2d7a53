package gazetteer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRow indicates a row with the wrong shape.
	ErrMalformedRow = errors.New("malformed row")

	// ErrDanglingReference indicates a row referencing an area that was not loaded.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrDuplicateArea indicates two areas sharing the same id.
	ErrDuplicateArea = errors.New("duplicate area id")
)

// RowError is the error returned when a row cannot be loaded.
type RowError struct {
	// File is the kind of file (e.g. "countries").
	File string

	// Line is the 1-based line number.
	Line int

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *RowError) Error() string {
	return fmt.Sprintf("gazetteer: %s:%d: %s", e.File, e.Line, e.Err.Error())
}

// Unwrap allows using errors.Is and errors.As.
func (e *RowError) Unwrap() error {
	return e.Err
}

// maxLineSize bounds the length of a single row. Rows of the populated
// places table carry every alternate name and may be long.
const maxLineSize = 16 << 20

// tabReader iterates over the tab-separated rows of a dump file.
type tabReader struct {
	file      string
	minFields int
	scanner   *bufio.Scanner
	line      int
	fields    []string
}

// newTabReader creates a new tabReader for rows having at least minFields.
func newTabReader(file string, r io.Reader, minFields int) *tabReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLineSize)
	return &tabReader{file: file, minFields: minFields, scanner: scanner}
}

// next advances to the next non-blank row. It returns false at EOF or
// on error, in which case err returns the error.
func (tr *tabReader) next() bool {
	for tr.scanner.Scan() {
		tr.line++
		text := strings.TrimRight(tr.scanner.Text(), "\r")
		if text == "" {
			continue
		}
		tr.fields = strings.Split(text, "\t")
		return true
	}
	return false
}

// err returns the error that stopped the iteration, if any.
func (tr *tabReader) err() error {
	if err := tr.scanner.Err(); err != nil {
		return &RowError{File: tr.file, Line: tr.line + 1, Err: err}
	}
	return nil
}

// comment returns whether the current row is a comment.
func (tr *tabReader) comment() bool {
	return strings.HasPrefix(tr.fields[0], "#")
}

// check returns an error if the current row is too short.
func (tr *tabReader) check() error {
	if len(tr.fields) < tr.minFields {
		return tr.errorf(ErrMalformedRow, "expected at least %d fields, found %d",
			tr.minFields, len(tr.fields))
	}
	return nil
}

// id parses the field at idx as an area id.
func (tr *tabReader) id(idx int) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(tr.fields[idx]), 10, 64)
	if err != nil {
		return 0, tr.errorf(ErrMalformedRow, "field %d: invalid id %q", idx, tr.fields[idx])
	}
	return value, nil
}

// float parses the field at idx as a float64.
func (tr *tabReader) float(idx int) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(tr.fields[idx]), 64)
	if err != nil {
		return 0, tr.errorf(ErrMalformedRow, "field %d: invalid number %q", idx, tr.fields[idx])
	}
	return value, nil
}

// errorf returns a *RowError for the current row wrapping kind.
func (tr *tabReader) errorf(kind error, format string, v ...interface{}) error {
	return &RowError{
		File: tr.file,
		Line: tr.line,
		Err:  fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, v...)),
	}
}
