/*
Package csvio reads transaction records from CSV and writes snapshots as CSV.

INPUT FORMAT:
  type, client, tx, amount
  deposit, 1, 1, 1.0
  withdrawal, 1, 4, 1.5
  dispute, 1, 1,

  - First row is a header; columns are located by name
  - Whitespace around fields is ignored
  - Rows may omit trailing columns (amount defaults to zero)
  - Empty lines are skipped; a row of bare separators (" , , ,") is a
    missing type and ends the stream like any other malformed row

ERRORS:
  Any structural problem (unknown type, bad integer, out-of-range client or
  tx, negative amount) is a *ParseError and ends the stream. The ledger
  never sees malformed rows.

SEE ALSO:
  - writer.go: Snapshot output
  - bank/ledger.go: Source interface consumed by Ledger.Process
*/
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/warp/payments-engine/bank"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// ParseError reports a malformed row.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader is a bank.Source over CSV input.
type Reader struct {
	r       *csv.Reader
	columns map[string]int
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{r: cr}
}

// Next returns the next record, or io.EOF at the end of input.
func (r *Reader) Next() (bank.Record, error) {
	if r.columns == nil {
		if err := r.readHeader(); err != nil {
			return bank.Record{}, err
		}
	}

	row, err := r.r.Read()
	if err != nil {
		return bank.Record{}, r.wrap(err)
	}
	line, _ := r.r.FieldPos(0)
	return r.parse(line, row)
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]bank.Record, error) {
	var out []bank.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func (r *Reader) readHeader() error {
	row, err := r.r.Read()
	if err != nil {
		return r.wrap(err)
	}
	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"type", "client", "tx"} {
		if _, ok := cols[name]; !ok {
			return &ParseError{Line: 1, Field: name, Err: ErrMissingColumn}
		}
	}
	r.columns = cols
	return nil
}

func (r *Reader) parse(line int, row []string) (bank.Record, error) {
	var rec bank.Record

	kind, err := bank.ParseKind(r.field(row, "type"))
	if err != nil {
		return rec, &ParseError{Line: line, Field: "type", Err: err}
	}
	client, err := strconv.ParseUint(r.field(row, "client"), 10, 16)
	if err != nil {
		return rec, &ParseError{Line: line, Field: "client", Err: err}
	}
	tx, err := strconv.ParseUint(r.field(row, "tx"), 10, 32)
	if err != nil {
		return rec, &ParseError{Line: line, Field: "tx", Err: err}
	}
	amount, err := bank.ParseAmount(r.field(row, "amount"))
	if err != nil {
		return rec, &ParseError{Line: line, Field: "amount", Err: err}
	}

	rec = bank.Record{
		Kind:   kind,
		Client: bank.ClientID(client),
		Tx:     bank.TxID(tx),
		Amount: amount,
	}
	return rec, nil
}

// field returns the trimmed value of a named column, "" if the row is short.
func (r *Reader) field(row []string, name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (r *Reader) wrap(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return err
}
