// Package stream reads the CSV event stream and writes the terminal
// account snapshots. The core engine never sees file formats; it only
// exchanges domain.Event and domain.Snapshot values with this package.
package stream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/flejz/tx-cli/internal/domain"
)

// amountPlaces is the fixed number of decimal places amounts are
// normalized to; extra digits are truncated toward zero on ingest.
const amountPlaces = 4

// Reader parses CSV rows of the form `type,client,tx,amount` into
// events. The amount column may be empty or missing for dispute,
// resolve and chargeback rows.
type Reader struct {
	csv  *csv.Reader
	line int
}

// NewReader wraps r. The first row must be the header.
func NewReader(r io.Reader) *Reader {
	c := csv.NewReader(r)
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true
	return &Reader{csv: c}
}

// Read returns the next event. It returns io.EOF at end of stream and
// a row error for malformed rows; the caller decides whether to skip
// the row and keep reading.
func (r *Reader) Read() (domain.Event, error) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return domain.Event{}, io.EOF
		}
		if err != nil {
			return domain.Event{}, errors.Wrap(err, "read csv row")
		}

		r.line++
		if r.line == 1 && isHeader(record) {
			continue
		}

		event, err := parseRecord(record)
		if err != nil {
			return domain.Event{}, errors.Wrapf(err, "row %d", r.line)
		}
		return event, nil
	}
}

// ReadAll drains the stream, forwarding each parsed event to emit.
// Malformed rows are reported through onError and skipped; only a
// transport-level failure stops the read.
func (r *Reader) ReadAll(emit func(domain.Event), onError func(error)) error {
	for {
		event, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) || isRowError(err) {
				onError(err)
				continue
			}
			return err
		}
		emit(event)
	}
}

type rowError struct{ cause error }

func (e *rowError) Error() string { return e.cause.Error() }
func (e *rowError) Unwrap() error { return e.cause }

func isRowError(err error) bool {
	var re *rowError
	return errors.As(err, &re)
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "type")
}

func parseRecord(record []string) (domain.Event, error) {
	if len(record) < 3 {
		return domain.Event{}, &rowError{fmt.Errorf("expected at least 3 columns, got %d", len(record))}
	}

	kind, err := domain.ParseKind(strings.TrimSpace(record[0]))
	if err != nil {
		return domain.Event{}, &rowError{err}
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return domain.Event{}, &rowError{errors.Wrap(err, "parse client id")}
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return domain.Event{}, &rowError{errors.Wrap(err, "parse tx id")}
	}

	if !kind.Monetary() {
		// amount column is ignored for referencing kinds even
		// when present.
		return domain.NewReferenceEvent(kind, domain.ClientID(client), domain.TxID(tx)), nil
	}

	if len(record) < 4 || strings.TrimSpace(record[3]) == "" {
		return domain.Event{}, &rowError{fmt.Errorf("%s requires an amount", kind)}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return domain.Event{}, &rowError{errors.Wrap(err, "parse amount")}
	}

	return domain.NewMonetaryEvent(kind, domain.ClientID(client), domain.TxID(tx), amount.RoundDown(amountPlaces)), nil
}
