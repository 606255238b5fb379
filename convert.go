// Package csv2iif converts bank and credit card CSV exports into QuickBooks
// IIF files. Each institution's column layout is a registered Format; every
// convertible row becomes a balanced TRNS/SPL pair against an offset
// account.
package csv2iif

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jtsay362/csv2iif/csv2iif/iif"
	"github.com/shopspring/decimal"
)

var ErrNoAccount = errors.New("account name is required")

// DefaultOffsetAccount balances every split when no prediction applies.
const DefaultOffsetAccount = "Business Misc. Expense"

// Config is the configuration bundle for one conversion run.
type Config struct {
	Format  Format
	Account string

	// OffsetAccount defaults to DefaultOffsetAccount.
	OffsetAccount string

	// Scale multiplies every amount; zero means no scaling. Useful for
	// exports denominated in cents.
	Scale decimal.Decimal

	// Begin and End filter rows to a date window when non-zero. Rows
	// without a date always pass.
	Begin, End time.Time

	// SplitAccount optionally picks the split account for a transaction.
	// Returning "" falls back to OffsetAccount.
	SplitAccount func(*Transaction) string
}

// RowError records one skipped row: its line number, the original cells,
// and the underlying cause.
type RowError struct {
	Line int
	Row  []string
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, strings.Join(e.Row, ","))
}

func (e *RowError) Unwrap() error { return e.Err }

// Result summarizes a conversion run. A run with skipped rows is still a
// successful run; every convertible row is in the output.
type Result struct {
	Converted int
	Filtered  int
	Skipped   []*RowError
}

// Convert reads CSV rows from r and writes an IIF document to w. The first
// line is the export's own header and is skipped. Row failures are
// collected in the result and never abort the run; only sink write errors
// do, leaving at most the header block behind.
func Convert(r io.Reader, w io.Writer, cfg Config) (*Result, error) {
	if cfg.Account == "" {
		return nil, ErrNoAccount
	}
	offset := cfg.OffsetAccount
	if offset == "" {
		offset = DefaultOffsetAccount
	}
	scale := cfg.Scale
	if scale.IsZero() {
		scale = decimal.New(1, 0)
	}

	enc := iif.NewEncoder(w)
	if err := enc.WriteHeader(cfg.Account, cfg.Format.AccountType, offset); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	res := &Result{}
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Skipped = append(res.Skipped, &RowError{Line: line, Row: row, Err: err})
			continue
		}
		if line == 1 {
			continue
		}

		tx, terr := transformRow(row, cfg.Format, cfg.Account, scale)
		if terr != nil {
			res.Skipped = append(res.Skipped, &RowError{Line: line, Row: row, Err: terr})
			continue
		}
		if !inRange(tx.Date, cfg.Begin, cfg.End) {
			res.Filtered++
			continue
		}

		split := offset
		if cfg.SplitAccount != nil {
			if s := cfg.SplitAccount(tx); s != "" {
				split = s
			}
		}
		if err := enc.EncodeTransaction(record(tx, split)); err != nil {
			return res, err
		}
		res.Converted++
	}
	return res, nil
}

func inRange(d, begin, end time.Time) bool {
	if d.IsZero() {
		return true
	}
	if !begin.IsZero() && d.Before(begin) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

func record(tx *Transaction, splitAccount string) iif.Transaction {
	return iif.Transaction{
		Tr: iif.Trns{
			TransactionType: tx.Type,
			Date:            tx.Date,
			Account:         tx.Account,
			Name:            tx.Name,
			Amount:          tx.Amount,
			Memo:            tx.Memo,
			Clear:           "N",
		},
		Splits: []iif.Spl{{
			TransactionType: tx.Type,
			Date:            tx.Date,
			Account:         splitAccount,
			Name:            tx.Name,
			Amount:          tx.NegativeAmount(),
			Memo:            tx.Memo,
			Clear:           "N",
		}},
	}
}
