package csv2iif

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction type labels. The label is a pure function of the account kind
// and the sign of the normalized amount.
const (
	TypeCheck      = "CHECK"
	TypeDeposit    = "DEPOSIT"
	TypeCreditCard = "CREDIT CARD"
	TypeCCCredit   = "CC CREDIT"
)

// Transaction is one normalized row, ready for emission. The amount is
// sign-normalized to the bank-account convention: negative means money
// leaving the user's control, for credit card charges too.
type Transaction struct {
	Type    string
	Date    time.Time // zero when the date cell was empty
	Account string
	Name    string
	Memo    string
	Amount  decimal.Decimal

	// Fields holds every resolved role by name, date roles in canonical
	// form. Empty cells are present as empty strings.
	Fields map[string]string
}

// NegativeAmount is the arithmetic negation of Amount, balancing the
// mirrored split line.
func (t *Transaction) NegativeAmount() decimal.Decimal {
	return t.Amount.Neg()
}

// Field returns the resolved value of a role by name.
func (t *Transaction) Field(role string) string {
	return t.Fields[role]
}

// transformRow resolves one raw CSV row against a format's schema. Any
// field extraction, numeric parse, or date parse failure is returned as an
// error; callers treat it as per-row and non-fatal.
//
// An empty date cell is kept (zero date), not failed: real exports carry
// non-transaction rows with blank dates. A non-empty date matching neither
// recognized pattern fails the row.
func transformRow(row []string, f Format, account string, scale decimal.Decimal) (*Transaction, error) {
	if len(row) < len(f.Columns) {
		return nil, fmt.Errorf("row has %d fields, format %s expects %d", len(row), f.Name, len(f.Columns))
	}

	tx := &Transaction{
		Account: account,
		Fields:  make(map[string]string, len(f.Columns)),
	}

	// Exactly one of the amount role or the debit/credit pair supplies the
	// signed amount. Rows with no monetary column populated convert with a
	// zero amount.
	amount := decimal.Zero

	for i, role := range f.Columns {
		cell := strings.TrimSpace(row[i])
		switch {
		case role == "amount":
			if cell == "" {
				continue
			}
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("amount %q: %w", cell, err)
			}
			// A credit card charge is exported positive; flip so it lines
			// up with a checking debit.
			if f.CreditAccount {
				d = d.Neg()
			}
			amount = d
		case strings.HasSuffix(role, "date"):
			if cell == "" {
				tx.Fields[role] = ""
				continue
			}
			d, err := parseDate(cell)
			if err != nil {
				return nil, err
			}
			tx.Fields[role] = d.Format(DateLayout)
			if role == f.DateField {
				tx.Date = d
			}
		case role == "debit" && cell != "":
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("debit %q: %w", cell, err)
			}
			amount = d.Neg()
		case role == "credit" && cell != "":
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("credit %q: %w", cell, err)
			}
			amount = d
		default:
			tx.Fields[role] = cell
		}
	}

	tx.Amount = amount.Mul(scale)
	tx.Type = transactionType(f.CreditAccount, tx.Amount)
	tx.Name = tx.Fields[f.NameField]
	tx.Memo = tx.Fields[f.MemoField]
	return tx, nil
}

func transactionType(creditAccount bool, amount decimal.Decimal) string {
	if creditAccount {
		if amount.Sign() > 0 {
			return TypeCCCredit
		}
		return TypeCreditCard
	}
	if amount.Sign() < 0 {
		return TypeCheck
	}
	return TypeDeposit
}
