package csv2iif

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLookupFormatUnknown(t *testing.T) {
	_, err := LookupFormat("no_such_bank")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("LookupFormat() error = %v, want %v", err, ErrUnknownFormat)
	}
}

func TestLookupFormatDefaults(t *testing.T) {
	f, err := LookupFormat(DefaultFormat)
	if err != nil {
		t.Fatal(err)
	}
	if f.CreditAccount {
		t.Error("default format must be the bank checking format")
	}
	if len(f.Columns) != 5 {
		t.Errorf("columns = %d, want 5", len(f.Columns))
	}
}

func TestRegisterFormat(t *testing.T) {
	err := RegisterFormat(Format{
		Name:        "test_bank",
		Columns:     []string{"date", "name", "memo", "amount"},
		AccountType: "BANK",
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := LookupFormat("test_bank")
	if err != nil {
		t.Fatal(err)
	}
	if f.DateField != "date" || f.NameField != "name" || f.MemoField != "memo" {
		t.Errorf("role bindings not defaulted: %+v", f)
	}

	if err := RegisterFormat(f); !errors.Is(err, ErrDuplicateFormat) {
		t.Errorf("re-registering error = %v, want %v", err, ErrDuplicateFormat)
	}
}

func TestRegisterFormatInvalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{"no name", Format{Columns: []string{"date", "amount"}}},
		{"no columns", Format{Name: "empty"}},
		{"duplicate role", Format{Name: "dup", Columns: []string{"date", "amount", "amount"}}},
		{"unbound role", Format{Name: "unbound", Columns: []string{"date", "amount"}, NameField: "payee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := RegisterFormat(tt.format); err == nil {
				t.Error("RegisterFormat() succeeded, want error")
			}
		})
	}
}

func TestLoadFormatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.toml")
	data := `
[formats.acme_credit_union]
columns = ["date", "name", "category", "debit", "credit"]
account_type = "BANK"

[formats.acme_card]
columns = ["transaction_date", "name", "amount"]
account_type = "CCARD"
credit_account = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFormatFile(path); err != nil {
		t.Fatal(err)
	}

	cu, err := LookupFormat("acme_credit_union")
	if err != nil {
		t.Fatal(err)
	}
	if cu.CreditAccount || cu.MemoField != "category" {
		t.Errorf("unexpected format: %+v", cu)
	}

	card, err := LookupFormat("acme_card")
	if err != nil {
		t.Fatal(err)
	}
	if !card.CreditAccount || card.DateField != "transaction_date" {
		t.Errorf("unexpected format: %+v", card)
	}
}

func TestLoadFormatFileMissing(t *testing.T) {
	if err := LoadFormatFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFormatFile() succeeded on a missing file")
	}
}
