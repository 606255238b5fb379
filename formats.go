package csv2iif

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml"
)

var (
	ErrUnknownFormat   = errors.New("unknown format")
	ErrDuplicateFormat = errors.New("format already registered")
)

// DefaultFormat is the format assumed when none is selected.
const DefaultFormat = "usbank_checking"

// Format describes one institution's CSV export: the field role at each
// column position, the account classification used in the IIF header, and
// which roles feed the emitted date, name, and memo fields.
type Format struct {
	Name          string   `toml:"-"`
	Columns       []string `toml:"columns"`
	AccountType   string   `toml:"account_type"`
	CreditAccount bool     `toml:"credit_account"`

	// Role bindings for the emitted record. Any role in Columns may be
	// referenced; unset bindings are resolved by lookupDefaults.
	DateField string `toml:"date_field"`
	NameField string `toml:"name_field"`
	MemoField string `toml:"memo_field"`
}

var formats = map[string]Format{
	"usbank_checking": {
		Name:          "usbank_checking",
		Columns:       []string{"date", "transaction", "name", "memo", "amount"},
		AccountType:   "BANK",
		CreditAccount: false,
		DateField:     "date",
		NameField:     "name",
		MemoField:     "memo",
	},
	"capitalone_credit_card": {
		Name:          "capitalone_credit_card",
		Columns:       []string{"transaction_date", "posted_date", "card_num_last4", "name", "category", "debit", "credit"},
		AccountType:   "CCARD",
		CreditAccount: true,
		DateField:     "transaction_date",
		NameField:     "name",
		MemoField:     "category",
	},
	"chase_credit_card": {
		Name:          "chase_credit_card",
		Columns:       []string{"transaction_date", "posted_date", "name", "category", "transaction", "amount", "memo"},
		AccountType:   "CCARD",
		CreditAccount: true,
		DateField:     "transaction_date",
		NameField:     "name",
		MemoField:     "memo",
	},
}

// LookupFormat returns the registered format for the given identifier.
func LookupFormat(name string) (Format, error) {
	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return f, nil
}

// RegisterFormat adds a format to the registry. Registering a name that is
// already present is an error; institutions are closed configurations, not
// runtime-mutable state.
func RegisterFormat(f Format) error {
	if err := f.validate(); err != nil {
		return err
	}
	if _, ok := formats[f.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFormat, f.Name)
	}
	formats[f.Name] = f
	return nil
}

// Formats returns all registered formats sorted by name.
func Formats() []Format {
	list := make([]Format, 0, len(formats))
	for _, f := range formats {
		list = append(list, f)
	}
	slices.SortFunc(list, func(a, b Format) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list
}

func (f *Format) validate() error {
	if f.Name == "" {
		return errors.New("format name is required")
	}
	if len(f.Columns) == 0 {
		return fmt.Errorf("format %s: no columns", f.Name)
	}
	seen := make(map[string]bool, len(f.Columns))
	for _, role := range f.Columns {
		if role == "" {
			return fmt.Errorf("format %s: empty column role", f.Name)
		}
		if seen[role] {
			return fmt.Errorf("format %s: duplicate role %q", f.Name, role)
		}
		seen[role] = true
	}
	f.lookupDefaults()
	for _, bound := range []string{f.DateField, f.NameField, f.MemoField} {
		if bound != "" && !seen[bound] {
			return fmt.Errorf("format %s: bound role %q is not a column", f.Name, bound)
		}
	}
	if f.AccountType == "" {
		f.AccountType = "BANK"
	}
	return nil
}

// lookupDefaults fills unset role bindings: the first role ending in "date",
// then the conventional name/memo/category roles.
func (f *Format) lookupDefaults() {
	if f.DateField == "" {
		for _, role := range f.Columns {
			if strings.HasSuffix(role, "date") {
				f.DateField = role
				break
			}
		}
	}
	if f.NameField == "" && slices.Contains(f.Columns, "name") {
		f.NameField = "name"
	}
	if f.MemoField == "" {
		if slices.Contains(f.Columns, "memo") {
			f.MemoField = "memo"
		} else if slices.Contains(f.Columns, "category") {
			f.MemoField = "category"
		}
	}
}

type formatFile struct {
	Formats map[string]Format `toml:"formats"`
}

// LoadFormatFile registers every format defined in a TOML file. Each entry
// is a [formats.<name>] table with the same keys as Format.
func LoadFormatFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	var ff formatFile
	if err := toml.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	names := make([]string, 0, len(ff.Formats))
	for name := range ff.Formats {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		f := ff.Formats[name]
		f.Name = name
		if err := RegisterFormat(f); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}
	return nil
}
