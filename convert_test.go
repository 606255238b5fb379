package csv2iif

import (
	"bytes"
	_ "embed"
	"strings"
	"testing"
	"time"

	"github.com/jtsay362/csv2iif/csv2iif/iif"
)

//go:embed testdata/checking.csv
var checkingCSV []byte

func checkingConfig(t *testing.T) Config {
	t.Helper()
	format, err := LookupFormat("usbank_checking")
	if err != nil {
		t.Fatal(err)
	}
	return Config{Format: format, Account: "Assets:Checking"}
}

func TestConvertChecking(t *testing.T) {
	var out bytes.Buffer
	res, err := Convert(bytes.NewReader(checkingCSV), &out, checkingConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	if res.Converted != 3 {
		t.Errorf("converted = %d, want 3", res.Converted)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(res.Skipped))
	}
	// Failures carry the line and the original row text.
	if res.Skipped[0].Line != 4 || res.Skipped[1].Line != 5 {
		t.Errorf("skipped lines = %d, %d; want 4, 5", res.Skipped[0].Line, res.Skipped[1].Line)
	}
	if !strings.Contains(res.Skipped[0].Error(), "Bad Row") {
		t.Errorf("skip reason does not carry row text: %s", res.Skipped[0].Error())
	}

	got := out.String()
	wantHeader := "!ACCNT\tNAME\tACCNTTYPE\tDESC\tACCNUM\tEXTRA\r\n" +
		"ACCNT\tAssets:Checking\tBANK\r\n" +
		"ACCNT\tBusiness Misc. Expense\tEXP\r\n" +
		"!TRNS\tTRNSTYPE\tDATE\tACCNT\tNAME\tAMOUNT\tMEMO\tCLEAR\r\n" +
		"!SPL\tTRNSTYPE\tDATE\tACCNT\tNAME\tAMOUNT\tMEMO\tCLEAR\r\n" +
		"!ENDTRNS\r\n"
	if !strings.HasPrefix(got, wantHeader) {
		t.Errorf("output header:\n%q\nwant prefix:\n%q", got, wantHeader)
	}

	wantLines := []string{
		"TRNS\tCHECK\t01/05/2023\tAssets:Checking\tCoffee Shop\t-4.50\tLatte\tN\r\n",
		"SPL\tCHECK\t01/05/2023\tBusiness Misc. Expense\tCoffee Shop\t4.50\tLatte\tN\r\n",
		"TRNS\tDEPOSIT\t01/06/2023\tAssets:Checking\tEmployer Inc\t1250.00\tPayroll\tN\r\n",
		"SPL\tDEPOSIT\t01/06/2023\tBusiness Misc. Expense\tEmployer Inc\t-1250.00\tPayroll\tN\r\n",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("output missing line %q", line)
		}
	}
	if strings.Contains(got, "Bad Row") || strings.Contains(got, "not-a-number") {
		t.Error("skipped rows leaked into output")
	}
	if strings.Count(got, "ENDTRNS\r\n")-strings.Count(got, "!ENDTRNS\r\n") != 3 {
		t.Errorf("want 3 ENDTRNS terminators, output:\n%q", got)
	}
}

// Every emitted TRNS line must be balanced by its SPL line.
func TestConvertBalanced(t *testing.T) {
	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(checkingCSV), &out, checkingConfig(t)); err != nil {
		t.Fatal(err)
	}

	file, err := iif.NewDecoder(&out).Decode()
	if err != nil {
		t.Fatal(err)
	}
	var groups int
	for _, b := range file.Blocks {
		transactions, err := iif.DeserializeTransactions(b)
		if err != nil {
			t.Fatal(err)
		}
		for _, tr := range transactions {
			if tr.Tr.TransactionType == "" {
				continue
			}
			groups++
			if len(tr.Splits) != 1 {
				t.Fatalf("want exactly one split, got %d", len(tr.Splits))
			}
			if !tr.Splits[0].Amount.Equal(tr.Tr.Amount.Neg()) {
				t.Errorf("unbalanced pair: %s vs %s", tr.Tr.Amount, tr.Splits[0].Amount)
			}
		}
	}
	if groups != 3 {
		t.Errorf("decoded %d transactions, want 3", groups)
	}
}

func TestConvertDateRange(t *testing.T) {
	cfg := checkingConfig(t)
	cfg.Begin = time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC)
	cfg.End = time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC)

	var out bytes.Buffer
	res, err := Convert(bytes.NewReader(checkingCSV), &out, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 1 {
		t.Errorf("converted = %d, want 1", res.Converted)
	}
	if res.Filtered != 2 {
		t.Errorf("filtered = %d, want 2", res.Filtered)
	}
	if strings.Contains(out.String(), "Coffee Shop") {
		t.Error("row before begin date leaked into output")
	}
}

func TestConvertSplitAccountHook(t *testing.T) {
	cfg := checkingConfig(t)
	cfg.SplitAccount = func(tx *Transaction) string {
		if tx.Name == "Coffee Shop" {
			return "Meals and Entertainment"
		}
		return ""
	}

	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(checkingCSV), &out, cfg); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "SPL\tCHECK\t01/05/2023\tMeals and Entertainment\tCoffee Shop\t4.50\tLatte\tN\r\n") {
		t.Error("predicted split account not used")
	}
	if !strings.Contains(got, "SPL\tDEPOSIT\t01/06/2023\tBusiness Misc. Expense\t") {
		t.Error("fallback offset account not used")
	}
}

func TestConvertNoAccount(t *testing.T) {
	cfg := checkingConfig(t)
	cfg.Account = ""

	var out bytes.Buffer
	if _, err := Convert(bytes.NewReader(checkingCSV), &out, cfg); err == nil {
		t.Fatal("Convert() succeeded without an account name")
	}
	if out.Len() != 0 {
		t.Errorf("output written despite run-level failure: %q", out.String())
	}
}

func TestConvertHeaderOnly(t *testing.T) {
	// An input with only the export header yields a valid, empty document.
	var out bytes.Buffer
	res, err := Convert(strings.NewReader("Date,Transaction,Name,Memo,Amount\n"), &out, checkingConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 0 || len(res.Skipped) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
	if !strings.HasSuffix(out.String(), "!ENDTRNS\r\n") {
		t.Errorf("want header block only, got %q", out.String())
	}
}
