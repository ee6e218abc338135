package domain

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestTypeForAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   TransactionType
	}{
		{"-0.01", TransactionDebit},
		{"-1299.00", TransactionDebit},
		{"0", TransactionCredit},
		{"5000.00", TransactionCredit},
	}
	for _, tt := range tests {
		if got := TypeForAmount(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("TypeForAmount(%s) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestNewTransaction(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 31}
	tx := NewTransaction(date, "  SWIGGY BANGALORE ", decimal.RequireFromString("-485.50"), "Food & Dining", BankSBI, "s.pdf")

	if tx.Description != "SWIGGY BANGALORE" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.Type != TransactionDebit || !tx.Consistent() {
		t.Errorf("Type = %s, Consistent = %v", tx.Type, tx.Consistent())
	}

	tx.Type = TransactionCredit
	if tx.Consistent() {
		t.Error("credit with negative amount should be inconsistent")
	}
}

func TestTransaction_Key(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 2, Day: 3}
	a := NewTransaction(date, "Uber Trip", decimal.RequireFromString("-280.30"), "Transportation", BankHDFC, "a.pdf")
	b := NewTransaction(date, "UBER TRIP", decimal.RequireFromString("-280.3"), "Uncategorized", BankHDFC, "b.pdf")
	c := NewTransaction(date, "UBER TRIP", decimal.RequireFromString("-280.3"), "Transportation", BankSBI, "a.pdf")

	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Error("different banks should not share a key")
	}
	if a.Equal(b) {
		t.Error("Equal should compare every field")
	}
	if !a.Equal(a) {
		t.Error("a transaction should equal itself")
	}
}

func TestParseBankID(t *testing.T) {
	tests := map[string]BankID{
		"SBI":   BankSBI,
		" hdfc": BankHDFC,
		"Axis":  BankAxis,
		"scb":   BankSCB,
		"ICICI": BankUnknown,
		"":      BankUnknown,
	}
	for in, want := range tests {
		if got := ParseBankID(in); got != want {
			t.Errorf("ParseBankID(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSyncResult(t *testing.T) {
	var r SyncResult
	r.AddBank(BankSBI)
	r.AddBank(BankHDFC)
	r.AddBank(BankSBI)
	if len(r.BanksProcessed) != 2 || r.BanksProcessed[0] != BankSBI || r.BanksProcessed[1] != BankHDFC {
		t.Errorf("BanksProcessed = %v", r.BanksProcessed)
	}

	r.AddError(nil)
	r.AddError(errors.New("first"))
	r.AddError(errors.New("second"))
	if len(r.Errors) != 2 || r.Errors[0] != "first" {
		t.Errorf("Errors = %v", r.Errors)
	}

	r.EmailsFound, r.PDFsDownloaded, r.TransactionsParsed, r.NewTransactions = 3, 2, 9, 4
	r.Success = true
	r.Abort(errors.New("credentials missing"))
	if r.Success || r.Error != "credentials missing" {
		t.Errorf("after Abort: Success=%v Error=%q", r.Success, r.Error)
	}
	if r.EmailsFound+r.PDFsDownloaded+r.TransactionsParsed+r.NewTransactions != 0 {
		t.Errorf("counters not zeroed: %+v", r)
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  error
		want string
	}{
		{&QueryError{Query: "from:sbicard.com", Err: cause}, `search error for query "from:sbicard.com": boom`},
		{&FetchError{MessageID: "m1", Err: cause}, "message fetch error for m1: boom"},
		{&FetchError{MessageID: "m1", AttachmentID: "a1", Err: cause}, "attachment fetch error for message m1: boom"},
		{&ParseError{Bank: BankAxis, Filename: "x.pdf", Err: cause}, "PDF processing error for x.pdf (AXIS): boom"},
		{&StoreError{Op: "save", Err: cause}, "save error: boom"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
		if !errors.Is(tt.err, cause) {
			t.Errorf("%T does not unwrap to its cause", tt.err)
		}
	}

	wrapped := &FetchError{MessageID: "m2", Err: ErrNotFound}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("FetchError should match ErrNotFound")
	}
}
