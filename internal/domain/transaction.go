package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a card transaction.
type TransactionType string

const (
	// TransactionDebit is money spent on the card (negative amount).
	TransactionDebit TransactionType = "DEBIT"
	// TransactionCredit is a payment or refund to the card (zero or positive amount).
	TransactionCredit TransactionType = "CREDIT"
)

// TypeForAmount derives the transaction type from the sign of the amount.
func TypeForAmount(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionDebit
	}
	return TransactionCredit
}

// Transaction represents one normalized statement line.
// Type always agrees with the sign of Amount; build values with NewTransaction.
type Transaction struct {
	Date        civil.Date      // statement posting date
	Description string          // merchant / narration text
	Amount      decimal.Decimal // negative = debit, positive = credit
	Category    string          // one of the category taxonomy names
	Bank        BankID
	Filename    string // source attachment filename
	Type        TransactionType
}

// NewTransaction builds a Transaction and derives its Type from amount.
func NewTransaction(date civil.Date, description string, amount decimal.Decimal, category string, bank BankID, filename string) Transaction {
	return Transaction{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    category,
		Bank:        bank,
		Filename:    filename,
		Type:        TypeForAmount(amount),
	}
}

// Key identifies a transaction for upsert: (bank, date, description, amount).
// Amounts compare by value, so "-10.50" and "-10.5" share a key.
func (t Transaction) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", t.Bank, t.Date, strings.ToUpper(t.Description), t.Amount.String())
}

// Consistent reports whether Type agrees with the sign of Amount.
func (t Transaction) Consistent() bool {
	return t.Type == TypeForAmount(t.Amount)
}

// Equal compares two transactions field by field, amounts by value.
func (t Transaction) Equal(o Transaction) bool {
	return t.Date == o.Date &&
		t.Description == o.Description &&
		t.Amount.Equal(o.Amount) &&
		t.Category == o.Category &&
		t.Bank == o.Bank &&
		t.Filename == o.Filename &&
		t.Type == o.Type
}
