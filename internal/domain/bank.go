package domain

import "strings"

// BankID identifies the card issuer of a statement.
type BankID string

const (
	BankSBI     BankID = "SBI"
	BankHDFC    BankID = "HDFC"
	BankAxis    BankID = "AXIS"
	BankSCB     BankID = "SCB"
	BankUnknown BankID = "UNKNOWN"
)

// ParseBankID maps a configuration or CLI value onto a BankID.
// Anything unrecognized is UNKNOWN.
func ParseBankID(s string) BankID {
	switch id := BankID(strings.ToUpper(strings.TrimSpace(s))); id {
	case BankSBI, BankHDFC, BankAxis, BankSCB:
		return id
	default:
		return BankUnknown
	}
}
