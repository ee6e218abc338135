// Package bank holds the catalog of supported card issuers and maps
// statement senders onto them.
package bank

import (
	"strings"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// Issuer describes one supported card issuer.
type Issuer struct {
	ID   domain.BankID
	Name string

	// SenderDomain is used in mail search filters.
	SenderDomain string

	// SenderMarker is the lower-case substring that identifies the issuer
	// in a sender address.
	SenderMarker string
}

// Catalog lists the supported issuers in classification priority order.
var Catalog = []Issuer{
	{ID: domain.BankSBI, Name: "SBI Card", SenderDomain: "sbicard.com", SenderMarker: "sbicard"},
	{ID: domain.BankHDFC, Name: "HDFC Bank", SenderDomain: "hdfcbank.net", SenderMarker: "hdfcbank"},
	{ID: domain.BankAxis, Name: "Axis Bank", SenderDomain: "axisbank.com", SenderMarker: "axisbank"},
	{ID: domain.BankSCB, Name: "Standard Chartered", SenderDomain: "sc.com", SenderMarker: "sc.com"},
}

// Classify maps a sender address to a bank using the default catalog.
func Classify(sender string) domain.BankID {
	return ClassifyWith(Catalog, sender)
}

// ClassifyWith maps a sender address to the first issuer in catalog whose
// marker occurs in it. Unmatched senders are UNKNOWN.
func ClassifyWith(catalog []Issuer, sender string) domain.BankID {
	lower := strings.ToLower(sender)
	for _, issuer := range catalog {
		if issuer.SenderMarker != "" && strings.Contains(lower, issuer.SenderMarker) {
			return issuer.ID
		}
	}
	return domain.BankUnknown
}

// Lookup returns the catalog entry for id.
func Lookup(id domain.BankID) (Issuer, bool) {
	for _, issuer := range Catalog {
		if issuer.ID == id {
			return issuer, true
		}
	}
	return Issuer{}, false
}
