package mail

import (
	"fmt"

	"github.com/dvloznov/statement-sync/internal/bank"
)

// DefaultLookbackDays is the recency window applied to every statement search.
const DefaultLookbackDays = 90

// DefaultQueries returns the search filters for the default bank catalog.
func DefaultQueries() []string {
	return Queries(bank.Catalog, DefaultLookbackDays)
}

// Queries builds one search filter per issuer, in catalog order, followed by
// a generic fallback filter for statements from issuers not in the catalog.
func Queries(catalog []bank.Issuer, lookbackDays int) []string {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	window := fmt.Sprintf("newer_than:%dd", lookbackDays)

	queries := make([]string, 0, len(catalog)+1)
	for _, issuer := range catalog {
		queries = append(queries, fmt.Sprintf("from:%s subject:(statement) %s has:attachment", issuer.SenderDomain, window))
	}
	queries = append(queries, fmt.Sprintf("subject:(credit card statement) %s has:attachment", window))
	return queries
}
