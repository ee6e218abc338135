package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a message or attachment no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied is returned when the mail account refuses access.
	ErrAccessDenied = errors.New("access denied")
	// ErrNoTransactions is returned by parsers that found nothing in a statement.
	ErrNoTransactions = errors.New("no transactions found")
)

// QueryError reports a failed mail search.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("search error for query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// FetchError reports a failed message or attachment retrieval.
type FetchError struct {
	MessageID    string
	AttachmentID string // empty for message fetches
	Err          error
}

func (e *FetchError) Error() string {
	if e.AttachmentID != "" {
		return fmt.Sprintf("attachment fetch error for message %s: %v", e.MessageID, e.Err)
	}
	return fmt.Sprintf("message fetch error for %s: %v", e.MessageID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a statement that could not be turned into transactions.
type ParseError struct {
	Bank     BankID
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PDF processing error for %s (%s): %v", e.Filename, e.Bank, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError reports a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
