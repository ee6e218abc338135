package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// transactionNamespace scopes the deterministic transaction ids.
var transactionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("statement-sync/transactions"))

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	SyncRunID     string `bigquery:"sync_run_id"`    // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	Direction      string              `bigquery:"direction"`       // DEBIT | CREDIT
	RawDescription string              `bigquery:"raw_description"` // REQUIRED STRING
	CategoryName   bigquery.NullString `bigquery:"category_name"`   // NULLABLE

	Bank           string `bigquery:"bank"`            // REQUIRED
	SourceFilename string `bigquery:"source_filename"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// TransactionID derives a stable id from the transaction's upsert key, so
// re-mirroring the same statement line yields the same id.
func TransactionID(t domain.Transaction) string {
	return uuid.NewSHA1(transactionNamespace, []byte(t.Key())).String()
}

// NewTransactionRow converts a transaction for insertion.
func NewTransactionRow(t domain.Transaction, runID string, created time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   TransactionID(t),
		SyncRunID:       runID,
		TransactionDate: t.Date,
		Amount:          t.Amount.Rat(),
		Currency:        "INR",
		Direction:       string(t.Type),
		RawDescription:  t.Description,
		CategoryName:    bigquery.NullString{StringVal: t.Category, Valid: t.Category != ""},
		Bank:            string(t.Bank),
		SourceFilename:  t.Filename,
		CreatedTS:       created,
	}
}

// Save implements bigquery.ValueSaver. The transaction id doubles as the
// streaming insert id so retried inserts are deduplicated.
func (r *TransactionRow) Save() (map[string]bigquery.Value, string, error) {
	schema, err := transactionSchema()
	if err != nil {
		return nil, "", fmt.Errorf("TransactionRow: infer schema: %w", err)
	}
	return (&bigquery.StructSaver{Struct: r, Schema: schema, InsertID: r.TransactionID}).Save()
}

// ToTransaction converts a mirrored row back into a transaction.
func (r *TransactionRow) ToTransaction() domain.Transaction {
	amount := decimal.Zero
	if r.Amount != nil {
		amount, _ = decimal.NewFromString(r.Amount.FloatString(2))
	}
	return domain.NewTransaction(r.TransactionDate, r.RawDescription, amount, r.CategoryName.StringVal, domain.BankID(r.Bank), r.SourceFilename)
}
