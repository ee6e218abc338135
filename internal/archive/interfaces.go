// Package archive stores statement PDFs in Google Cloud Storage and reads
// them back by gs:// URI.
package archive

import (
	"context"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// Archiver keeps a copy of each downloaded statement.
type Archiver interface {
	// Archive stores data and returns its gs:// URI.
	Archive(ctx context.Context, bank domain.BankID, messageID, filename string, data []byte) (string, error)
}

// Fetcher reads an archived object.
type Fetcher interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}
