// Package mail finds statement emails, fetches them and their PDF
// attachments through a mail Service.
package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// Service is the mail capability the sync consumes. GmailService is the
// production implementation.
type Service interface {
	// ListMessages returns ids of messages matching query, at most maxResults.
	ListMessages(ctx context.Context, query string, maxResults int64) ([]string, error)

	// GetMessage returns the message headers and payload tree.
	GetMessage(ctx context.Context, id string) (*domain.EmailMessage, error)

	// GetAttachment returns the attachment body as base64url text.
	GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error)
}

// Fetcher wraps a Service with the sync's error taxonomy.
type Fetcher struct {
	svc Service
}

// NewFetcher creates a Fetcher over svc.
func NewFetcher(svc Service) *Fetcher {
	return &Fetcher{svc: svc}
}

// Search runs one query. On failure it returns no ids and a *domain.QueryError.
func (f *Fetcher) Search(ctx context.Context, query string, maxResults int64) ([]string, error) {
	log := logger.FromContext(ctx)
	log.Info().Str("query", query).Msg("Searching mailbox")

	ids, err := f.svc.ListMessages(ctx, query, maxResults)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed")
		return nil, &domain.QueryError{Query: query, Err: err}
	}

	log.Info().Str("query", query).Int("found", len(ids)).Msg("Search completed")
	return ids, nil
}

// Get fetches a full message.
func (f *Fetcher) Get(ctx context.Context, id string) (*domain.EmailMessage, error) {
	msg, err := f.svc.GetMessage(ctx, id)
	if err != nil {
		return nil, asFetchError(id, "", err)
	}
	if msg == nil {
		return nil, &domain.FetchError{MessageID: id, Err: domain.ErrNotFound}
	}
	return msg, nil
}

// GetAttachment fetches and decodes an attachment body.
func (f *Fetcher) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if attachmentID == "" {
		return nil, &domain.FetchError{MessageID: messageID, Err: fmt.Errorf("attachment has no id: %w", domain.ErrNotFound)}
	}

	data, err := f.svc.GetAttachment(ctx, messageID, attachmentID)
	if err != nil {
		return nil, asFetchError(messageID, attachmentID, err)
	}

	decoded, err := DecodeBase64URL(data)
	if err != nil {
		return nil, &domain.FetchError{MessageID: messageID, AttachmentID: attachmentID, Err: err}
	}
	return decoded, nil
}

// Dedup returns the unique ids in first-seen order.
func Dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// DecodeBase64URL decodes base64url text with or without padding.
func DecodeBase64URL(data string) ([]byte, error) {
	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(data)
	decoded, err := base64.URLEncoding.DecodeString(cleaned)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(cleaned, "="))
		if err != nil {
			return nil, fmt.Errorf("decode attachment data: %w", err)
		}
	}
	return decoded, nil
}

func asFetchError(messageID, attachmentID string, err error) error {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &domain.FetchError{MessageID: messageID, AttachmentID: attachmentID, Err: err}
}
