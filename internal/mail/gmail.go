package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dvloznov/statement-sync/internal/domain"
)

const gmailUser = "me"

// Profile summarises the connected mailbox.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
}

// GmailService implements Service on the Gmail v1 API.
type GmailService struct {
	svc *gmail.Service
}

// NewGmailService connects to Gmail using the given token source.
func NewGmailService(ctx context.Context, ts oauth2.TokenSource) (*GmailService, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("NewGmailService: failed to create gmail client: %w", err)
	}
	return &GmailService{svc: svc}, nil
}

// NewGmailServiceWithClient wraps an existing gmail client.
func NewGmailServiceWithClient(svc *gmail.Service) *GmailService {
	return &GmailService{svc: svc}
}

// ListMessages returns ids of messages matching query.
func (g *GmailService) ListMessages(ctx context.Context, query string, maxResults int64) ([]string, error) {
	call := g.svc.Users.Messages.List(gmailUser).Q(query).Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m == nil || m.Id == "" {
			continue
		}
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches the full message and converts its payload tree.
func (g *GmailService) GetMessage(ctx context.Context, id string) (*domain.EmailMessage, error) {
	msg, err := g.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}

	out := &domain.EmailMessage{ID: msg.Id}
	if msg.Payload != nil {
		out.From = headerValue(msg.Payload.Headers, "From")
		out.Subject = headerValue(msg.Payload.Headers, "Subject")
		out.Payload = convertPart(msg.Payload)
	}
	return out, nil
}

// GetAttachment returns the raw base64url body of an attachment.
func (g *GmailService) GetAttachment(ctx context.Context, messageID, attachmentID string) (string, error) {
	body, err := g.svc.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return "", mapGoogleError(err)
	}
	return body.Data, nil
}

// Profile returns the mailbox address and message count.
func (g *GmailService) Profile(ctx context.Context) (*Profile, error) {
	p, err := g.svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}
	return &Profile{EmailAddress: p.EmailAddress, MessagesTotal: p.MessagesTotal}, nil
}

// convertPart copies the Gmail payload tree into the domain shape.
func convertPart(p *gmail.MessagePart) *domain.Part {
	if p == nil {
		return nil
	}
	part := &domain.Part{
		PartID:   p.PartId,
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil {
		part.AttachmentID = p.Body.AttachmentId
		part.Size = p.Body.Size
	}
	for _, child := range p.Parts {
		if c := convertPart(child); c != nil {
			part.Parts = append(part.Parts, c)
		}
	}
	return part
}

func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// mapGoogleError maps API status codes onto the domain sentinels.
func mapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrAccessDenied, err)
		}
	}
	return err
}
