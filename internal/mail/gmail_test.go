package mail

import (
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/statement-sync/internal/domain"
)

func TestConvertPart(t *testing.T) {
	src := &gmail.MessagePart{
		PartId:   "",
		MimeType: "multipart/mixed",
		Headers: []*gmail.MessagePartHeader{
			{Name: "From", Value: "statements@sbicard.com"},
			{Name: "subject", Value: "Your statement"},
		},
		Parts: []*gmail.MessagePart{
			{PartId: "0", MimeType: "text/html", Body: &gmail.MessagePartBody{Size: 120}},
			{PartId: "1", MimeType: "application/pdf", Filename: "stmt.pdf", Body: &gmail.MessagePartBody{AttachmentId: "ATT", Size: 2048}},
			nil,
		},
	}

	got := convertPart(src)
	if len(got.Parts) != 2 {
		t.Fatalf("expected 2 children, got %d", len(got.Parts))
	}
	pdf := got.Parts[1]
	if pdf.Filename != "stmt.pdf" || pdf.AttachmentID != "ATT" || pdf.Size != 2048 {
		t.Errorf("unexpected pdf part: %+v", pdf)
	}

	if from := headerValue(src.Headers, "from"); from != "statements@sbicard.com" {
		t.Errorf("From = %q", from)
	}
	if subj := headerValue(src.Headers, "Subject"); subj != "Your statement" {
		t.Errorf("Subject = %q", subj)
	}
	if missing := headerValue(src.Headers, "To"); missing != "" {
		t.Errorf("To = %q, want empty", missing)
	}
}

func TestMapGoogleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, domain.ErrNotFound},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, domain.ErrAccessDenied},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapGoogleError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapGoogleError() = %v, want %v in chain", got, tt.want)
			}
		})
	}

	other := errors.New("boom")
	if got := mapGoogleError(other); got != other {
		t.Errorf("unmapped error changed: %v", got)
	}
}
