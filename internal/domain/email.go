package domain

// Part is one node of a message payload tree. A node either has child
// Parts or is a leaf that may carry a filename and an attachment reference.
type Part struct {
	PartID       string
	MimeType     string
	Filename     string
	AttachmentID string
	Size         int64
	Parts        []*Part
}

// EmailMessage is a fetched mail message with the headers the sync needs.
type EmailMessage struct {
	ID      string
	From    string
	Subject string
	Payload *Part
}

// AttachmentRef points at an attachment resolvable through the mail service.
type AttachmentRef struct {
	Filename     string
	AttachmentID string
	Size         int64
}
