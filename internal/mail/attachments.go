package mail

import (
	"errors"
	"strings"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// DefaultMaxPayloadNodes bounds the payload walk for untrusted messages.
const DefaultMaxPayloadNodes = 1024

// ErrPayloadTooLarge is returned when a payload tree exceeds the node bound.
var ErrPayloadTooLarge = errors.New("payload tree exceeds node limit")

// ExtractPDFAttachments returns every PDF leaf of the payload tree in
// pre-order. It applies DefaultMaxPayloadNodes and drops the error.
func ExtractPDFAttachments(root *domain.Part) []domain.AttachmentRef {
	refs, _ := WalkPDFAttachments(root, DefaultMaxPayloadNodes)
	return refs
}

// WalkPDFAttachments walks the payload tree with an explicit stack. Nodes
// with children are expanded; childless nodes whose filename ends in ".pdf"
// (any case) are returned in pre-order. When more than maxNodes nodes are
// visited, the walk stops and returns what it found with ErrPayloadTooLarge.
// A maxNodes of zero or less disables the bound.
func WalkPDFAttachments(root *domain.Part, maxNodes int) ([]domain.AttachmentRef, error) {
	if root == nil {
		return nil, nil
	}

	var refs []domain.AttachmentRef
	stack := []*domain.Part{root}
	visited := 0

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}

		visited++
		if maxNodes > 0 && visited > maxNodes {
			return refs, ErrPayloadTooLarge
		}

		if len(node.Parts) > 0 {
			// Reverse push so the first child is popped first.
			for i := len(node.Parts) - 1; i >= 0; i-- {
				stack = append(stack, node.Parts[i])
			}
			continue
		}

		if isPDFFilename(node.Filename) {
			refs = append(refs, domain.AttachmentRef{
				Filename:     node.Filename,
				AttachmentID: node.AttachmentID,
				Size:         node.Size,
			})
		}
	}

	return refs, nil
}

func isPDFFilename(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
