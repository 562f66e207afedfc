package pipeline

import "context"

// MessageRef identifies one candidate message and its invoice attachment.
type MessageRef struct {
	ID             string
	AttachmentName string
}

// TextExtractor converts raw PDF bytes into ordered per-page text.
type TextExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}

// MailSource yields candidate messages and mutates them once processed.
// FetchAttachment fills in ref.AttachmentName, which is unknown at list time.
type MailSource interface {
	ListCandidates(ctx context.Context) ([]MessageRef, error)
	FetchAttachment(ctx context.Context, ref *MessageRef) ([]byte, error)
	Archive(ctx context.Context, ref MessageRef) error
}

// BlobSink accepts an upload under a derived name and returns its opaque id.
type BlobSink interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}
