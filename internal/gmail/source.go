// Package gmail binds the processing pipeline's mail source to the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dperrin/invoice-archiver/internal/pipeline"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const userID = "me"

// Config holds the mailbox query and archive settings.
type Config struct {
	Query          string
	ArchiveLabelID string
}

// Source implements pipeline.MailSource on top of the Gmail API.
type Source struct {
	service *gmailapi.Service
	cfg     Config
	logger  *zap.Logger
}

// NewSource creates a Gmail-backed mail source. opts must carry credentials,
// typically option.WithTokenSource.
func NewSource(ctx context.Context, cfg Config, logger *zap.Logger, opts ...option.ClientOption) (*Source, error) {
	service, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Source{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// ListCandidates returns every message matching the configured inbox query,
// following page tokens so a large backlog drains in a single pass.
func (s *Source) ListCandidates(ctx context.Context) ([]pipeline.MessageRef, error) {
	s.logger.Debug("Scanning eligible emails", zap.String("query", s.cfg.Query))

	var refs []pipeline.MessageRef
	pageToken := ""
	for {
		call := s.service.Users.Messages.List(userID).Q(s.cfg.Query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			refs = append(refs, pipeline.MessageRef{ID: msg.Id})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return refs, nil
		}
	}
}

// FetchAttachment downloads the first PDF attachment of the message and
// records its filename on ref.
func (s *Source) FetchAttachment(ctx context.Context, ref *pipeline.MessageRef) ([]byte, error) {
	msg, err := s.service.Users.Messages.Get(userID, ref.ID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", ref.ID, err)
	}

	part := findPDFPart(msg.Payload)
	if part == nil {
		return nil, fmt.Errorf("message %s has no PDF attachment", ref.ID)
	}
	ref.AttachmentName = part.Filename

	attachment, err := s.service.Users.Messages.Attachments.
		Get(userID, ref.ID, part.Body.AttachmentId).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	data, err := decodeBody(attachment.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment data: %w", err)
	}

	s.logger.Info("Fetched invoice attachment",
		zap.String("message_id", ref.ID),
		zap.String("attachment_name", part.Filename),
		zap.Int("size", len(data)))
	return data, nil
}

// Archive moves a processed message out of the inbox by applying the archive
// label and clearing INBOX and UNREAD.
func (s *Source) Archive(ctx context.Context, ref pipeline.MessageRef) error {
	_, err := s.service.Users.Messages.Modify(userID, ref.ID, &gmailapi.ModifyMessageRequest{
		AddLabelIds:    []string{s.cfg.ArchiveLabelID},
		RemoveLabelIds: []string{"INBOX", "UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to archive message %s: %w", ref.ID, err)
	}

	s.logger.Info("Message archived", zap.String("message_id", ref.ID))
	return nil
}

// findPDFPart walks the MIME tree for the first part that looks like a PDF
// attachment.
func findPDFPart(part *gmailapi.MessagePart) *gmailapi.MessagePart {
	if part == nil {
		return nil
	}
	if part.Body != nil && part.Body.AttachmentId != "" {
		if part.MimeType == "application/pdf" ||
			strings.HasSuffix(strings.ToLower(part.Filename), ".pdf") {
			return part
		}
	}
	for _, child := range part.Parts {
		if found := findPDFPart(child); found != nil {
			return found
		}
	}
	return nil
}

// decodeBody decodes Gmail's base64url body data, which is usually unpadded.
func decodeBody(data string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	return base64.URLEncoding.DecodeString(data)
}
