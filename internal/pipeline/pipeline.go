package pipeline

import (
	"context"
	"fmt"

	"github.com/dperrin/invoice-archiver/internal/history"
	"github.com/dperrin/invoice-archiver/internal/invoice"
	"go.uber.org/zap"
)

// Recorder accepts ledger entries for processed items.
type Recorder interface {
	Record(entry history.Entry)
}

type noopRecorder struct{}

func (noopRecorder) Record(history.Entry) {}

// Pipeline drives one invoice attachment through extraction, parsing,
// filename derivation and upload. Items are processed strictly one at a time;
// a failure on one item never aborts the pass.
type Pipeline struct {
	extractor TextExtractor
	parser    *invoice.Parser
	sink      BlobSink
	recorder  Recorder
	logger    *zap.Logger
}

// New creates a processing pipeline. recorder may be nil when no ledger is
// wanted.
func New(extractor TextExtractor, parser *invoice.Parser, sink BlobSink, recorder Recorder, logger *zap.Logger) *Pipeline {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Pipeline{
		extractor: extractor,
		parser:    parser,
		sink:      sink,
		recorder:  recorder,
		logger:    logger,
	}
}

// ProcessMailbox runs one full pass over the mail source: every candidate
// message has its attachment fetched, named and uploaded, and is archived on
// upload success only, so failed items stay eligible for the next pass.
func (p *Pipeline) ProcessMailbox(ctx context.Context, source MailSource) error {
	refs, err := source.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list candidate messages: %w", err)
	}
	if len(refs) == 0 {
		p.logger.Debug("No eligible email found")
		return nil
	}

	for _, ref := range refs {
		p.processMessage(ctx, source, ref)
	}
	return nil
}

func (p *Pipeline) processMessage(ctx context.Context, source MailSource, ref MessageRef) {
	p.logger.Info("Processing invoice email", zap.String("message_id", ref.ID))

	data, err := source.FetchAttachment(ctx, &ref)
	if err != nil {
		p.logger.Error("Failed to fetch attachment",
			zap.String("message_id", ref.ID),
			zap.Error(err))
		p.recorder.Record(history.Entry{
			Source:       ref.ID,
			OriginalName: ref.AttachmentName,
			Status:       history.StatusFailed,
			Detail:       err.Error(),
		})
		return
	}

	name, err := p.deriveFilename(data, ref.AttachmentName)
	if err != nil {
		// undecodable attachment, skip it for good
		p.recorder.Record(history.Entry{
			Source:       ref.ID,
			OriginalName: ref.AttachmentName,
			Status:       history.StatusSkipped,
			Detail:       err.Error(),
		})
		return
	}

	fileID, err := p.sink.Upload(ctx, data, name)
	if err != nil {
		// leave the message in the inbox so the next pass retries it
		p.logger.Error("Failed to upload invoice",
			zap.String("message_id", ref.ID),
			zap.String("filename", name),
			zap.Error(err))
		p.recorder.Record(history.Entry{
			Source:       ref.ID,
			OriginalName: ref.AttachmentName,
			Filename:     name,
			Status:       history.StatusFailed,
			Detail:       err.Error(),
		})
		return
	}

	detail := ""
	if err := source.Archive(ctx, ref); err != nil {
		p.logger.Error("Failed to archive message",
			zap.String("message_id", ref.ID),
			zap.Error(err))
		detail = err.Error()
	}

	p.recorder.Record(history.Entry{
		Source:       ref.ID,
		OriginalName: ref.AttachmentName,
		Filename:     name,
		DriveFileID:  fileID,
		Status:       history.StatusUploaded,
		Detail:       detail,
	})
	p.logger.Info("Invoice processed",
		zap.String("message_id", ref.ID),
		zap.String("filename", name))
}

// deriveFilename extracts page texts from the PDF bytes, parses them and
// renders the canonical filename.
func (p *Pipeline) deriveFilename(data []byte, originalName string) (string, error) {
	pages, err := p.extractor.ExtractPages(data)
	if err != nil {
		p.logger.Error("Unable to read PDF",
			zap.String("original_file_name", originalName),
			zap.Error(err))
		return "", err
	}
	rec := p.parser.Parse(pages)
	return invoice.Filename(rec), nil
}
