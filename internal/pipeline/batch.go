package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dperrin/invoice-archiver/internal/history"
	"go.uber.org/zap"
)

// processedDirName is where successfully handled local files are moved.
const processedDirName = "processed"

// ProcessDir runs the pipeline over already-downloaded files in dir, without
// the archive step. A file is moved into the processed subdirectory only after
// a successful upload; failed files stay in place for reprocessing.
func (p *Pipeline) ProcessDir(ctx context.Context, dir string) error {
	doneDir := filepath.Join(dir, processedDirName)
	if err := os.MkdirAll(doneDir, 0755); err != nil {
		return fmt.Errorf("failed to create processed directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read invoices directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p.processFile(ctx, dir, doneDir, entry.Name())
	}
	return nil
}

func (p *Pipeline) processFile(ctx context.Context, dir, doneDir, filename string) {
	path := filepath.Join(dir, filename)
	p.logger.Info("Processing local invoice", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("Failed to read invoice file",
			zap.String("path", path),
			zap.Error(err))
		p.recorder.Record(history.Entry{
			Source:       path,
			OriginalName: filename,
			Status:       history.StatusFailed,
			Detail:       err.Error(),
		})
		return
	}

	name, err := p.deriveFilename(data, filename)
	if err != nil {
		p.recorder.Record(history.Entry{
			Source:       path,
			OriginalName: filename,
			Status:       history.StatusSkipped,
			Detail:       err.Error(),
		})
		return
	}

	fileID, err := p.sink.Upload(ctx, data, name)
	if err != nil {
		p.logger.Error("Failed to upload invoice",
			zap.String("path", path),
			zap.String("filename", name),
			zap.Error(err))
		p.recorder.Record(history.Entry{
			Source:       path,
			OriginalName: filename,
			Filename:     name,
			Status:       history.StatusFailed,
			Detail:       err.Error(),
		})
		return
	}

	detail := ""
	if err := os.Rename(path, filepath.Join(doneDir, filename)); err != nil {
		p.logger.Error("Failed to move processed invoice",
			zap.String("path", path),
			zap.Error(err))
		detail = err.Error()
	}

	p.recorder.Record(history.Entry{
		Source:       path,
		OriginalName: filename,
		Filename:     name,
		DriveFileID:  fileID,
		Status:       history.StatusUploaded,
		Detail:       detail,
	})
	p.logger.Info("Invoice processed",
		zap.String("path", path),
		zap.String("filename", name))
}
