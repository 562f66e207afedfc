// Package drive binds the processing pipeline's blob sink to the Google Drive
// API.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// ErrUploadFailed reports a rejected upload. The pipeline skips the archive
// step for the item so it stays eligible for retry.
var ErrUploadFailed = errors.New("upload failed")

// Uploader implements pipeline.BlobSink on top of the Drive API.
type Uploader struct {
	service        *driveapi.Service
	parentFolderID string
	logger         *zap.Logger
}

// NewUploader creates a Drive-backed uploader targeting the given parent
// folder. opts must carry credentials, typically option.WithTokenSource.
func NewUploader(ctx context.Context, parentFolderID string, logger *zap.Logger, opts ...option.ClientOption) (*Uploader, error) {
	service, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Uploader{
		service:        service,
		parentFolderID: parentFolderID,
		logger:         logger,
	}, nil
}

// Upload stores the bytes under the given name and returns the Drive file id.
func (u *Uploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	u.logger.Info("Uploading file to Google Drive",
		zap.String("filename", name),
		zap.String("parent_folder_id", u.parentFolderID))

	file, err := u.service.Files.Create(&driveapi.File{
		Name:    name,
		Parents: []string{u.parentFolderID},
	}).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	u.logger.Info("File successfully uploaded to Google Drive",
		zap.String("filename", name),
		zap.String("file_id", file.Id))
	return file.Id, nil
}
