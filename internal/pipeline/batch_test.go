package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dperrin/invoice-archiver/internal/history"
	"github.com/dperrin/invoice-archiver/internal/invoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeInvoiceFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestProcessDir_MovesProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	data := []byte("%PDF-1.4")
	path := writeInvoiceFile(t, dir, "facture.pdf", data)

	extractor := new(mockExtractor)
	extractor.On("ExtractPages", data).Return([]string{invoicePage}, nil)

	sink := new(mockSink)
	sink.On("Upload", mock.Anything, data, derivedName).Return("drive-1", nil)

	p := newTestPipeline(extractor, sink, nil)
	require.NoError(t, p.ProcessDir(context.Background(), dir))

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "processed", "facture.pdf"))
	sink.AssertExpectations(t)
}

func TestProcessDir_LeavesFileOnExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	data := []byte("garbage")
	path := writeInvoiceFile(t, dir, "broken.pdf", data)

	extractor := new(mockExtractor)
	extractor.On("ExtractPages", data).Return(nil, invoice.ErrMalformedDocument)

	sink := new(mockSink)

	recorder := new(mockRecorder)
	recorder.On("Record", mock.MatchedBy(func(e history.Entry) bool {
		return e.Status == history.StatusSkipped && e.OriginalName == "broken.pdf"
	})).Once()

	p := newTestPipeline(extractor, sink, recorder)
	require.NoError(t, p.ProcessDir(context.Background(), dir))

	// left in place so a fixed parser can pick it up again
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(dir, "processed", "broken.pdf"))
	sink.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	recorder.AssertExpectations(t)
}

func TestProcessDir_LeavesFileOnUploadFailure(t *testing.T) {
	dir := t.TempDir()
	data := []byte("%PDF-1.4")
	path := writeInvoiceFile(t, dir, "facture.pdf", data)

	extractor := new(mockExtractor)
	extractor.On("ExtractPages", data).Return([]string{invoicePage}, nil)

	sink := new(mockSink)
	sink.On("Upload", mock.Anything, data, derivedName).Return("", errors.New("quota exceeded"))

	p := newTestPipeline(extractor, sink, nil)
	require.NoError(t, p.ProcessDir(context.Background(), dir))

	assert.FileExists(t, path)
}

func TestProcessDir_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))

	extractor := new(mockExtractor)
	sink := new(mockSink)

	p := newTestPipeline(extractor, sink, nil)
	require.NoError(t, p.ProcessDir(context.Background(), dir))

	extractor.AssertNotCalled(t, "ExtractPages", mock.Anything)
}
