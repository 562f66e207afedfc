// Package export produces an XLSX workbook from the processing ledger.
package export

import (
	"fmt"

	"github.com/dperrin/invoice-archiver/internal/history"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sheetName = "Processed invoices"

// maxRows bounds one export to keep the workbook manageable.
const maxRows = 10000

// Service writes ledger entries into a spreadsheet.
type Service struct {
	history *history.Repository
	logger  *zap.Logger
}

// NewService creates a new export service.
func NewService(hist *history.Repository, logger *zap.Logger) *Service {
	return &Service{
		history: hist,
		logger:  logger,
	}
}

// WriteXLSX exports the most recent ledger entries to path.
func (s *Service) WriteXLSX(path string) error {
	entries, err := s.history.ListRecent(maxRows)
	if err != nil {
		return fmt.Errorf("failed to load ledger entries: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headers := []string{"Processed at", "Source", "Original name", "Filename", "Drive file id", "Status", "Detail"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, entry := range entries {
		values := []interface{}{
			entry.ProcessedAt.Format("2006-01-02 15:04:05"),
			entry.Source,
			entry.OriginalName,
			entry.Filename,
			entry.DriveFileID,
			entry.Status,
			entry.Detail,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	s.logger.Info("Ledger exported",
		zap.String("path", path),
		zap.Int("entries", len(entries)))
	return nil
}
