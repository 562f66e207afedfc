package history

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_items (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source        TEXT NOT NULL,
	original_name TEXT NOT NULL DEFAULT '',
	filename      TEXT NOT NULL DEFAULT '',
	drive_file_id TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	detail        TEXT NOT NULL DEFAULT '',
	processed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_processed_items_status ON processed_items(status);
`

// Repository handles processing ledger database operations. The ledger is
// observational only: the pipeline writes to it, the status endpoint and the
// export command read from it.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository creates a new history repository and ensures the schema exists.
func NewRepository(db *sql.DB, logger *zap.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Repository{
		db:     db,
		logger: logger,
	}, nil
}

// Record inserts a new ledger entry. A ledger write never interrupts
// processing, so failures are logged and swallowed.
func (r *Repository) Record(entry Entry) {
	query := `
		INSERT INTO processed_items (
			source, original_name, filename, drive_file_id, status, detail
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		entry.Source,
		entry.OriginalName,
		entry.Filename,
		entry.DriveFileID,
		entry.Status,
		entry.Detail,
	)
	if err != nil {
		r.logger.Error("Failed to record ledger entry",
			zap.String("source", entry.Source),
			zap.Error(err))
		return
	}

	if id, err := result.LastInsertId(); err == nil {
		r.logger.Debug("Ledger entry recorded",
			zap.Int64("id", id),
			zap.String("status", entry.Status))
	}
}

// ListRecent returns the most recent entries, newest first.
func (r *Repository) ListRecent(limit int) ([]*Entry, error) {
	query := `
		SELECT id, source, original_name, filename, drive_file_id, status, detail, processed_at
		FROM processed_items
		ORDER BY processed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.Source,
			&entry.OriginalName,
			&entry.Filename,
			&entry.DriveFileID,
			&entry.Status,
			&entry.Detail,
			&entry.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountByStatus returns the number of entries per processing status.
func (r *Repository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM processed_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
