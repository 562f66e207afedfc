package history

import "time"

// Item processing outcomes recorded in the ledger.
const (
	StatusUploaded = "uploaded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Entry is one processed mailbox message or local file.
type Entry struct {
	ID           int64
	Source       string // Gmail message id or local file path
	OriginalName string
	Filename     string // rendered filename, empty when extraction failed
	DriveFileID  string
	Status       string
	Detail       string // error text for skipped/failed items
	ProcessedAt  time.Time
}
