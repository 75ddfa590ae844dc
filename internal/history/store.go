// Package history persists rendered configuration documents so operators
// can audit what was deployed and roll back to a previous build. Snapshots
// are append-only: a store never mutates a saved document.
package history

import "time"

// Snapshot is one archived build: the rendered document plus enough
// metadata to identify it without reading the payload.
type Snapshot struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"`
	Checksum   string    `json:"checksum"`
	EntryCount int       `json:"entry_count"`
	Document   []byte    `json:"document,omitempty"`
}

// Store archives rendered documents.
type Store interface {
	// Save archives a document and returns the stored snapshot with its
	// assigned ID, timestamp, and checksum.
	Save(source string, entryCount int, document []byte) (*Snapshot, error)
	// List returns snapshot metadata, most recent first, without the
	// document payloads. limit <= 0 means no limit.
	List(limit int) ([]*Snapshot, error)
	// Get returns a full snapshot by ID.
	Get(id string) (*Snapshot, bool)
	// Latest returns the most recent snapshot including its document.
	Latest() (*Snapshot, bool)
	// Prune deletes all but the most recent keep snapshots and reports
	// how many were removed.
	Prune(keep int) (int, error)
	// Close releases the underlying resources.
	Close() error
}
