package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Removal records one confirmed duplicate: RemovedIndex was tombstoned in
// favour of KeptIndex. Created once and never reconsidered.
type Removal struct {
	SessionID    string    `json:"session"`
	RemovedIndex int       `json:"removed_index"`
	KeptIndex    int       `json:"kept_index"`
	Reason       string    `json:"reason"`
	RemovedAt    time.Time `json:"removed_at"`
}

// AuditEntry is everything an audit sink needs to describe a removal without
// reaching back into session state. Header is the widened dataset header and
// RemovedRow the raw cells of the removed record.
type AuditEntry struct {
	Removal
	Source     string
	Header     []string
	Columns    Columns
	Removed    Record
	RemovedRow []string
	Kept       Record
}

// WriteResult describes a completed live-set write.
type WriteResult struct {
	// Path actually written; differs from the source when Fallback is set.
	Path string
	// BackupPath holds the prior contents, empty when there was nothing to back up.
	BackupPath string
	Fallback   bool
	Rows       int
}

// MirroredRemoval is a removal as stored in the SurrealDB audit mirror.
type MirroredRemoval struct {
	ID           surrealmodels.RecordID `json:"id"`
	SessionID    string                 `json:"session"`
	Source       string                 `json:"source"`
	RemovedIndex int                    `json:"removed_index"`
	KeptIndex    int                    `json:"kept_index"`
	Reason       string                 `json:"reason"`
	Removed      map[string]string      `json:"removed"`
	Kept         map[string]string      `json:"kept"`
	RemovedAt    time.Time              `json:"removed_at"`
}

// SessionSummary aggregates mirrored removals of one run.
type SessionSummary struct {
	SessionID string    `json:"session"`
	Source    string    `json:"source"`
	Removals  int       `json:"removals"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}
