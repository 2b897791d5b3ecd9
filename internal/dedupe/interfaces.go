package dedupe

import (
	"context"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// Persister writes the outcome of each confirmed removal.
type Persister interface {
	// PersistLiveSet replaces the backing store with header plus the raw cells
	// of every live record. A write that had to fall back to another file
	// reports it in the result and returns a nil error.
	PersistLiveSet(ctx context.Context, header []string, live [][]string) (models.WriteResult, error)

	// AppendRemovalAudit appends one entry to the removal audit trail.
	AppendRemovalAudit(ctx context.Context, entry models.AuditEntry) error
}

// AuditMirror receives a copy of every removal. Mirror failures never stop a run.
type AuditMirror interface {
	MirrorRemoval(ctx context.Context, entry models.AuditEntry) error
}

// Asker obtains an operator answer for a question. It blocks until an answer
// arrives or the input is closed.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// AskerFunc adapts a function to the Asker interface.
type AskerFunc func(ctx context.Context, question string) (string, error)

// Ask calls f.
func (f AskerFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}
