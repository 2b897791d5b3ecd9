package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// DefaultListLimit bounds history queries when no limit is given.
const DefaultListLimit = 50

// removalID is deterministic so replays of the same removal collide.
func removalID(session string, removedIndex int) string {
	return session + "-" + strconv.Itoa(removedIndex)
}

// MirrorRemoval writes entry to the removal table.
// Returns ErrAlreadyMirrored if the session already removed that index.
func (c *Client) MirrorRemoval(ctx context.Context, entry models.AuditEntry) error {
	_, err := c.CreateRemoval(ctx, entry)
	return err
}

// CreateRemoval inserts one removal row and returns it as stored.
func (c *Client) CreateRemoval(ctx context.Context, entry models.AuditEntry) (*models.MirroredRemoval, error) {
	removedAt := entry.RemovedAt
	if removedAt.IsZero() {
		removedAt = time.Now()
	}

	sql := `
		CREATE type::record("removal", $id) SET
			session = $session,
			source = $source,
			removed_index = $removed_index,
			kept_index = $kept_index,
			reason = $reason,
			removed = $removed,
			kept = $kept,
			removed_at = type::datetime($removed_at)
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.MirroredRemoval](ctx, c.db, sql, map[string]any{
		"id":            removalID(entry.SessionID, entry.RemovedIndex),
		"session":       entry.SessionID,
		"source":        entry.Source,
		"removed_index": entry.RemovedIndex,
		"kept_index":    entry.KeptIndex,
		"reason":        entry.Reason,
		"removed":       snapshot(entry.Removed),
		"kept":          snapshot(entry.Kept),
		"removed_at":    removedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("create removal: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create removal: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

func snapshot(r models.Record) map[string]string {
	if r == nil {
		return map[string]string{}
	}
	return map[string]string(r)
}

// ListRemovals returns mirrored removals, newest first.
// An empty session lists removals across all sessions.
func (c *Client) ListRemovals(ctx context.Context, session string, limit int) ([]models.MirroredRemoval, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	sessionClause := ""
	vars := map[string]any{"limit": limit}
	if session != "" {
		sessionClause = "WHERE session = $session"
		vars["session"] = session
	}

	sql := fmt.Sprintf(`
		SELECT * FROM removal %s ORDER BY removed_at DESC LIMIT $limit
	`, sessionClause)

	results, err := surrealdb.Query[[]models.MirroredRemoval](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list removals: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.MirroredRemoval{}, nil
	}
	return (*results)[0].Result, nil
}

// ListSessions summarises mirrored runs, most recent first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	sql := `
		SELECT
			session,
			source,
			count() AS removals,
			time::min(removed_at) AS started,
			time::max(removed_at) AS finished
		FROM removal
		GROUP BY session, source
		ORDER BY finished DESC
		LIMIT $limit
	`

	results, err := surrealdb.Query[[]models.SessionSummary](ctx, c.db, sql, map[string]any{
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.SessionSummary{}, nil
	}
	return (*results)[0].Result, nil
}
