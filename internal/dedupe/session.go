// Package dedupe implements the duplicate detection and resolution engine:
// the run-scoped Session state, the resumable Scanner and the Run driver.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/contact-dedupe/internal/match"
	"github.com/raphaelgruber/contact-dedupe/internal/metrics"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
	"github.com/raphaelgruber/contact-dedupe/internal/normalize"
)

// pairKey is an unordered index pair, stored low index first.
type pairKey struct {
	lo, hi int
}

func newPairKey(i, j int) pairKey {
	if i > j {
		i, j = j, i
	}
	return pairKey{lo: i, hi: j}
}

// phoneSet is the Ignored-Phone Memory.
type phoneSet map[string]struct{}

func (p phoneSet) Contains(normalized string) bool {
	_, ok := p[normalized]
	return ok
}

// Stats summarises a session.
type Stats struct {
	Total          int
	Remaining      int
	Compared       int
	Suggested      int
	Confirmed      int
	Rejected       int
	IgnoredPhones  int
	Fallbacks      int
	MirrorFailures int
}

// Options configures a Session.
type Options struct {
	// SessionID identifies the run; a random UUID is used when empty.
	SessionID string
	Persister Persister
	Mirrors   []AuditMirror
	Logger    *slog.Logger
	Metrics   *metrics.Collector
}

// Session owns all mutable state of one dedupe run: the tombstone set over the
// loaded records, rejected pairs, ignored phones and the removal log.
//
// Records are never deleted or reordered. A removal only sets a tombstone so
// indices stay valid for the whole run.
type Session struct {
	id      string
	data    *models.Dataset
	matcher *match.Matcher

	removed  []bool
	phones   []string
	rejected map[pairKey]struct{}
	ignored  phoneSet
	removals []models.Removal

	compared       int
	suggested      int
	fallbacks      int
	mirrorFailures int

	persister Persister
	mirrors   []AuditMirror
	logger    *slog.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewSession creates a session over data.
func NewSession(data *models.Dataset, opts Options) *Session {
	id := opts.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	phones := make([]string, len(data.Records))
	for i, r := range data.Records {
		phones[i] = normalize.Phone(r.Get(data.Columns.Phone))
	}

	return &Session{
		id:        id,
		data:      data,
		matcher:   match.New(data.Columns),
		removed:   make([]bool, len(data.Records)),
		phones:    phones,
		rejected:  make(map[pairKey]struct{}),
		ignored:   make(phoneSet),
		persister: opts.Persister,
		mirrors:   opts.Mirrors,
		logger:    logger.With("session", id),
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Len returns the number of loaded records, removed ones included.
func (s *Session) Len() int { return len(s.data.Records) }

// Record returns the record at load index i.
func (s *Session) Record(i int) models.Record { return s.data.Records[i] }

// IsRemoved reports whether index i has been tombstoned.
func (s *Session) IsRemoved(i int) bool { return s.removed[i] }

// IsRejected reports whether the operator declined the pair (i, j), in either order.
func (s *Session) IsRejected(i, j int) bool {
	_, ok := s.rejected[newPairKey(i, j)]
	return ok
}

// IsPhoneIgnored reports whether the normalized phone is in Ignored-Phone Memory.
func (s *Session) IsPhoneIgnored(normalized string) bool {
	return s.ignored.Contains(normalized)
}

// liveRows returns the raw cells of every record not removed, in load order.
func (s *Session) liveRows() [][]string {
	live := make([][]string, 0, len(s.data.Records)-len(s.removals))
	for i := range s.data.Records {
		if !s.removed[i] {
			live = append(live, s.data.Row(i))
		}
	}
	return live
}

// Stats returns a summary of the session so far.
func (s *Session) Stats() Stats {
	return Stats{
		Total:          len(s.data.Records),
		Remaining:      len(s.data.Records) - len(s.removals),
		Compared:       s.compared,
		Suggested:      s.suggested,
		Confirmed:      len(s.removals),
		Rejected:       len(s.rejected),
		IgnoredPhones:  len(s.ignored),
		Fallbacks:      s.fallbacks,
		MirrorFailures: s.mirrorFailures,
	}
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Metrics returns the session collector, possibly nil.
func (s *Session) Metrics() *metrics.Collector { return s.metrics }

// comparable reports whether the live outer record i may be compared with j.
// Pairs sharing a phone the operator ignored are never proposed again.
func (s *Session) comparable(i, j int) bool {
	if s.removed[j] || s.IsRejected(i, j) {
		return false
	}
	if p := s.phones[i]; p != "" && p == s.phones[j] && s.ignored.Contains(p) {
		return false
	}
	return true
}

func (s *Session) evaluate(i, j int) match.Verdict {
	s.compared++
	return s.matcher.Evaluate(s.data.Records[i], s.data.Records[j], s.ignored)
}

// ignorablePhone returns the generic phone to offer for ignoring, preferring
// the first record, or "" when there is nothing new to ignore.
func (s *Session) ignorablePhone(v match.Verdict) string {
	if v.GenericA && !s.ignored.Contains(v.PhoneA) {
		return v.PhoneA
	}
	if v.GenericB && !s.ignored.Contains(v.PhoneB) {
		return v.PhoneB
	}
	return ""
}

func (s *Session) reject(i, j int) {
	s.rejected[newPairKey(i, j)] = struct{}{}
	s.logger.Debug("pair rejected", "i", i, "j", j)
}

func (s *Session) ignorePhone(normalized string) {
	s.ignored[normalized] = struct{}{}
	s.logger.Info("phone ignored", "phone", normalized)
}

// remove tombstones removeIdx in favour of keepIdx and persists the result:
// live set first, then the audit entry, then the mirrors.
func (s *Session) remove(ctx context.Context, removeIdx, keepIdx int, reason string) (models.Removal, models.WriteResult, error) {
	if s.persister == nil {
		return models.Removal{}, models.WriteResult{}, ErrNoPersister
	}
	if s.removed[removeIdx] || s.removed[keepIdx] {
		return models.Removal{}, models.WriteResult{}, fmt.Errorf("remove %d keep %d: index already removed", removeIdx, keepIdx)
	}

	s.removed[removeIdx] = true
	removal := models.Removal{
		SessionID:    s.id,
		RemovedIndex: removeIdx,
		KeptIndex:    keepIdx,
		Reason:       reason,
		RemovedAt:    s.now(),
	}
	s.removals = append(s.removals, removal)

	var result models.WriteResult
	err := s.metrics.Time(metrics.OpPersist, func() error {
		var err error
		result, err = s.persister.PersistLiveSet(ctx, s.data.Header, s.liveRows())
		return err
	})
	if err != nil {
		s.logger.Error("live set write failed", "removed", removeIdx, "error", err)
		return removal, result, fmt.Errorf("%w: write live set: %w", ErrPersistence, err)
	}
	if result.Fallback {
		s.fallbacks++
		s.logger.Warn("live set written to fallback file", "path", result.Path)
	}

	entry := models.AuditEntry{
		Removal:    removal,
		Source:     s.data.Source,
		Header:     s.data.WideHeader(),
		Columns:    s.data.Columns,
		Removed:    s.data.Records[removeIdx].Clone(),
		RemovedRow: append([]string(nil), s.data.Row(removeIdx)...),
		Kept:       s.data.Records[keepIdx].Clone(),
	}
	if err := s.metrics.Time(metrics.OpAudit, func() error {
		return s.persister.AppendRemovalAudit(ctx, entry)
	}); err != nil {
		s.logger.Error("audit append failed", "removed", removeIdx, "error", err)
		return removal, result, fmt.Errorf("%w: append audit: %w", ErrPersistence, err)
	}

	for _, m := range s.mirrors {
		if err := s.metrics.Time(metrics.OpMirror, func() error {
			return m.MirrorRemoval(ctx, entry)
		}); err != nil {
			s.mirrorFailures++
			s.logger.Warn("audit mirror failed", "removed", removeIdx, "error", err)
		}
	}

	s.logger.Info("contact removed",
		"removed", removeIdx,
		"kept", keepIdx,
		"reason", reason,
		"rows", result.Rows,
	)
	return removal, result, nil
}
