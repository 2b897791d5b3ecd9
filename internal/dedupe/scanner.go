package dedupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/contact-dedupe/internal/match"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// DefaultProgressEvery is how many outer records pass between progress callbacks.
const DefaultProgressEvery = 100

// State is the scan controller state.
type State int

const (
	StateScanning State = iota
	StateAwaitingPhoneIgnore
	StateAwaitingDuplicate
	StateAwaitingKeepChoice
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateAwaitingPhoneIgnore:
		return "awaiting_phone_ignore"
	case StateAwaitingDuplicate:
		return "awaiting_duplicate"
	case StateAwaitingKeepChoice:
		return "awaiting_keep_choice"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DecisionKind identifies the question a Request asks.
type DecisionKind int

const (
	DecisionIgnorePhone DecisionKind = iota
	DecisionDuplicate
	DecisionKeepChoice
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionIgnorePhone:
		return "ignore_phone"
	case DecisionDuplicate:
		return "duplicate"
	case DecisionKeepChoice:
		return "keep_choice"
	default:
		return fmt.Sprintf("decision(%d)", int(k))
	}
}

// Candidate is a pair the matcher flagged. I < J always.
type Candidate struct {
	I, J    int
	A, B    models.Record
	Verdict match.Verdict
}

// Request is a suspended decision waiting for an operator answer.
type Request struct {
	Kind      DecisionKind
	Candidate Candidate
	// Phone is the normalized generic phone offered for ignoring.
	Phone    string
	Question string
	// First is set on the first request for a candidate, so callers render the
	// pair once even when several questions follow.
	First bool
}

// OutcomeKind describes what Resolve did.
type OutcomeKind int

const (
	OutcomeNeedsAnswer OutcomeKind = iota
	OutcomeIgnoredPhone
	OutcomeRejected
	OutcomeRemoved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNeedsAnswer:
		return "needs_answer"
	case OutcomeIgnoredPhone:
		return "ignored_phone"
	case OutcomeRejected:
		return "rejected"
	case OutcomeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of resolving one answer.
type Outcome struct {
	Kind      OutcomeKind
	Candidate Candidate
	Phone     string
	Removal   *models.Removal
	Write     models.WriteResult
}

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	// AskKeep enables the "which one to keep" question after a confirmed duplicate.
	AskKeep bool
	// ProgressEvery defaults to DefaultProgressEvery when zero or negative.
	ProgressEvery int
	// OnProgress is called with the outer index and the record count.
	OnProgress func(done, total int)
}

// Scanner walks every unordered pair of live records and suspends whenever the
// operator has to decide. It is not safe for concurrent use.
type Scanner struct {
	sess *Session
	opts ScannerOptions

	state   State
	i, j    int
	pending *Request
}

// NewScanner returns a Scanner positioned at the start of sess.
func NewScanner(sess *Session, opts ScannerOptions) *Scanner {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	return &Scanner{sess: sess, opts: opts, state: StateScanning}
}

// State returns the current controller state.
func (sc *Scanner) State() State { return sc.state }

// Session returns the underlying session.
func (sc *Scanner) Session() *Session { return sc.sess }

// Next advances the scan until a decision is needed and returns it, or returns
// nil once every pair has been examined. A pending request is returned again
// until it is resolved.
func (sc *Scanner) Next(ctx context.Context) (*Request, error) {
	if sc.pending != nil {
		return sc.pending, nil
	}
	if sc.state == StateDone {
		return nil, nil
	}

	s := sc.sess
	n := s.Len()
	for sc.i < n {
		if s.IsRemoved(sc.i) {
			sc.i++
			sc.j = 0
			continue
		}
		// j <= i means the inner loop for i has not started yet
		if sc.j <= sc.i {
			sc.j = sc.i + 1
			sc.progress(n)
		}
		for ; sc.j < n; sc.j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !s.comparable(sc.i, sc.j) {
				continue
			}
			v := s.evaluate(sc.i, sc.j)
			if !v.IsDuplicate {
				continue
			}
			s.suggested++
			s.logger.Debug("candidate found", "i", sc.i, "j", sc.j, "reason", v.Reason)
			return sc.suspend(Candidate{
				I:       sc.i,
				J:       sc.j,
				A:       s.Record(sc.i),
				B:       s.Record(sc.j),
				Verdict: v,
			}), nil
		}
		sc.i++
		sc.j = 0
	}

	sc.state = StateDone
	if sc.opts.OnProgress != nil {
		sc.opts.OnProgress(n, n)
	}
	s.logger.Info("scan complete", "compared", s.compared, "suggested", s.suggested)
	return nil, nil
}

func (sc *Scanner) progress(total int) {
	if sc.opts.OnProgress != nil && sc.i > 0 && sc.i%sc.opts.ProgressEvery == 0 {
		sc.opts.OnProgress(sc.i, total)
	}
}

func (sc *Scanner) suspend(c Candidate) *Request {
	if phone := sc.sess.ignorablePhone(c.Verdict); phone != "" {
		sc.state = StateAwaitingPhoneIgnore
		sc.pending = &Request{
			Kind:      DecisionIgnorePhone,
			Candidate: c,
			Phone:     phone,
			Question:  fmt.Sprintf("Phone %s looks generic. Ignore it for the rest of the run? (y/n)", phone),
			First:     true,
		}
		return sc.pending
	}
	sc.pending = duplicateRequest(c, true)
	sc.state = StateAwaitingDuplicate
	return sc.pending
}

func duplicateRequest(c Candidate, first bool) *Request {
	return &Request{
		Kind:      DecisionDuplicate,
		Candidate: c,
		Question:  "Is this a duplicate? (y/n)",
		First:     first,
	}
}

func keepRequest(c Candidate) *Request {
	return &Request{
		Kind:      DecisionKeepChoice,
		Candidate: c,
		Question:  fmt.Sprintf("Keep which contact? 1 = [%d], 2 = [%d] (default 1)", c.I, c.J),
	}
}

// Resolve applies answer to the pending request. Removals are persisted before
// Resolve returns; a persistence failure leaves the scanner Done.
func (sc *Scanner) Resolve(ctx context.Context, answer string) (*Outcome, error) {
	req := sc.pending
	if req == nil {
		return nil, ErrNoPendingRequest
	}
	c := req.Candidate
	s := sc.sess

	switch sc.state {
	case StateAwaitingPhoneIgnore:
		if !IsYes(answer) {
			sc.pending = duplicateRequest(c, false)
			sc.state = StateAwaitingDuplicate
			return &Outcome{Kind: OutcomeNeedsAnswer, Candidate: c}, nil
		}
		s.ignorePhone(req.Phone)
		s.reject(c.I, c.J)
		sc.advance()
		return &Outcome{Kind: OutcomeIgnoredPhone, Candidate: c, Phone: req.Phone}, nil

	case StateAwaitingDuplicate:
		if !IsYes(answer) {
			s.reject(c.I, c.J)
			sc.advance()
			return &Outcome{Kind: OutcomeRejected, Candidate: c}, nil
		}
		if sc.opts.AskKeep {
			sc.pending = keepRequest(c)
			sc.state = StateAwaitingKeepChoice
			return &Outcome{Kind: OutcomeNeedsAnswer, Candidate: c}, nil
		}
		return sc.apply(ctx, c, c.J, c.I)

	case StateAwaitingKeepChoice:
		if strings.TrimSpace(answer) == "2" {
			return sc.apply(ctx, c, c.I, c.J)
		}
		return sc.apply(ctx, c, c.J, c.I)
	}

	return nil, fmt.Errorf("resolve in state %s: %w", sc.state, ErrNoPendingRequest)
}

func (sc *Scanner) apply(ctx context.Context, c Candidate, removeIdx, keepIdx int) (*Outcome, error) {
	removal, result, err := sc.sess.remove(ctx, removeIdx, keepIdx, c.Verdict.Reason)
	sc.pending = nil
	if err != nil {
		sc.state = StateDone
		return nil, err
	}

	sc.state = StateScanning
	if removeIdx == sc.i {
		// outer record gone: abandon its inner loop without advancing i
		sc.j = 0
	} else {
		sc.j++
	}
	return &Outcome{Kind: OutcomeRemoved, Candidate: c, Removal: &removal, Write: result}, nil
}

// advance resumes scanning after the current pair.
func (sc *Scanner) advance() {
	sc.pending = nil
	sc.state = StateScanning
	sc.j++
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
