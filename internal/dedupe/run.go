package dedupe

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/contact-dedupe/internal/metrics"
	"github.com/raphaelgruber/contact-dedupe/internal/prompt"
)

// Hooks let a caller observe the run. Any hook may be nil.
type Hooks struct {
	// OnRequest is called before each question is asked.
	OnRequest func(req *Request)
	// OnOutcome is called after each answer has been applied.
	OnOutcome func(out *Outcome)
}

// Result summarises a finished run.
type Result struct {
	Stats Stats
	// Aborted is set when the operator closed the input before the scan ended.
	// Every removal confirmed up to that point is already persisted.
	Aborted bool
}

// Run drives sc to completion, asking asker for every decision.
func Run(ctx context.Context, sc *Scanner, asker Asker, hooks Hooks) (Result, error) {
	s := sc.Session()
	for {
		req, err := sc.Next(ctx)
		if err != nil {
			return Result{Stats: s.Stats()}, fmt.Errorf("scan: %w", err)
		}
		if req == nil {
			return Result{Stats: s.Stats()}, nil
		}
		if hooks.OnRequest != nil {
			hooks.OnRequest(req)
		}

		var answer string
		err = s.Metrics().Time(metrics.OpPrompt, func() error {
			var err error
			answer, err = asker.Ask(ctx, req.Question)
			return err
		})
		if errors.Is(err, prompt.ErrAborted) {
			s.Logger().Warn("run aborted by operator", "i", req.Candidate.I, "j", req.Candidate.J)
			return Result{Stats: s.Stats(), Aborted: true}, nil
		}
		if err != nil {
			return Result{Stats: s.Stats()}, fmt.Errorf("ask: %w", err)
		}

		out, err := sc.Resolve(ctx, answer)
		if err != nil {
			return Result{Stats: s.Stats()}, err
		}
		if hooks.OnOutcome != nil {
			hooks.OnOutcome(out)
		}
	}
}
