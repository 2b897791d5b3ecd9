package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/contact-dedupe/internal/dedupe"
	"github.com/raphaelgruber/contact-dedupe/internal/metrics"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	Warning    lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	Warning:    lipgloss.Color("#FFAF00"), // amber
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}

// describeContact renders the matching fields of r on one line.
func describeContact(r models.Record, cols models.Columns) string {
	name := strings.TrimSpace(r.Get(cols.GivenName) + " " + r.Get(cols.FamilyName))
	if name == "" {
		name = "(no name)"
	}
	parts := []string{name}
	if email := r.Get(cols.Email); email != "" {
		parts = append(parts, "<"+email+">")
	}
	if phone := r.Get(cols.Phone); phone != "" {
		parts = append(parts, phone)
	}
	return strings.Join(parts, "  ")
}

// renderCandidate shows both contacts of a candidate pair and why they matched.
func renderCandidate(t Theme, c dedupe.Candidate, cols models.Columns) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(t.statusStyle().Render("Possible duplicate"))
	b.WriteString(" " + t.hintStyle().Render(c.Verdict.Reason) + "\n")
	fmt.Fprintf(&b, "  1. [%d] %s\n", c.I, describeContact(c.A, cols))
	fmt.Fprintf(&b, "  2. [%d] %s\n", c.J, describeContact(c.B, cols))
	return b.String()
}

// renderRequest prints the pair on the first question about it, plus a warning
// before a generic-phone question.
func renderRequest(t Theme, req *dedupe.Request, cols models.Columns) string {
	var b strings.Builder
	if req.First {
		b.WriteString(renderCandidate(t, req.Candidate, cols))
	}
	if req.Kind == dedupe.DecisionIgnorePhone {
		b.WriteString(t.warningStyle().Render("! generic-looking phone: "+req.Phone) + "\n")
	}
	return b.String()
}

// renderOutcome confirms what an answer did. NeedsAnswer renders nothing.
func renderOutcome(t Theme, out *dedupe.Outcome) string {
	switch out.Kind {
	case dedupe.OutcomeIgnoredPhone:
		return t.hintStyle().Render(fmt.Sprintf("Phone %s ignored for the rest of the run", out.Phone)) + "\n"
	case dedupe.OutcomeRejected:
		return t.hintStyle().Render("Kept both") + "\n"
	case dedupe.OutcomeRemoved:
		msg := fmt.Sprintf("✓ Removed [%d], kept [%d]", out.Removal.RemovedIndex, out.Removal.KeptIndex)
		line := t.completedStyle().Render(msg)
		if out.Write.Fallback {
			line += " " + t.warningStyle().Render("(saved to "+out.Write.Path+")")
		}
		return line + "\n"
	}
	return ""
}

// printSummary displays the end-of-run statistics.
func printSummary(w io.Writer, t Theme, res dedupe.Result, auditPath string) {
	s := res.Stats
	fmt.Fprintln(w)
	if res.Aborted {
		fmt.Fprintln(w, t.warningStyle().Render("Stopped before the end of the scan. Confirmed removals are saved."))
	} else {
		fmt.Fprintln(w, t.completedStyle().Render("✓ Scan complete"))
	}
	fmt.Fprintf(w, "  Contacts loaded:      %d\n", s.Total)
	fmt.Fprintf(w, "  Duplicates suggested: %d\n", s.Suggested)
	fmt.Fprintf(w, "  Duplicates removed:   %d\n", s.Confirmed)
	fmt.Fprintf(w, "  Pairs kept apart:     %d\n", s.Rejected)
	fmt.Fprintf(w, "  Phones ignored:       %d\n", s.IgnoredPhones)
	fmt.Fprintf(w, "  Contacts remaining:   %d\n", s.Remaining)
	if s.Confirmed > 0 && auditPath != "" {
		fmt.Fprintf(w, "  Audit trail:          %s\n", auditPath)
	}
	if s.Fallbacks > 0 {
		fmt.Fprintln(w, t.warningStyle().Render(fmt.Sprintf("  %d write(s) went to the fallback file", s.Fallbacks)))
	}
	if s.MirrorFailures > 0 {
		fmt.Fprintln(w, t.errorStyle().Render(fmt.Sprintf("  %d removal(s) could not be mirrored to SurrealDB", s.MirrorFailures)))
	}
}

// printMetrics displays run timing statistics.
func printMetrics(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "\nRun Statistics\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Elapsed: %.1f seconds\n", snap.UptimeSeconds)

	ops := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"Load", snap.Load},
		{"Live set writes", snap.Persist},
		{"Audit appends", snap.Audit},
		{"SurrealDB mirror", snap.Mirror},
		{"Operator answers", snap.Prompt},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", o.name)
		printOpStats(w, o.op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
