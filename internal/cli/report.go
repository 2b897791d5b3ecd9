package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/contact-dedupe/internal/dedupe"
	"github.com/raphaelgruber/contact-dedupe/internal/models"
	"github.com/raphaelgruber/contact-dedupe/internal/prompt"
)

var reportCmd = &cobra.Command{
	Use:   "report [file.csv]",
	Short: "List suspected duplicates without changing anything",
	Long: `Scan a contact CSV and print every candidate duplicate pair with the
reason it was flagged. Nothing is written: every candidate is declined.

A progress bar is shown when the output is a terminal.

Examples:
  dedupe report
  dedupe report exports/contacts.csv > duplicates.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	path := defaultInput
	if len(args) > 0 {
		path = args[0]
	}

	data, err := loadDataset(path)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	candidates, res, err := scanReport(context.Background(), data, interactive)
	if err != nil {
		return err
	}

	printCandidates(cmd.OutOrStdout(), defaultTheme, candidates, data.Columns)
	printSummary(cmd.OutOrStdout(), defaultTheme, res, "")
	if verbose {
		printMetrics(cmd.OutOrStdout(), collector.Snapshot())
	}
	return nil
}

// scanReport runs a session without persistence that declines every
// candidate, optionally rendering a progress bar.
func scanReport(ctx context.Context, data *models.Dataset, showProgress bool) ([]dedupe.Candidate, dedupe.Result, error) {
	sess := dedupe.NewSession(data, dedupe.Options{Logger: logger, Metrics: collector})

	var candidates []dedupe.Candidate
	hooks := dedupe.Hooks{
		OnRequest: func(req *dedupe.Request) {
			if req.First {
				candidates = append(candidates, req.Candidate)
			}
		},
	}

	every := max(1, len(data.Records)/100)
	if !showProgress {
		sc := dedupe.NewScanner(sess, dedupe.ScannerOptions{ProgressEvery: every})
		res, err := dedupe.Run(ctx, sc, prompt.Decline{}, hooks)
		return candidates, res, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newScanProgressModel(len(data.Records)))
	sc := dedupe.NewScanner(sess, dedupe.ScannerOptions{
		ProgressEvery: every,
		OnProgress: func(done, total int) {
			p.Send(scanProgressMsg{done: done, total: total})
		},
	})

	var res dedupe.Result
	var scanErr error
	go func() {
		res, scanErr = dedupe.Run(ctx, sc, prompt.Decline{}, hooks)
		p.Send(scanDoneMsg{err: scanErr})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, dedupe.Result{}, fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := finalModel.(scanProgressModel); ok && m.quitting {
		cancel()
		return nil, dedupe.Result{}, fmt.Errorf("report cancelled")
	}
	return candidates, res, scanErr
}

// printCandidates lists every flagged pair.
func printCandidates(w io.Writer, t Theme, candidates []dedupe.Candidate, cols models.Columns) {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "No duplicates found.")
		return
	}
	fmt.Fprintf(w, "Candidates (%d):\n", len(candidates))
	for _, c := range candidates {
		fmt.Fprint(w, renderCandidate(t, c, cols))
	}
}

// scanProgressMsg reports the outer index reached by the scan.
type scanProgressMsg struct {
	done, total int
}

// scanDoneMsg is sent once the scan goroutine has returned.
type scanDoneMsg struct {
	err error
}

// scanProgressModel is the bubbletea model for the report progress bar.
type scanProgressModel struct {
	total    int
	done     int
	progress progress.Model
	theme    Theme
	finished bool
	quitting bool
	err      error
}

func newScanProgressModel(total int) scanProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return scanProgressModel{
		total:    total,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init starts the progress bar.
func (m scanProgressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m scanProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case scanProgressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil

	case scanDoneMsg:
		m.finished = true
		m.done = m.total
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m scanProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m scanProgressModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("Report cancelled.") + "\n"
	}
	if m.finished {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ Scan failed: %s", m.err)) + "\n"
		}
		return m.theme.completedStyle().Render("✓ Scan complete") + "\n"
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	status := m.theme.statusStyle().Render("[scanning]")
	counts := fmt.Sprintf("%d/%d contacts", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press q to cancel")
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}
