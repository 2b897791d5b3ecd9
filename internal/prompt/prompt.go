// Package prompt obtains operator answers from a terminal, a pipe or a script.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrAborted indicates the operator closed the input (EOF or Ctrl+C).
var ErrAborted = errors.New("input closed by operator")

// Asker obtains an answer to one question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
	Close() error
}

// New returns a readline asker when in is a terminal and a line asker otherwise.
func New(in *os.File, out io.Writer) (Asker, error) {
	if term.IsTerminal(int(in.Fd())) {
		return NewTerminal(in, out)
	}
	return NewLineAsker(in, out), nil
}

// Terminal reads answers with line editing and history.
type Terminal struct {
	rl *readline.Instance
}

// NewTerminal creates a readline-backed asker.
func NewTerminal(in io.ReadCloser, out io.Writer) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "> ",
		Stdin:                  in,
		Stdout:                 out,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline: %w", err)
	}
	return &Terminal{rl: rl}, nil
}

// Ask prints question and reads one line.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.rl.SetPrompt(question + " ")
	line, err := t.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", ErrAborted
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Close releases the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}

// LineAsker reads newline-terminated answers from any reader, for pipes and
// redirected input.
type LineAsker struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLineAsker creates an asker reading from in and echoing questions to out.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{reader: bufio.NewReader(in), out: out}
}

// Ask writes question and reads the next line. A final line without a newline
// is still returned; EOF with nothing read is ErrAborted.
func (l *LineAsker) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(l.out, "%s ", question)

	line, err := l.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			fmt.Fprintln(l.out)
			return strings.TrimSpace(line), nil
		}
		if err == io.EOF {
			fmt.Fprintln(l.out)
			return "", ErrAborted
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Close is a no-op; the caller owns the reader.
func (l *LineAsker) Close() error { return nil }

// Scripted replays fixed answers and records every question asked.
type Scripted struct {
	mu        sync.Mutex
	answers   []string
	Questions []string
}

// NewScripted returns an asker that answers in order, then reports ErrAborted.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// Ask returns the next scripted answer.
func (s *Scripted) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Questions = append(s.Questions, question)
	if len(s.answers) == 0 {
		return "", ErrAborted
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Remaining returns how many scripted answers were not consumed.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Close is a no-op.
func (s *Scripted) Close() error { return nil }

// Decline answers "n" to every question. It drives non-interactive scans.
type Decline struct{}

// Ask always declines.
func (Decline) Ask(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "n", nil
}

// Close is a no-op.
func (Decline) Close() error { return nil }
