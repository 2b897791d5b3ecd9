package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineAsker(t *testing.T) {
	var out bytes.Buffer
	a := NewLineAsker(strings.NewReader(" y \nno\n2"), &out)
	ctx := context.Background()

	answer, err := a.Ask(ctx, "Duplicate? (y/n)")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)

	answer, err = a.Ask(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, "no", answer)

	answer, err = a.Ask(ctx, "Keep which?")
	require.NoError(t, err)
	assert.Equal(t, "2", answer, "last line without newline is still read")

	_, err = a.Ask(ctx, "More?")
	assert.ErrorIs(t, err, ErrAborted)

	assert.Contains(t, out.String(), "Duplicate? (y/n) ")
	assert.NoError(t, a.Close())
}

func TestLineAsker_CancelledContext(t *testing.T) {
	a := NewLineAsker(strings.NewReader("y\n"), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Ask(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScripted(t *testing.T) {
	s := NewScripted("y", "n")
	ctx := context.Background()

	first, err := s.Ask(ctx, "one")
	require.NoError(t, err)
	second, err := s.Ask(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, "y", first)
	assert.Equal(t, "n", second)
	assert.Equal(t, 0, s.Remaining())

	_, err = s.Ask(ctx, "three")
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, []string{"one", "two", "three"}, s.Questions)
}

func TestDecline(t *testing.T) {
	answer, err := Decline{}.Ask(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "n", answer)
}
