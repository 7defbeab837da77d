package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerStartStopIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, true)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.Running())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())

	out := buf.String()
	assert.Contains(t, out, thinkingMessage)
	assert.True(t, strings.HasSuffix(out, "\r\033[K"))
}

func TestSpinnerStopsWhenContextEnds(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, true)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)

	// A later request can show it again.
	s.Start(context.Background())
	assert.True(t, s.Running())
	s.Stop()
}

func TestSpinnerDisabledOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)

	s.Start(context.Background())
	assert.False(t, s.Running())
	s.Stop()
	assert.Empty(t, buf.String())
}
