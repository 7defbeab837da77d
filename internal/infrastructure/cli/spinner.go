package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"golang.org/x/term"

	"github.com/doeshing/shai-mongo/internal/ports"
)

const thinkingMessage = "Thinking..."

// Spinner displays an animated "thinking" line while a model works.
type Spinner struct {
	frames   []string
	interval time.Duration
	message  string
	writer   io.Writer
	enabled  bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner on w. It stays silent unless w is a terminal.
func NewSpinner(w io.Writer) *Spinner {
	return newSpinner(w, isTerminal(w))
}

func newSpinner(w io.Writer, enabled bool) *Spinner {
	return &Spinner{
		frames:   spinner.MiniDot.Frames,
		interval: spinner.MiniDot.FPS,
		message:  thinkingMessage,
		writer:   w,
		enabled:  enabled,
	}
}

// Start begins the animation. It stops by itself once ctx ends.
func (s *Spinner) Start(ctx context.Context) {
	s.mu.Lock()
	if !s.enabled || s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	s.mu.Unlock()

	go s.run(ctx, stop, done)
}

func (s *Spinner) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	idx := 0
	for {
		fmt.Fprintf(s.writer, "\r%s %s", s.frames[idx%len(s.frames)], s.message)
		idx++
		select {
		case <-stop:
			fmt.Fprint(s.writer, "\r\033[K")
			return
		case <-ctx.Done():
			fmt.Fprint(s.writer, "\r\033[K")
			s.mu.Lock()
			if s.stop == stop {
				s.stop, s.done = nil, nil
			}
			s.mu.Unlock()
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the animation is on screen.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var _ ports.Indicator = (*Spinner)(nil)
