package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

const editorPrompt = "... "

// ErrInterrupt is returned by a ReadFunc when the user pressed Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// ReadFunc reads one line, pre-filling the editable buffer with def.
type ReadFunc func(prompt, def string) (string, error)

// InputQueue holds text injected ahead of what the user types next and
// replays it through an emulated line editor. In editor mode each new line
// starts with the previous line's indentation and a backspace removes one
// character of it.
type InputQueue struct {
	out io.Writer

	mu      sync.Mutex
	ready   []string
	editor  bool
	lines   []string
	current []rune
}

// NewInputQueue creates a queue echoing replayed lines to out.
func NewInputQueue(out io.Writer) *InputQueue {
	if out == nil {
		out = io.Discard
	}
	return &InputQueue{out: out}
}

// Inject implements ports.InputSink.
func (q *InputQueue) Inject(chunks ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, chunk := range chunks {
		if chunk == domain.EditorModeMarker {
			q.editor = true
			q.lines = nil
			q.current = nil
			continue
		}
		for _, r := range chunk {
			q.feed(r)
		}
	}
}

func (q *InputQueue) feed(r rune) {
	switch r {
	case '\n':
		line := string(q.current)
		if !q.editor {
			q.ready = append(q.ready, line)
			q.current = nil
			return
		}
		q.lines = append(q.lines, line)
		q.current = []rune(strings.Repeat(" ", indentation(line)))
	case '\b':
		if n := len(q.current); n > 0 {
			q.current = q.current[:n-1]
		}
	default:
		q.current = append(q.current, r)
	}
}

// Pending reports whether injected text is waiting.
func (q *InputQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) > 0 || q.editor || len(q.current) > 0
}

// Next returns the next complete input. Injected complete lines are returned
// directly; a partial line becomes the default of the next read. In editor
// mode lines are collected until read reports io.EOF (Ctrl-D), and
// ErrInterrupt discards the buffer.
func (q *InputQueue) Next(prompt string, read ReadFunc) (string, error) {
	q.mu.Lock()
	if len(q.ready) > 0 {
		line := q.ready[0]
		q.ready = q.ready[1:]
		q.mu.Unlock()
		fmt.Fprintln(q.out, prompt+line)
		return line, nil
	}
	def := string(q.current)
	q.current = nil
	if !q.editor {
		q.mu.Unlock()
		return read(prompt, def)
	}
	lines := q.lines
	q.editor = false
	q.lines = nil
	q.mu.Unlock()

	for _, line := range lines {
		fmt.Fprintln(q.out, editorPrompt+line)
	}
	for {
		line, err := read(editorPrompt, def)
		def = ""
		switch {
		case errors.Is(err, io.EOF):
			if line != "" {
				lines = append(lines, line)
			}
			return strings.Join(lines, "\n"), nil
		case errors.Is(err, ErrInterrupt):
			return "", nil
		case err != nil:
			return "", err
		}
		lines = append(lines, line)
	}
}

func indentation(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

var _ ports.InputSink = (*InputQueue)(nil)
