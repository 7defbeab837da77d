package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/doeshing/shai-mongo/internal/ports"
)

// Output writes session text to the terminal.
type Output struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool
}

// NewOutput creates an output sink on w, stdout when nil.
func NewOutput(w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{w: w, tty: isTerminal(w)}
}

// Write prints text without a trailing newline.
func (o *Output) Write(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprint(o.w, text)
}

// Println prints text followed by a newline.
func (o *Output) Println(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, text)
}

// Markdown renders text with glamour on a terminal and prints it as-is
// otherwise.
func (o *Output) Markdown(text string) {
	if !o.tty {
		o.Println(text)
		return
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		o.Println(text)
		return
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		o.Println(text)
		return
	}
	o.Write(strings.TrimRight(rendered, "\n") + "\n")
}

// Stream returns an io.Writer over the sink for child process output.
func (o *Output) Stream() io.Writer {
	return streamWriter{o}
}

type streamWriter struct {
	out *Output
}

func (s streamWriter) Write(p []byte) (int, error) {
	s.out.Write(string(p))
	return len(p), nil
}

var _ ports.OutputSink = (*Output)(nil)
