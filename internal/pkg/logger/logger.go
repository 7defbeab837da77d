package logger

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/doeshing/shai-mongo/internal/ports"
)

// CharmLogger adapts charmbracelet/log to ports.Logger.
type CharmLogger struct {
	l *log.Logger
}

// New creates a logger writing to w. Verbose enables debug output; otherwise
// only warnings and errors are shown.
func New(w io.Writer, verbose bool) *CharmLogger {
	if w == nil {
		w = os.Stderr
	}
	l := log.New(w)
	l.SetTimeFormat("")
	l.SetPrefix("shai-mongo")
	l.SetLevel(log.WarnLevel)
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return &CharmLogger{l: l}
}

// NewStd creates a logger on stderr.
func NewStd(verbose bool) *CharmLogger {
	return New(os.Stderr, verbose)
}

// SetLevel parses debug|info|warn|error; unknown values are ignored.
func (c *CharmLogger) SetLevel(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return
	}
	c.l.SetLevel(lvl)
}

func (c *CharmLogger) Debug(msg string, fields map[string]interface{}) {
	c.l.Debug(msg, keyvals(fields)...)
}

func (c *CharmLogger) Info(msg string, fields map[string]interface{}) {
	c.l.Info(msg, keyvals(fields)...)
}

func (c *CharmLogger) Warn(msg string, fields map[string]interface{}) {
	c.l.Warn(msg, keyvals(fields)...)
}

func (c *CharmLogger) Error(msg string, err error, fields map[string]interface{}) {
	kv := keyvals(fields)
	if err != nil {
		kv = append(kv, "err", err)
	}
	c.l.Error(msg, kv...)
}

func keyvals(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

type nop struct{}

// Nop returns a logger that discards everything.
func Nop() ports.Logger {
	return nop{}
}

func (nop) Debug(string, map[string]interface{})        {}
func (nop) Info(string, map[string]interface{})         {}
func (nop) Warn(string, map[string]interface{})         {}
func (nop) Error(string, error, map[string]interface{}) {}

var _ ports.Logger = (*CharmLogger)(nil)
