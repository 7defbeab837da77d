package cli

import (
	"strings"

	"github.com/doeshing/shai-mongo/internal/application/commands"
	"github.com/doeshing/shai-mongo/internal/domain"
)

// LineKind classifies a REPL input line.
type LineKind int

const (
	LineEmpty LineKind = iota
	LineExit
	LineEditor
	LineUse
	LineAI
	LineEval
)

// Line is a parsed REPL input.
type Line struct {
	Kind LineKind
	// Name is the ai.* command; empty means the bare namespace.
	Name string
	Args []string
	Text string
}

// ParseLine recognises ai.<name>(args), ai.<name> free text, ai.<name>.<sub>(args),
// use <db> and the exit commands. Everything else is evaluated by mongosh.
func ParseLine(input string) Line {
	text := strings.TrimSpace(input)
	switch text {
	case "":
		return Line{Kind: LineEmpty}
	case "exit", "quit", "exit()", "quit()", ".exit":
		return Line{Kind: LineExit, Text: text}
	case ".editor":
		return Line{Kind: LineEditor, Text: text}
	}

	if db, ok := strings.CutPrefix(text, "use "); ok && !strings.ContainsAny(text, "\n") {
		return Line{Kind: LineUse, Args: []string{strings.TrimSuffix(strings.TrimSpace(db), ";")}, Text: text}
	}

	ns := domain.CommandNamespace
	if text == ns || text == ns+"()" {
		return Line{Kind: LineAI, Text: text}
	}
	rest, ok := strings.CutPrefix(text, ns+".")
	if !ok {
		return Line{Kind: LineEval, Text: text}
	}

	end := strings.IndexAny(rest, "( \t\n")
	path, tail := rest, ""
	if end >= 0 {
		path, tail = rest[:end], rest[end:]
	}
	if path == "" {
		return Line{Kind: LineEval, Text: text}
	}
	segments := strings.Split(path, ".")
	line := Line{Kind: LineAI, Name: segments[0], Args: segments[1:], Text: text}

	if arg := callArgs(tail); arg != "" {
		line.Args = append(line.Args, arg)
	}
	return line
}

// callArgs unwraps `(...)` call syntax; a single string literal is unquoted.
// Free text after a space is taken verbatim.
func callArgs(tail string) string {
	tail = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tail), ";"))
	if !strings.HasPrefix(tail, "(") {
		return tail
	}
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(tail, "("), ")"))
	if tokens := commands.Tokenize(inner); len(tokens) == 1 {
		return commands.Unquote(tokens[0])
	}
	return inner
}
