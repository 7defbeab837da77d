package session

import (
	"regexp"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
)

const answerPrefix = "Answer: "

var fenceMarker = regexp.MustCompile("```\\w*")

// FormatResponse prepares generated text for its destination. Commands lose
// every code fence marker and surrounding whitespace; responses get the
// answer prefix.
func FormatResponse(text string, expected domain.ExpectedOutput) string {
	if expected == domain.OutputCommand {
		return strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
	}
	return answerPrefix + text
}

// EncodeInput turns a command into the chunks that replay it through the line
// editor. Multi-line commands enter editor mode first, and every line after
// the first starts with backspaces that cancel the indentation the editor
// carries over from the previous line.
func EncodeInput(text string) []string {
	text = strings.TrimSpace(text)
	if !strings.ContainsAny(text, "\r\n") {
		return []string{text}
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	chunks := make([]string, 0, len(lines)*3+1)
	chunks = append(chunks, domain.EditorModeMarker, lines[0])
	for i := 1; i < len(lines); i++ {
		chunks = append(chunks, "\n", strings.Repeat("\b", indentation(lines[i-1])), lines[i])
	}
	return chunks
}

func indentation(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
