package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  LineKind
		cmd   string
		args  []string
	}{
		{name: "empty", input: "   ", kind: LineEmpty},
		{name: "exit", input: "exit", kind: LineExit},
		{name: "quit call", input: "quit()", kind: LineExit},
		{name: "editor", input: ".editor", kind: LineEditor},
		{name: "use", input: "use shop;", kind: LineUse, args: []string{"shop"}},
		{name: "bare namespace", input: "ai", kind: LineAI},
		{name: "namespace call", input: "ai()", kind: LineAI},
		{name: "free text", input: "ai.ask how do I create an index?", kind: LineAI, cmd: "ask", args: []string{"how do I create an index?"}},
		{name: "call with string", input: `ai.collection("users")`, kind: LineAI, cmd: "collection", args: []string{"users"}},
		{name: "call without args", input: "ai.clear()", kind: LineAI, cmd: "clear"},
		{name: "property access", input: "ai.help", kind: LineAI, cmd: "help"},
		{name: "sub command", input: `ai.config.set("provider", "ollama")`, kind: LineAI, cmd: "config", args: []string{"set", `"provider", "ollama"`}},
		{name: "quoted prompt", input: `ai.query("users named 'Ada'");`, kind: LineAI, cmd: "query", args: []string{"users named 'Ada'"}},
		{name: "free text with parens", input: "ai.shell explain rs.status()", kind: LineAI, cmd: "shell", args: []string{"explain rs.status()"}},
		{name: "mongosh", input: "db.users.find({})", kind: LineEval},
		{name: "similar prefix", input: "aiCollection.find()", kind: LineEval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := ParseLine(tt.input)
			assert.Equal(t, tt.kind, line.Kind)
			assert.Equal(t, tt.cmd, line.Name)
			if len(tt.args) == 0 {
				assert.Empty(t, line.Args)
			} else {
				assert.Equal(t, tt.args, line.Args)
			}
		})
	}
}
