package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doeshing/shai-mongo/internal/domain"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	exampleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// HelpContext is the session state shown around the command table.
type HelpContext struct {
	Provider   domain.ProviderName
	Model      string
	Collection string
}

func qualified(name string) string {
	return domain.CommandNamespace + "." + name
}

// FormatHelp renders the command table with the active collection and backend.
func FormatHelp(cmds []Command, hc HelpContext) string {
	width := 0
	for _, cmd := range cmds {
		if w := len(qualified(cmd.Spec.Name)); w > width {
			width = w
		}
	}
	nameColumn := lipgloss.NewStyle().Width(width + 2)

	var b strings.Builder
	b.WriteString(headerStyle.Render("AI command suite for mongosh"))
	b.WriteString("\n\n")

	collection := hc.Collection
	if collection == "" {
		collection = "none"
	}
	fmt.Fprintf(&b, "Collection: %s. Set it with %s\n\n",
		valueStyle.Render(collection), commandStyle.Render(`ai.collection("collection_name")`))

	for _, cmd := range cmds {
		b.WriteString(nameColumn.Render(commandStyle.Render(qualified(cmd.Spec.Name))))
		b.WriteString(cmd.Spec.Description)
		if cmd.Spec.Example != "" {
			b.WriteString(exampleStyle.Render(" | " + cmd.Spec.Example))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nUsing %s as provider and its %s model",
		valueStyle.Render(string(hc.Provider)), valueStyle.Render(hc.Model))
	return b.String()
}

// CommandHelp renders the usage of a single command.
func CommandHelp(spec Spec) string {
	var b strings.Builder
	b.WriteString(commandStyle.Render(qualified(spec.Name)))
	if spec.Alias != "" {
		b.WriteString(" (alias " + qualified(spec.Alias) + ")")
	}
	b.WriteString(": " + spec.Description)
	if spec.Example != "" {
		b.WriteString("\n" + exampleStyle.Render("Example: "+spec.Example))
	}
	return b.String()
}
