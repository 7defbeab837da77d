package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/shai-mongo/internal/domain"
)

// Prompter asks the user to confirm risky commands through the REPL's reader.
type Prompter struct {
	read ReadFunc
	out  io.Writer
}

// NewPrompter constructs a prompter reading answers with read.
func NewPrompter(read ReadFunc, out io.Writer) *Prompter {
	return &Prompter{read: read, out: out}
}

// Confirm shows the assessment and returns whether the user accepted.
// Critical commands require typing "yes"; others accept y.
func (p *Prompter) Confirm(assessment domain.RiskAssessment, command string) (bool, error) {
	fmt.Fprintf(p.out, "\n%s risk detected (%s)\n", strings.ToUpper(string(assessment.Level)), assessment.Action)
	for _, reason := range assessment.Reasons {
		fmt.Fprintf(p.out, " - %s\n", reason)
	}
	fmt.Fprintf(p.out, "Command:\n  %s\n", command)

	if assessment.Level == domain.RiskCritical {
		line, err := p.read("Type 'yes' to confirm (or anything else to cancel): ", "")
		if err != nil {
			return false, ignoreInterrupt(err)
		}
		return strings.TrimSpace(line) == "yes", nil
	}

	line, err := p.read("Continue? [y/N]: ", "")
	if err != nil {
		return false, ignoreInterrupt(err)
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func ignoreInterrupt(err error) error {
	if err == ErrInterrupt {
		return nil
	}
	return err
}
