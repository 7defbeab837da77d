package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"github.com/doeshing/shai-mongo/internal/application/commands"
	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// Dispatcher runs ai.* commands by name.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args []string) error
}

// Database is the part of the database context the REPL changes.
type Database interface {
	CurrentDatabaseName() string
	UseDatabase(name string) error
}

// ConfirmFunc asks whether a risky command should run.
type ConfirmFunc func(assessment domain.RiskAssessment, command string) (bool, error)

// REPLDeps are the collaborators of the interactive shell.
type REPLDeps struct {
	Commands    Dispatcher
	Database    Database
	Security    ports.SecurityService
	Executor    ports.CommandExecutor
	Input       *InputQueue
	Output      *Output
	Logger      ports.Logger
	HistoryFile string
	// Confirm defaults to a Prompter on the REPL's line reader.
	Confirm ConfirmFunc
}

// REPL is a mongosh-style read-eval-print loop with the ai.* namespace.
type REPL struct {
	deps REPLDeps
}

// NewREPL creates a REPL.
func NewREPL(deps REPLDeps) *REPL {
	return &REPL{deps: deps}
}

func (r *REPL) prompt() string {
	return r.deps.Database.CurrentDatabaseName() + "> "
}

// Run reads lines until exit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     r.deps.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init line editor: %w", err)
	}
	defer rl.Close()

	read := func(prompt, def string) (string, error) {
		rl.SetPrompt(prompt)
		line, err := rl.ReadlineWithDefault(def)
		if errors.Is(err, readline.ErrInterrupt) {
			return line, ErrInterrupt
		}
		return line, err
	}
	if r.deps.Confirm == nil {
		r.deps.Confirm = NewPrompter(read, rl.Stdout()).Confirm
	}

	for {
		line, err := r.deps.Input.Next(r.prompt(), read)
		switch {
		case errors.Is(err, ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		exit, err := r.Execute(ctx, line)
		if err != nil {
			r.deps.Output.Println(err.Error())
		}
		if exit {
			return nil
		}
	}
}

// Execute handles one input line and reports whether the REPL should exit.
func (r *REPL) Execute(ctx context.Context, input string) (bool, error) {
	line := ParseLine(input)
	switch line.Kind {
	case LineEmpty:
		return false, nil
	case LineExit:
		return true, nil
	case LineEditor:
		r.deps.Input.Inject(domain.EditorModeMarker)
		r.deps.Output.Println("// Entering editor mode (^D to finish, ^C to cancel)")
		return false, nil
	case LineUse:
		if err := r.deps.Database.UseDatabase(line.Args[0]); err != nil {
			return false, err
		}
		r.deps.Output.Println("switched to db " + r.deps.Database.CurrentDatabaseName())
		return false, nil
	case LineAI:
		return false, r.dispatch(ctx, line)
	default:
		return false, r.eval(ctx, line.Text)
	}
}

func (r *REPL) dispatch(ctx context.Context, line Line) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	name := line.Name
	if name == "" {
		name = "help"
	}
	err := r.deps.Commands.Dispatch(ctx, name, line.Args)
	if errors.Is(err, commands.ErrUnknownCommand) {
		return fmt.Errorf("%w. Run %s.help() for the list of commands", err, domain.CommandNamespace)
	}
	if errors.Is(err, domain.ErrAborted) {
		return errors.New("request aborted")
	}
	return err
}

func (r *REPL) eval(ctx context.Context, command string) error {
	assessment, err := r.deps.Security.Evaluate(command)
	if err != nil {
		return err
	}
	switch assessment.Action {
	case domain.ActionBlock:
		return fmt.Errorf("blocked by guardrail: %s", strings.Join(assessment.Reasons, "; "))
	case domain.ActionConfirm:
		ok, err := r.deps.Confirm(assessment, command)
		if err != nil {
			return err
		}
		if !ok {
			r.deps.Output.Println("Command cancelled")
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	result, err := r.deps.Executor.Execute(ctx, r.deps.Database.CurrentDatabaseName(), command)
	if err != nil && result.ExitCode > 0 {
		// mongosh already printed the error
		r.deps.Logger.Debug("mongosh failed", map[string]interface{}{"exit_code": result.ExitCode})
		return nil
	}
	return err
}
