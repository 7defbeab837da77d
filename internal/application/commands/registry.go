// Package commands maps the ai.* REPL namespace onto session operations
// through a static registration table.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/shai-mongo/internal/ports"
)

// ArgPolicy states how many arguments a command takes.
type ArgPolicy int

const (
	ArgsNone ArgPolicy = iota
	ArgsOptional
	ArgsRequired
	// ArgsRequiredOrHelp prints the help text instead of failing when no
	// arguments are given.
	ArgsRequiredOrHelp
)

var (
	// ErrUnknownCommand is returned by Dispatch for names not in the registry.
	ErrUnknownCommand = errors.New("unknown command")

	errNoArgsAccepted = errors.New("This command does not accept any arguments")
	errArgsRequired   = errors.New("Please specify arguments to run")
	errHelpRequested  = errors.New("help requested")
)

// Spec is the metadata of one command.
type Spec struct {
	Name        string
	Alias       string
	Description string
	Example     string
	Args        ArgPolicy
	Hidden      bool
}

// Handler runs a command with its arguments joined into one string.
type Handler func(ctx context.Context, args string) error

// Command is a registered handler guarded by its argument policy.
type Command struct {
	Spec Spec
	run  Handler
}

// Register wraps handler so that it only runs with arguments its spec accepts.
func Register(spec Spec, handler Handler) Command {
	return Command{
		Spec: spec,
		run: func(ctx context.Context, args string) error {
			switch spec.Args {
			case ArgsNone:
				if args != "" {
					return errNoArgsAccepted
				}
			case ArgsRequired:
				if args == "" {
					return errArgsRequired
				}
			case ArgsRequiredOrHelp:
				if args == "" {
					return errHelpRequested
				}
			}
			return handler(ctx, args)
		},
	}
}

// Run calls the command with args joined by single spaces and trimmed.
func (c Command) Run(ctx context.Context, args ...string) error {
	return c.run(ctx, JoinArgs(args))
}

// JoinArgs joins positional arguments the way every command receives them.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// Registry resolves command names and aliases.
type Registry struct {
	commands []Command
	index    map[string]int
	out      ports.OutputSink
}

// NewRegistry indexes cmds by name and alias. out receives per-command help.
func NewRegistry(out ports.OutputSink, cmds ...Command) (*Registry, error) {
	r := &Registry{
		commands: cmds,
		index:    make(map[string]int, len(cmds)*2),
		out:      out,
	}
	for i, cmd := range cmds {
		for _, name := range []string{cmd.Spec.Name, cmd.Spec.Alias} {
			if name == "" {
				continue
			}
			if _, dup := r.index[name]; dup {
				return nil, fmt.Errorf("duplicate command name %q", name)
			}
			r.index[name] = i
		}
	}
	return r, nil
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (Command, bool) {
	i, ok := r.index[name]
	if !ok {
		return Command{}, false
	}
	return r.commands[i], true
}

// Visible returns the commands shown in help, in registration order.
func (r *Registry) Visible() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		if !cmd.Spec.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}

// Dispatch runs the command registered under name.
func (r *Registry) Dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	err := cmd.Run(ctx, args...)
	if errors.Is(err, errHelpRequested) {
		r.out.Println(CommandHelp(cmd.Spec))
		return nil
	}
	return err
}
