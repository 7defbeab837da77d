package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-mongo/internal/app"
	subcommands "github.com/doeshing/shai-mongo/internal/infrastructure/cli/commands"
	"github.com/doeshing/shai-mongo/internal/infrastructure/config"
	"github.com/doeshing/shai-mongo/internal/infrastructure/database"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is built after flag
// parsing so --uri and --db take effect.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	cwd, _ := os.Getwd()
	if err := config.LoadDotEnv(filepath.Join(cwd, ".env")); err != nil {
		return nil, err
	}

	v := config.NewViper()
	if opts.Verbose {
		v.Set(config.KeyVerbose, true)
	}

	var container *app.Container
	get := func(cmd *cobra.Command) (*app.Container, error) {
		if container != nil {
			return container, nil
		}
		c, err := app.BuildContainer(cmd.Context(), config.LoadProcess(v), config.AIDefaults(v))
		if err != nil {
			return nil, err
		}
		container = c
		return c, nil
	}

	root := &cobra.Command{
		Use:   "shai-mongo",
		Short: "mongosh with an AI command suite",
		Long:  "shai-mongo is an interactive MongoDB shell with ai.* commands that turn natural language into mongosh commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			return runShell(cmd.Context(), c)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if container != nil {
				container.Close(context.WithoutCancel(cmd.Context()))
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyURI, v.GetString(config.KeyURI), "MongoDB connection string")
	flags.String(config.KeyDatabase, "", "database to use (default from the connection string)")
	flags.BoolP(config.KeyVerbose, "v", false, "enable debug logging")
	flags.String(config.KeyMongosh, v.GetString(config.KeyMongosh), "path to the mongosh binary")
	for _, key := range []string{config.KeyURI, config.KeyDatabase, config.KeyVerbose, config.KeyMongosh} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	root.AddCommand(
		subcommands.NewConfigCommand(get),
		subcommands.NewDoctorCommand(get),
		subcommands.NewHistoryCommand(get),
		subcommands.NewAuthCommand(get),
		subcommands.NewGuardrailCommand(get),
		subcommands.NewVersionCommand(),
	)
	root.SetContext(ctx)
	return root, nil
}

func runShell(ctx context.Context, c *app.Container) error {
	output := NewOutput(os.Stdout)
	input := NewInputQueue(os.Stdout)
	spinner := NewSpinner(os.Stdout)

	sess, suite, err := c.NewSession(ctx, app.UI{Input: input, Output: output, Indicator: spinner})
	if err != nil {
		return err
	}
	defer sess.Close()

	db, err := c.Database(ctx)
	if err != nil {
		return err
	}

	output.Markdown(fmt.Sprintf("Connected to `%s`, database `%s`. Type `ai` for the AI commands, `exit` to leave.",
		database.Redact(c.Process.URI), db.CurrentDatabaseName()))

	repl := NewREPL(REPLDeps{
		Commands:    suite,
		Database:    db,
		Security:    c.Guardrail,
		Executor:    c.Executor(output.Stream()),
		Input:       input,
		Output:      output,
		Logger:      c.Logger,
		HistoryFile: filepath.Join(c.Process.HomeDir, "repl_history"),
	})
	return repl.Run(ctx)
}
