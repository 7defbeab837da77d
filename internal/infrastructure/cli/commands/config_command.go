package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	aicommands "github.com/doeshing/shai-mongo/internal/application/commands"
	configapp "github.com/doeshing/shai-mongo/internal/application/config"
	"github.com/doeshing/shai-mongo/internal/domain"
)

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(get ContainerFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change the AI settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(get, cmd, func(store *configapp.Store) error {
				return listConfiguration(cmd.OutOrStdout(), store)
			})
		},
	}

	configCmd.AddCommand(
		newConfigListCommand(get),
		newConfigGetCommand(get),
		newConfigSetCommand(get),
		newConfigPathCommand(get),
	)

	return configCmd
}

func withStore(get ContainerFunc, cmd *cobra.Command, fn func(store *configapp.Store) error) error {
	c, err := get(cmd)
	if err != nil {
		return err
	}
	return fn(c.ConfigStore)
}

// newConfigListCommand creates the 'config list' subcommand
func newConfigListCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(get, cmd, func(store *configapp.Store) error {
				return listConfiguration(cmd.OutOrStdout(), store)
			})
		},
	}
}

// newConfigGetCommand creates the 'config get' subcommand
func newConfigGetCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: configKeyNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(get, cmd, func(store *configapp.Store) error {
				value, err := store.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", args[0], value)
				return nil
			})
		},
	}
}

// newConfigSetCommand creates the 'config set' subcommand
func newConfigSetCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (true, false and null are parsed)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(get, cmd, func(store *configapp.Store) error {
				value := aicommands.ParseValue(strings.Join(args[1:], " "))
				if err := store.Set(cmd.Context(), args[0], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to %v\n", args[0], value)
				return nil
			})
		},
	}
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Settings.Path())
			return nil
		},
	}
}

func listConfiguration(out io.Writer, store *configapp.Store) error {
	fmt.Fprintln(out, store.Describe())
	return nil
}

func configKeyNames() []string {
	names := make([]string, 0, len(domain.ConfigKeys))
	for _, key := range domain.ConfigKeys {
		names = append(names, string(key))
	}
	return names
}
