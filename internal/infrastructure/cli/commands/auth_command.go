package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/infrastructure/credentials"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// NewAuthCommand creates the auth command for stored provider credentials
func NewAuthCommand(get ContainerFunc) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
	}
	authCmd.AddCommand(newAuthSetKeyCommand(get), newAuthStatusCommand(get))
	return authCmd
}

// newAuthSetKeyCommand creates the 'auth set-key' subcommand
func newAuthSetKeyCommand(get ContainerFunc) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:       "set-key <provider>",
		Short:     "Store an API key in the OS keyring",
		Args:      cobra.ExactArgs(1),
		ValidArgs: keyedProviders(),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := keyedProvider(args[0])
			if err != nil {
				return err
			}
			c, err := get(cmd)
			if err != nil {
				return err
			}
			if key == "" {
				if key, err = promptAPIKey(def); err != nil {
					return err
				}
			}
			if err := storeAPIKey(c.Secrets, def, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key for %s saved.\n", def.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	return cmd
}

// newAuthStatusCommand creates the 'auth status' subcommand
func newAuthStatusCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers have credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			for _, def := range domain.Providers {
				if !def.RequiresAPIKey() {
					continue
				}
				state := "missing"
				if c.Keys.APIKey(def) != "" {
					state = "configured"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", def.Name, state)
			}
			return nil
		},
	}
}

func keyedProvider(name string) (domain.ProviderDefinition, error) {
	def, ok := domain.LookupProvider(domain.ProviderName(strings.TrimSpace(name)))
	if !ok {
		return def, fmt.Errorf("unknown provider %q, expected one of %s", name, strings.Join(keyedProviders(), ", "))
	}
	if !def.RequiresAPIKey() {
		return def, fmt.Errorf("%s does not use an API key", def.Name)
	}
	return def, nil
}

func keyedProviders() []string {
	var names []string
	for _, def := range domain.Providers {
		if def.RequiresAPIKey() {
			names = append(names, string(def.Name))
		}
	}
	return names
}

func promptAPIKey(def domain.ProviderDefinition) (string, error) {
	var key string
	err := huh.NewInput().
		Title(fmt.Sprintf("%s API key", def.Name)).
		Description(fmt.Sprintf("Environment variables %s take precedence.", strings.Join(def.APIKeyEnv, ", "))).
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Run()
	if err != nil {
		return "", err
	}
	return key, nil
}

func storeAPIKey(secrets ports.SecretStore, def domain.ProviderDefinition, key string) error {
	if secrets == nil {
		return errors.New(ErrSecretStoreUnavailable)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New(ErrEmptyKey)
	}
	return secrets.Set(credentials.APIKeyName(def.Name), key)
}
