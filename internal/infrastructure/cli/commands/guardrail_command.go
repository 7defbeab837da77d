package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewGuardrailCommand creates the guardrail command
func NewGuardrailCommand(get ContainerFunc) *cobra.Command {
	guardrailCmd := &cobra.Command{
		Use:   "guardrail",
		Short: "Inspect the command guardrail",
	}

	guardrailCmd.AddCommand(
		newGuardrailStatusCommand(get),
		newGuardrailCheckCommand(get),
	)

	return guardrailCmd
}

// newGuardrailStatusCommand shows where rules come from
func newGuardrailStatusCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the loaded rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rules: %d (%s)\n", c.Guardrail.RuleCount(), c.Guardrail.Source())
			return nil
		},
	}
}

// newGuardrailCheckCommand evaluates a command without running it
func newGuardrailCheckCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check <command>",
		Short: "Evaluate a mongosh command against the rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			assessment, err := c.Guardrail.Evaluate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Risk: %s (%s)\n", strings.ToUpper(string(assessment.Level)), assessment.Action)
			for _, reason := range assessment.Reasons {
				fmt.Fprintf(out, " - %s\n", reason)
			}
			return nil
		},
	}
}
