package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shai-mongo/internal/application/doctor"
	"github.com/doeshing/shai-mongo/internal/domain"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(get ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose provider, database and local setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := get(cmd)
			if err != nil {
				return err
			}
			report, err := c.Doctor(cmd.Context()).Run(cmd.Context())

			// Display report even if there were errors
			displayDoctorReport(cmd.OutOrStdout(), report)

			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			if doctor.Failed(report) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}
