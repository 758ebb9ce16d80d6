package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/output"
)

func NewQualityGateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "qualitygate",
		Aliases: []string{"qg"},
		Short:   "Inspect quality gates",
	}
	cmd.AddCommand(newQualityGateStatusCommand())
	return cmd
}

func newQualityGateStatusCommand() *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "status PROJECT_KEY",
		Short: "Show a project's quality gate status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			c, err := buildClient(rt)
			if err != nil {
				return err
			}
			status, err := c.QualityGates().ProjectStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteQualityGateTable(rt.Writer(), status)
			} else if err := output.WriteObject(rt.Writer(), format, status); err != nil {
				return err
			}
			if failOnError && status.Status == "ERROR" {
				return fmt.Errorf("quality gate failed for %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when the gate is in ERROR")
	return cmd
}
