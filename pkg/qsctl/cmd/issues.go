package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/output"
)

func NewIssuesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Browse analysis findings",
	}
	cmd.AddCommand(newIssuesListCommand())
	return cmd
}

func newIssuesListCommand() *cobra.Command {
	var (
		projectKey string
		severities []string
		statuses   []string
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			c, err := buildClient(rt)
			if err != nil {
				return err
			}
			if pageSize == 0 && rt.cfg != nil {
				pageSize = rt.cfg.Settings.PageSize
			}
			issues, err := c.Issues().Search(cmd.Context(), client.IssueQuery{
				ProjectKey: projectKey,
				Severities: severities,
				Statuses:   statuses,
				PageSize:   pageSize,
			})
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteIssueTable(rt.Writer(), issues)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, issues)
		},
	}

	cmd.Flags().StringVarP(&projectKey, "project", "p", "", "Project key to filter on")
	cmd.Flags().StringSliceVar(&severities, "severity", nil, "Severities to include (e.g. BLOCKER,CRITICAL)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Statuses to include (e.g. OPEN,CONFIRMED)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Number of issues to fetch")
	return cmd
}
