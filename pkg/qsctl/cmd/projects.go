package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/output"
)

func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse analyzed projects",
	}
	cmd.AddCommand(
		newProjectsListCommand(),
		newProjectsGetCommand(),
	)
	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var (
		query    string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
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
			projects, err := c.Projects().Search(cmd.Context(), client.ProjectQuery{
				Query:    query,
				PageSize: pageSize,
			})
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteProjectTable(rt.Writer(), projects)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, projects)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter projects by name or key")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Number of projects to fetch")
	return cmd
}

func newProjectsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Show one project",
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
			project, err := c.Projects().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteProjectTable(rt.Writer(), []client.Project{*project})
				return nil
			}
			return output.WriteObject(rt.Writer(), format, project)
		},
	}
}
