package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/hooks"
	"github.com/qualiscan/qsctl/pkg/qsctl/output"
)

func NewHooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage developer agent hooks",
	}
	cmd.AddCommand(
		newHooksInstallCommand(),
		newHooksUninstallCommand(),
		newHooksStatusCommand(),
	)
	return cmd
}

func hookManager(rt *runtimeState) (*hooks.Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return hooks.NewManager(home, rt.Logger()), nil
}

func newHooksInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "install AGENT",
		Short:     "Install the Qualiscan hook for an agent",
		Args:      cobra.ExactArgs(1),
		ValidArgs: hooks.Agents(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			ctxCfg, err := rt.ResolveContext()
			if err != nil {
				return err
			}
			server := rt.resolveServer(ctxCfg)
			manager, err := hookManager(rt)
			if err != nil {
				return err
			}
			if err := manager.Install(args[0], server); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Installed hook for %s\n", args[0])
			return nil
		},
	}
}

func newHooksUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "uninstall AGENT",
		Short:     "Remove the Qualiscan hook from an agent",
		Args:      cobra.ExactArgs(1),
		ValidArgs: hooks.Agents(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			manager, err := hookManager(rt)
			if err != nil {
				return err
			}
			if err := manager.Uninstall(args[0]); err != nil {
				if errors.Is(err, hooks.ErrNotInstalled) {
					_, _ = fmt.Fprintf(rt.Writer(), "No hook installed for %s\n", args[0])
					return nil
				}
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Removed hook for %s\n", args[0])
			return nil
		},
	}
}

func newHooksStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show hook status for all agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			manager, err := hookManager(rt)
			if err != nil {
				return err
			}
			statuses, err := manager.StatusAll()
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.OutputFormat())
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				output.WriteHookStatusTable(rt.Writer(), statuses)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, statuses)
		},
	}
}
