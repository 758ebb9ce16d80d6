package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/auth"
	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/credentials"
	"github.com/qualiscan/qsctl/pkg/version"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Qualiscan",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in via the browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			if server == "" {
				return errors.New("server is required")
			}

			token, err := auth.AcquireToken(cmd.Context(), auth.Options{
				ServerURL: server,
				Mode:      rt.InteractionMode(),
				Timeout:   timeout,
				Logger:    rt.Logger(),
				Out:       rt.Writer(),
			})
			if err != nil {
				return err
			}

			c, err := client.New(
				client.WithServer(server),
				client.WithUserAgent(version.UserAgent()),
				client.WithTLSConfig(ctxCfg.CAFile, ctxCfg.InsecureSkipTLSVerify),
			)
			if err != nil {
				return err
			}
			user, err := c.ValidateToken(cmd.Context(), token)
			if err != nil {
				return err
			}

			store, err := openCredentialStore(rt)
			if err != nil {
				return err
			}
			if err := store.Set(ctxCfg.Name, token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Logged in to %s as %s\n", server, user.Login)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Login timeout (default 50s)")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			token := rt.tokenOverride
			if token == "" {
				store, err := openCredentialStore(rt)
				if err != nil {
					return err
				}
				token, err = store.Get(ctxCfg.Name)
				if errors.Is(err, credentials.ErrNotFound) {
					_, _ = fmt.Fprintln(rt.Writer(), "Not logged in")
					return nil
				}
				if err != nil {
					return err
				}
			}

			c, err := client.New(
				client.WithServer(server),
				client.WithUserAgent(version.UserAgent()),
				client.WithTLSConfig(ctxCfg.CAFile, ctxCfg.InsecureSkipTLSVerify),
			)
			if err != nil {
				return err
			}
			user, err := c.ValidateToken(cmd.Context(), token)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) {
					_, _ = fmt.Fprintf(rt.Writer(), "Stored token rejected by %s; run 'qsctl auth login'\n", server)
					return nil
				}
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Logged in to %s as %s\n", server, user.Login)
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			store, err := openCredentialStore(rt)
			if err != nil {
				return err
			}
			if err := store.Delete(ctxCfg.Name); err != nil {
				if errors.Is(err, credentials.ErrNotFound) {
					_, _ = fmt.Fprintln(rt.Writer(), "Not logged in")
					return nil
				}
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out")
			return nil
		},
	}
}
