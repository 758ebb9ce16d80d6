package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/config"
	"github.com/qualiscan/qsctl/pkg/qsctl/credentials"
	"github.com/qualiscan/qsctl/pkg/version"
)

func buildClient(rt *runtimeState) (*client.Client, error) {
	// If both server and token are provided via flags/env vars, bypass
	// config and context resolution entirely.
	if rt.serverOverride != "" && rt.tokenOverride != "" {
		options := []client.Option{
			client.WithServer(rt.serverOverride),
			client.WithToken(rt.tokenOverride),
			client.WithUserAgent(version.UserAgent()),
		}
		options = appendTimeoutOption(rt, options)
		options = append(options, client.WithTLSConfig("", false))
		options = appendVerboseOption(rt, options)
		return client.New(options...)
	}

	if err := rt.EnsureConfigLoaded(); err != nil {
		return nil, err
	}
	ctxCfg, err := rt.ResolveContext()
	if err != nil {
		return nil, err
	}
	server := rt.resolveServer(ctxCfg)
	if server == "" {
		return nil, errors.New("server is required")
	}

	token := rt.tokenOverride
	if token == "" {
		token, err = resolveStoredToken(rt, ctxCfg)
		if err != nil {
			return nil, err
		}
	}

	options := []client.Option{
		client.WithServer(server),
		client.WithToken(token),
		client.WithUserAgent(version.UserAgent()),
	}
	options = appendTimeoutOption(rt, options)
	options = append(options, client.WithTLSConfig(ctxCfg.CAFile, ctxCfg.InsecureSkipTLSVerify))
	options = appendVerboseOption(rt, options)
	return client.New(options...)
}

func appendTimeoutOption(rt *runtimeState, options []client.Option) []client.Option {
	if rt.cfg != nil && rt.cfg.Settings.Timeout != "" {
		if timeout, err := time.ParseDuration(rt.cfg.Settings.Timeout); err == nil {
			options = append(options, client.WithTimeout(timeout))
		}
	}
	return options
}

// Verbose diagnostics go to stderr to avoid corrupting JSON output.
func appendVerboseOption(rt *runtimeState, options []client.Option) []client.Option {
	if rt.verbose {
		options = append(options, client.WithVerbose(func(format string, args ...any) {
			_, _ = fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
		}))
	}
	return options
}

func openCredentialStore(rt *runtimeState) (credentials.Store, error) {
	return credentials.Open(rt.TokenStorage(), config.DefaultCredentialsPath())
}

func resolveStoredToken(rt *runtimeState, ctxCfg *config.Context) (string, error) {
	store, err := openCredentialStore(rt)
	if err != nil {
		return "", err
	}
	token, err := store.Get(ctxCfg.Name)
	if errors.Is(err, credentials.ErrNotFound) {
		return "", errors.New("not authenticated; run 'qsctl auth login'")
	}
	if err != nil {
		return "", err
	}
	return token, nil
}
