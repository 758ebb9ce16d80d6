package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/qsctl/telemetry"
	"github.com/qualiscan/qsctl/pkg/version"
)

// Execute runs the root command and records a usage event for the invocation.
func Execute() error {
	root := NewRootCommand(DefaultConfig())

	start := time.Now()
	err := root.Execute()

	dispatcher := telemetry.New(telemetryOptions(root))
	dispatcher.Record(invokedCommandPath(root), err == nil, time.Since(start))
	dispatcher.Close()

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// telemetryOptions resolves the dispatcher config from the loaded CLI config.
// Telemetry stays off when no config exists or collection is disabled.
func telemetryOptions(root *cobra.Command) telemetry.Options {
	if strings.EqualFold(os.Getenv("QSCTL_TELEMETRY_DISABLED"), "true") {
		return telemetry.Options{}
	}
	rt, ok := root.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil || rt.cfg == nil || rt.cfg.Settings.TelemetryDisabled {
		return telemetry.Options{}
	}
	var server string
	if ctxCfg, err := rt.ResolveContext(); err == nil {
		server = rt.resolveServer(ctxCfg)
	} else {
		server = rt.serverOverride
	}
	return telemetry.Options{
		Enabled:   true,
		ServerURL: server,
		Version:   version.Version,
		Logger:    rt.Logger(),
	}
}

// invokedCommandPath names the executed subcommand without its arguments,
// e.g. "qsctl issues list".
func invokedCommandPath(root *cobra.Command) string {
	cmd, _, err := root.Find(os.Args[1:])
	if err != nil || cmd == nil {
		return root.Name()
	}
	return cmd.CommandPath()
}
