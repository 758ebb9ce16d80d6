package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/qualiscan/qsctl/pkg/qsctl/config"
)

// writeTestConfig saves a single-context config and returns its path.
func writeTestConfig(t *testing.T, server string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.CurrentContext = "test"
	cfg.Contexts = []config.Context{{Name: "test", Server: server}}
	require.NoError(t, config.Save(path, &cfg))
	return path
}

func newTestRoot(t *testing.T, configPath string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := NewRootCommand(Config{ConfigPath: configPath, OutputWriter: buf})
	return root, buf
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root, buf := newTestRoot(t, configPath)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}
