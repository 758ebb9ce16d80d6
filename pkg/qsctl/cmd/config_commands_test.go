package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualiscan/qsctl/pkg/qsctl/config"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCommand(t, path, "config", "init", "--server", "https://qs.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized config at")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.CurrentContext)
	require.Len(t, cfg.Contexts, 1)
	assert.Equal(t, "https://qs.example.com", cfg.Contexts[0].Server)

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := runCommand(t, path, "config", "init", "--server", "https://other.example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("force overwrites", func(t *testing.T) {
		_, err := runCommand(t, path, "config", "init", "--server", "https://other.example.com", "--force")
		require.NoError(t, err)
	})
}

func TestConfigView(t *testing.T) {
	path := writeTestConfig(t, "https://qs.example.com")
	out, err := runCommand(t, path, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "current-context: test")
	assert.Contains(t, out, "https://qs.example.com")
}

func TestConfigContexts(t *testing.T) {
	path := writeTestConfig(t, "https://qs.example.com")

	out, err := runCommand(t, path, "config", "get-contexts")
	require.NoError(t, err)
	assert.Contains(t, out, "* test")

	out, err = runCommand(t, path, "config", "current-context")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

func TestConfigAddAndUseContext(t *testing.T) {
	path := writeTestConfig(t, "https://qs.example.com")

	_, err := runCommand(t, path, "config", "add-context", "staging", "--server", "https://staging.example.com")
	require.NoError(t, err)

	_, err = runCommand(t, path, "config", "add-context", "staging", "--server", "https://staging.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err := runCommand(t, path, "config", "use-context", "staging")
	require.NoError(t, err)
	assert.Contains(t, out, "staging")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.CurrentContext)

	_, err = runCommand(t, path, "config", "use-context", "missing")
	require.Error(t, err)
}

func TestConfigDeleteContext(t *testing.T) {
	path := writeTestConfig(t, "https://qs.example.com")
	_, err := runCommand(t, path, "config", "add-context", "staging", "--server", "https://staging.example.com")
	require.NoError(t, err)

	_, err = runCommand(t, path, "config", "delete-context", "staging")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Contexts, 1)

	_, err = runCommand(t, path, "config", "delete-context", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfigSetValue(t *testing.T) {
	path := writeTestConfig(t, "https://qs.example.com")

	cases := []struct {
		key   string
		value string
		check func(t *testing.T, cfg *config.Config)
	}{
		{"settings.output-format", "json", func(t *testing.T, cfg *config.Config) {
			assert.Equal(t, "json", cfg.Settings.OutputFormat)
		}},
		{"settings.page-size", "50", func(t *testing.T, cfg *config.Config) {
			assert.Equal(t, 50, cfg.Settings.PageSize)
		}},
		{"settings.token-storage", "file", func(t *testing.T, cfg *config.Config) {
			assert.Equal(t, "file", cfg.Settings.TokenStorage)
		}},
		{"settings.telemetry-disabled", "true", func(t *testing.T, cfg *config.Config) {
			assert.True(t, cfg.Settings.TelemetryDisabled)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			_, err := runCommand(t, path, "config", "set", tc.key, tc.value)
			require.NoError(t, err)
			cfg, err := config.Load(path)
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}

	t.Run("invalid values", func(t *testing.T) {
		_, err := runCommand(t, path, "config", "set", "settings.output-format", "xml")
		require.Error(t, err)

		_, err = runCommand(t, path, "config", "set", "settings.page-size", "lots")
		require.Error(t, err)

		_, err = runCommand(t, path, "config", "set", "unknown.key", "x")
		require.Error(t, err)
	})
}
