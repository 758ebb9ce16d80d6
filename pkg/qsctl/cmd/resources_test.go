package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuesList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/issues/search", r.URL.Path)
		assert.Equal(t, "web-app", r.URL.Query().Get("componentKeys"))
		assert.Equal(t, "BLOCKER", r.URL.Query().Get("severities"))
		_, _ = w.Write([]byte(`{"issues":[{"key":"i1","severity":"BLOCKER","status":"OPEN","component":"web-app:main.go","line":7,"message":"Fix this"}]}`))
	}))
	defer server.Close()

	out, err := runCommand(t, "/tmp/nonexistent-config.yaml",
		"issues", "list", "--server", server.URL, "--token", "squ_x",
		"--project", "web-app", "--severity", "BLOCKER")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix this")
}

func TestQualityGateStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qualitygates/project_status", r.URL.Path)
		_, _ = w.Write([]byte(`{"projectStatus":{"status":"ERROR","conditions":[{"metricKey":"coverage","status":"ERROR","actualValue":"40.1","errorThreshold":"80"}]}}`))
	}))
	defer server.Close()

	t.Run("prints the gate", func(t *testing.T) {
		out, err := runCommand(t, "/tmp/nonexistent-config.yaml",
			"qualitygate", "status", "web-app", "--server", server.URL, "--token", "squ_x")
		require.NoError(t, err)
		assert.Contains(t, out, "Quality gate: ERROR")
		assert.Contains(t, out, "coverage")
	})

	t.Run("fail-on-error exits non-zero", func(t *testing.T) {
		_, err := runCommand(t, "/tmp/nonexistent-config.yaml",
			"qualitygate", "status", "web-app", "--server", server.URL, "--token", "squ_x",
			"--fail-on-error")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quality gate failed")
	})
}

func TestProjectsGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"components":[{"key":"web-app","name":"Web App"}]}`))
	}))
	defer server.Close()

	out, err := runCommand(t, "/tmp/nonexistent-config.yaml",
		"projects", "get", "web-app", "--server", server.URL, "--token", "squ_x")
	require.NoError(t, err)
	assert.Contains(t, out, "Web App")

	_, err = runCommand(t, "/tmp/nonexistent-config.yaml",
		"projects", "get", "missing", "--server", server.URL, "--token", "squ_x")
	require.Error(t, err)
}

func TestHooksCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeTestConfig(t, "https://qs.example.com")

	out, err := runCommand(t, path, "hooks", "install", "claude")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed hook for claude")

	out, err = runCommand(t, path, "hooks", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "claude")
	assert.Contains(t, out, "yes")

	out, err = runCommand(t, path, "hooks", "uninstall", "claude")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed hook for claude")

	out, err = runCommand(t, path, "hooks", "uninstall", "claude")
	require.NoError(t, err)
	assert.Contains(t, out, "No hook installed")

	_, err = runCommand(t, path, "hooks", "install", "emacs")
	require.Error(t, err)
}
