package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualiscan/qsctl/pkg/qsctl/client"
	"github.com/qualiscan/qsctl/pkg/qsctl/credentials"
)

// useFileCredentials points the file token store at a temp path and returns it.
func useFileCredentials(t *testing.T) *credentials.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	t.Setenv("QSCTL_CREDENTIALS", path)
	return &credentials.File{Path: path}
}

func newUserServer(t *testing.T, wantToken string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(client.User{Login: "alice", Active: true})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAuthStatus(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		useFileCredentials(t)
		path := writeTestConfig(t, "https://qs.example.com")

		out, err := runCommand(t, path, "auth", "status", "--token-storage", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Not logged in")
	})

	t.Run("valid stored token", func(t *testing.T) {
		store := useFileCredentials(t)
		server := newUserServer(t, "squ_stored")
		require.NoError(t, store.Set("test", "squ_stored"))
		path := writeTestConfig(t, server.URL)

		out, err := runCommand(t, path, "auth", "status", "--token-storage", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged in to "+server.URL+" as alice")
	})

	t.Run("rejected stored token", func(t *testing.T) {
		store := useFileCredentials(t)
		server := newUserServer(t, "squ_other")
		require.NoError(t, store.Set("test", "squ_stale"))
		path := writeTestConfig(t, server.URL)

		out, err := runCommand(t, path, "auth", "status", "--token-storage", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "rejected")
	})
}

func TestAuthLogout(t *testing.T) {
	t.Run("removes stored token", func(t *testing.T) {
		store := useFileCredentials(t)
		require.NoError(t, store.Set("test", "squ_stored"))
		path := writeTestConfig(t, "https://qs.example.com")

		out, err := runCommand(t, path, "auth", "logout", "--token-storage", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged out")

		_, err = store.Get("test")
		assert.ErrorIs(t, err, credentials.ErrNotFound)
	})

	t.Run("not logged in", func(t *testing.T) {
		useFileCredentials(t)
		path := writeTestConfig(t, "https://qs.example.com")

		out, err := runCommand(t, path, "auth", "logout", "--token-storage", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Not logged in")
	})
}

func TestAuthLoginRequiresServer(t *testing.T) {
	useFileCredentials(t)
	path := writeTestConfig(t, "")

	_, err := runCommand(t, path, "auth", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server is required")
}
