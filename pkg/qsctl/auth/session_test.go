package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deliverAfter returns an OpenBrowser stub that plays the part of the login
// page: it extracts the loopback port from the login URL and posts the token
// back after the given delay.
func deliverAfter(t *testing.T, token string, delay time.Duration) func(string) error {
	t.Helper()
	return func(loginURL string) error {
		parsed, err := url.Parse(loginURL)
		require.NoError(t, err)
		port := parsed.Query().Get("port")
		require.NotEmpty(t, port)
		go func() {
			time.Sleep(delay)
			resp, err := http.Post(
				fmt.Sprintf("http://127.0.0.1:%s/", port),
				"application/json",
				strings.NewReader(fmt.Sprintf(`{"token":%q}`, token)),
			)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}

type stubPrompter struct {
	line string
	err  error
	wait time.Duration
}

func (p *stubPrompter) ReadLine(ctx context.Context, _ string) (string, error) {
	if p.wait > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.wait):
		}
	}
	return p.line, p.err
}

func TestAcquireTokenNetworkDelivery(t *testing.T) {
	var out bytes.Buffer
	open := deliverAfter(t, "squ_abc123", 10*time.Millisecond)

	// Capture the bound port so we can prove teardown happened.
	var port string
	wrapped := func(loginURL string) error {
		u, _ := url.Parse(loginURL)
		port = u.Query().Get("port")
		return open(loginURL)
	}

	token, err := AcquireToken(context.Background(), Options{
		ServerURL:   "https://qs.example.com",
		Mode:        NonInteractive,
		Timeout:     50 * time.Second,
		Out:         &out,
		OpenBrowser: wrapped,
	})
	require.NoError(t, err)
	assert.Equal(t, "squ_abc123", token)

	// The listener must already be closed by the time AcquireToken returned.
	_, dialErr := net.DialTimeout("tcp", "127.0.0.1:"+port, 200*time.Millisecond)
	assert.Error(t, dialErr)
}

func TestAcquireTokenTimeout(t *testing.T) {
	var port string
	start := time.Now()
	_, err := AcquireToken(context.Background(), Options{
		ServerURL: "https://qs.example.com",
		Mode:      NonInteractive,
		Timeout:   100 * time.Millisecond,
		Out:       io.Discard,
		OpenBrowser: func(loginURL string) error {
			u, _ := url.Parse(loginURL)
			port = u.Query().Get("port")
			return nil
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginTimeout)
	assert.NotErrorIs(t, err, ErrLoginCanceled)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, dialErr := net.DialTimeout("tcp", "127.0.0.1:"+port, 200*time.Millisecond)
	assert.Error(t, dialErr)
}

func TestAcquireTokenCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := AcquireToken(ctx, Options{
		ServerURL:   "https://qs.example.com",
		Mode:        NonInteractive,
		Out:         io.Discard,
		OpenBrowser: func(string) error { return nil },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginCanceled)
	assert.NotErrorIs(t, err, ErrLoginTimeout)
}

func TestAcquireTokenManualPaste(t *testing.T) {
	token, err := AcquireToken(context.Background(), Options{
		ServerURL:   "https://qs.example.com",
		Mode:        Interactive,
		Out:         io.Discard,
		OpenBrowser: func(string) error { return nil },
		Prompter:    &stubPrompter{line: "squ_pasted"},
	})
	require.NoError(t, err)
	assert.Equal(t, "squ_pasted", token)
}

func TestAcquireTokenPromptInterrupt(t *testing.T) {
	_, err := AcquireToken(context.Background(), Options{
		ServerURL:   "https://qs.example.com",
		Mode:        Interactive,
		Out:         io.Discard,
		OpenBrowser: func(string) error { return nil },
		Prompter:    &stubPrompter{err: io.EOF},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginCanceled)
}

type promptSpy struct {
	called bool
}

func (p *promptSpy) ReadLine(context.Context, string) (string, error) {
	p.called = true
	return "squ_never", nil
}

func TestAcquireTokenNonInteractiveSkipsPrompt(t *testing.T) {
	spy := &promptSpy{}
	_, err := AcquireToken(context.Background(), Options{
		ServerURL:   "https://qs.example.com",
		Mode:        NonInteractive,
		Timeout:     50 * time.Millisecond,
		Out:         io.Discard,
		OpenBrowser: func(string) error { return nil },
		Prompter:    spy,
	})
	require.ErrorIs(t, err, ErrLoginTimeout)
	assert.False(t, spy.called)
}

func TestAcquireTokenNetworkBeatsSlowPrompt(t *testing.T) {
	token, err := AcquireToken(context.Background(), Options{
		ServerURL:   "https://qs.example.com",
		Mode:        Interactive,
		Timeout:     10 * time.Second,
		Out:         io.Discard,
		OpenBrowser: deliverAfter(t, "squ_fast", 10*time.Millisecond),
		Prompter:    &stubPrompter{line: "squ_slow", wait: 5 * time.Second},
	})
	require.NoError(t, err)
	assert.Equal(t, "squ_fast", token)
}

func TestAcquireTokenBrowserFailureIsNonFatal(t *testing.T) {
	var out bytes.Buffer
	open := deliverAfter(t, "squ_after_failure", 10*time.Millisecond)
	token, err := AcquireToken(context.Background(), Options{
		ServerURL: "https://qs.example.com",
		Mode:      NonInteractive,
		Out:       &out,
		OpenBrowser: func(loginURL string) error {
			// Still schedule delivery, then report launch failure.
			_ = open(loginURL)
			return fmt.Errorf("no display")
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "squ_after_failure", token)
	assert.Contains(t, out.String(), "visit the URL above")
}

func TestAcquireTokenRejectsBadServer(t *testing.T) {
	_, err := AcquireToken(context.Background(), Options{Mode: NonInteractive})
	require.Error(t, err)

	_, err = AcquireToken(context.Background(), Options{
		ServerURL: "not a url",
		Mode:      NonInteractive,
	})
	require.Error(t, err)
}

func TestLoginURL(t *testing.T) {
	t.Run("self-managed server", func(t *testing.T) {
		u, err := LoginURL("https://qs.internal.example:9000", 64123)
		require.NoError(t, err)
		assert.Equal(t, "https://qs.internal.example:9000/sessions/agent?port=64123", u)
	})

	t.Run("cloud server", func(t *testing.T) {
		u, err := LoginURL("https://app.qualiscan.io", 64120)
		require.NoError(t, err)
		assert.Equal(t, "https://app.qualiscan.io/account/connect?port=64120", u)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		u, err := LoginURL("https://qs.example.com/", 64121)
		require.NoError(t, err)
		assert.Equal(t, "https://qs.example.com/sessions/agent?port=64121", u)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := LoginURL("not a url", 64120)
		require.Error(t, err)
	})
}

func TestIsCloudServer(t *testing.T) {
	assert.True(t, IsCloudServer("https://app.qualiscan.io"))
	assert.True(t, IsCloudServer("https://eu.qualiscan.io"))
	assert.True(t, IsCloudServer("https://qualiscan.io"))
	assert.False(t, IsCloudServer("https://qualiscan.io.evil.com"))
	assert.False(t, IsCloudServer("https://qs.example.com"))
	assert.False(t, IsCloudServer("not a url"))
}
