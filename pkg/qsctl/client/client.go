// Package client is the Qualiscan REST API client used by qsctl commands.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	rc *resty.Client
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	rc := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "qsctl").
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return false
			}
			return r.StatusCode() == http.StatusBadGateway ||
				r.StatusCode() == http.StatusServiceUnavailable ||
				r.StatusCode() == http.StatusGatewayTimeout
		})

	// Each attempt gets its own correlation ID so server logs can be matched
	// with a failed CLI run.
	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-Id", uuid.NewString())
		return nil
	})

	c := &Client{rc: rc}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.rc.BaseURL == "" {
		return nil, errors.New("server is required")
	}
	return c, nil
}

func WithServer(server string) Option {
	return func(c *Client) error {
		if server == "" {
			return errors.New("server is required")
		}
		c.rc.SetBaseURL(strings.TrimRight(server, "/"))
		return nil
	}
}

func WithToken(token string) Option {
	return func(c *Client) error {
		if token != "" {
			c.rc.SetAuthToken(token)
		}
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.rc.SetHeader("User-Agent", userAgent)
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout > 0 {
			c.rc.SetTimeout(timeout)
		}
		return nil
	}
}

func WithTLSConfig(caFile string, insecureSkipTLSVerify bool) Option {
	return func(c *Client) error {
		tlsConfig, err := loadTLSConfig(caFile, insecureSkipTLSVerify)
		if err != nil {
			return err
		}
		c.rc.SetTLSClientConfig(tlsConfig)
		return nil
	}
}

// WithVerbose routes request/response lines to logf, for --verbose runs.
func WithVerbose(logf func(format string, args ...any)) Option {
	return func(c *Client) error {
		c.rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			logf("%s %s -> %s (%s)", resp.Request.Method, resp.Request.URL, resp.Status(), resp.Time())
			return nil
		})
		return nil
	}
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure}
	if caFile == "" {
		return tlsConfig, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// APIError is a non-2xx answer from the Qualiscan API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

func apiError(resp *resty.Response) error {
	body := resp.Body()
	var payload struct {
		Error  string `json:"error"`
		Errors []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}
	msg := strings.TrimSpace(payload.Error)
	if msg == "" && len(payload.Errors) > 0 {
		msg = strings.TrimSpace(payload.Errors[0].Msg)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
