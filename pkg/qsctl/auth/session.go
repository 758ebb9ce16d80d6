package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLoginTimeout bounds how long a login attempt waits for a token,
// measured from the moment the loopback listener is up.
const DefaultLoginTimeout = 50 * time.Second

var (
	// ErrLoginTimeout is returned when neither the browser nor the operator
	// delivered a token before the deadline.
	ErrLoginTimeout = errors.New("login timed out waiting for a token")
	// ErrLoginCanceled is returned when the operator or the caller aborted
	// the attempt. Never conflated with ErrLoginTimeout.
	ErrLoginCanceled = errors.New("login canceled")
)

// Options configure one AcquireToken attempt.
type Options struct {
	// ServerURL is the address of the Qualiscan server whose login page will
	// deliver the token. Required.
	ServerURL string

	// Mode decides whether the manual-paste prompt is offered. Resolve it at
	// the boundary (DetectInteractionMode) and pass it in.
	Mode InteractionMode

	// Timeout overrides DefaultLoginTimeout. Zero means the default.
	Timeout time.Duration

	// Ports overrides the reserved loopback port range. Zero value means the
	// default range.
	Ports PortRange

	// ExtraOrigins are additional non-loopback origins to trust besides the
	// server's own origin.
	ExtraOrigins []string

	Logger *zap.Logger

	// Out receives operator-facing messages (the login URL, prompts).
	// Defaults to os.Stderr so stdout stays clean for command output.
	Out io.Writer

	// Prompter and OpenBrowser exist as seams for tests; both default to the
	// real implementations.
	Prompter    Prompter
	OpenBrowser func(url string) error
}

type tokenDelivery struct {
	token  string
	source Source
}

// session is the ephemeral per-attempt aggregate: the listener, the deadline
// timer and the prompt's cancel signal, all torn down exactly once through
// dispose regardless of which race branch settles.
type session struct {
	listener     *Listener
	timer        *time.Timer
	cancelPrompt context.CancelFunc
	log          *zap.Logger
	once         sync.Once
}

// dispose is idempotent and is the single teardown path for every exit
// route. The primary outcome is already decided when it runs, so a close
// failure is logged and swallowed.
func (s *session) dispose() {
	s.once.Do(func() {
		s.timer.Stop()
		s.cancelPrompt()
		if err := s.listener.Close(); err != nil {
			s.log.Debug("listener close failed during teardown", zap.Error(err))
		}
	})
}

// AcquireToken runs one login attempt: it starts the loopback listener,
// opens the browser on the login page, then waits for the first of token
// delivery, manual paste (Interactive mode only), the deadline, or caller
// cancellation. Exactly one outcome is produced and the session is fully
// torn down before AcquireToken returns. The token is returned raw; the
// caller validates it against the API and stores it.
func AcquireToken(ctx context.Context, opts Options) (string, error) {
	if opts.ServerURL == "" {
		return "", errors.New("server URL is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = &stdinPrompter{in: os.Stdin, out: out}
	}
	open := opts.OpenBrowser
	if open == nil {
		open = openBrowser
	}

	origin, err := serverOrigin(opts.ServerURL)
	if err != nil {
		return "", err
	}
	policy := NewPolicy(append([]string{origin}, opts.ExtraOrigins...)...)

	// Buffered to one: the first delivery settles the race, later ones are
	// discarded by the non-blocking send.
	delivered := make(chan tokenDelivery, 1)
	handler := NewCallbackHandler(policy, func(token string, source Source) {
		select {
		case delivered <- tokenDelivery{token: token, source: source}:
		default:
		}
	}, log)

	listener, err := StartListener(handler, ListenerOptions{Ports: opts.Ports, Logger: log})
	if err != nil {
		return "", err
	}

	// The deadline runs from here, not from browser launch: a slow launch
	// consumes budget instead of resetting it.
	timer := time.NewTimer(timeout)
	promptCtx, cancelPrompt := context.WithCancel(context.Background())
	s := &session{listener: listener, timer: timer, cancelPrompt: cancelPrompt, log: log}
	defer s.dispose()

	loginURL, err := LoginURL(opts.ServerURL, listener.Port())
	if err != nil {
		return "", err
	}

	_, _ = fmt.Fprintf(out, "Opening %s in your browser\n", loginURL)
	if err := open(loginURL); err != nil {
		log.Warn("could not open browser", zap.Error(err))
		_, _ = fmt.Fprintln(out, "Could not open a browser; visit the URL above to continue.")
	}

	pasted := make(chan string, 1)
	promptFailed := make(chan error, 1)
	if opts.Mode == Interactive {
		go func() {
			line, err := prompter.ReadLine(promptCtx, "Or generate a token in the UI and paste it here: ")
			if err != nil {
				if promptCtx.Err() != nil {
					return // another branch settled first
				}
				promptFailed <- err
				return
			}
			if line != "" {
				pasted <- line
			}
		}()
	}

	select {
	case d := <-delivered:
		log.Debug("token received", zap.String("source", string(d.source)), zap.Int("port", listener.Port()))
		return d.token, nil
	case token := <-pasted:
		log.Debug("token received", zap.String("source", string(SourceManualPaste)))
		return token, nil
	case err := <-promptFailed:
		return "", fmt.Errorf("%w: %v", ErrLoginCanceled, err)
	case <-timer.C:
		return "", ErrLoginTimeout
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrLoginCanceled, ctx.Err())
	}
}

// IsCloudServer reports whether address points at the managed Qualiscan
// cloud rather than a self-managed server.
func IsCloudServer(address string) bool {
	u, err := url.Parse(address)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "qualiscan.io" || strings.HasSuffix(host, ".qualiscan.io")
}

// LoginURL builds the browser URL for the server's agent-login page with the
// bound loopback port embedded. Cloud and self-managed servers expose the
// page under different paths.
func LoginURL(server string, port int) (string, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server address: %q", server)
	}
	loginPath := "/sessions/agent"
	if IsCloudServer(server) {
		loginPath = "/account/connect"
	}
	u.Path = path.Join(u.Path, loginPath)
	q := u.Query()
	q.Set("port", strconv.Itoa(port))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func serverOrigin(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server address: %q", server)
	}
	return u.Scheme + "://" + u.Host, nil
}
