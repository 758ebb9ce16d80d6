package auth

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// The reserved loopback port range. Documented in the Qualiscan server so its
// login page knows which ports a local CLI may be listening on; kept narrow
// and out of the common ephemeral range to avoid colliding with other local
// tooling.
const (
	PortRangeStart = 64120
	PortRangeCount = 10
)

// PortRange is a contiguous range of candidate loopback ports, tried in
// order.
type PortRange struct {
	Start int
	Count int
}

// DefaultPortRange is the documented reserved range.
func DefaultPortRange() PortRange {
	return PortRange{Start: PortRangeStart, Count: PortRangeCount}
}

// ListenerOptions configure StartListener. The zero value uses the default
// port range and a no-op logger.
type ListenerOptions struct {
	Ports  PortRange
	Logger *zap.Logger
}

// Listener is one bound loopback server. It listens on both the IPv4 and the
// IPv6 loopback interface for the same port: browsers are free to resolve
// "localhost" to ::1 first, and a server on 127.0.0.1 alone would silently
// refuse that connection and turn a fast failure into a full-timeout hang.
type Listener struct {
	port      int
	srv       *http.Server
	closeOnce sync.Once
	closeErr  error
	log       *zap.Logger
}

// StartListener binds the first port in the range that is free on both
// loopback interfaces and starts serving handler on it, wrapped in the
// baseline security headers. Range exhaustion is fatal and not retried.
func StartListener(handler http.Handler, opts ListenerOptions) (*Listener, error) {
	ports := opts.Ports
	if ports.Count == 0 {
		ports = DefaultPortRange()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for i := 0; i < ports.Count; i++ {
		port := ports.Start + i
		v4, err := net.Listen("tcp4", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			log.Debug("loopback port unavailable", zap.Int("port", port), zap.Error(err))
			continue
		}
		v6, err := net.Listen("tcp6", fmt.Sprintf("[::1]:%d", port))
		if err != nil {
			_ = v4.Close()
			log.Debug("loopback port unavailable on ::1", zap.Int("port", port), zap.Error(err))
			continue
		}

		srv := &http.Server{
			Handler:           securityHeaders(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() { _ = srv.Serve(v4) }()
		go func() { _ = srv.Serve(v6) }()

		log.Debug("loopback listener started", zap.Int("port", port))
		return &Listener{port: port, srv: srv, log: log}, nil
	}

	return nil, fmt.Errorf("no free loopback port in reserved range %d-%d",
		ports.Start, ports.Start+ports.Count-1)
}

// Port returns the bound port.
func (l *Listener) Port() int {
	return l.port
}

// Close stops accepting connections and releases both sockets. Idempotent;
// later calls return the first result.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.srv.Close()
	})
	return l.closeErr
}

// securityHeaders applies the baseline response headers to everything the
// listener serves. They are set before the inner handler runs, so a handler
// that sets the same header explicitly wins.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; connect-src 'self'")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
