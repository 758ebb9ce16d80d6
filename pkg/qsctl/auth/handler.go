package auth

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// callbackHandler is the thin adapter binding Decide to a real socket. It
// owns body ingestion (with the byte cap), response rendering and the CORS
// preflight; all trust decisions live in Decide.
type callbackHandler struct {
	policy  Policy
	deliver func(token string, source Source)
	log     *zap.Logger
}

// NewCallbackHandler returns the HTTP handler served on the loopback
// listener. deliver is invoked at most once per request carrying a token;
// exactly-once semantics across the whole login attempt are the session's
// job, not the handler's.
func NewCallbackHandler(policy Policy, deliver func(token string, source Source), log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &callbackHandler{policy: policy, deliver: deliver, log: log}
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Method == http.MethodPost && r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.log.Debug("request body over cap", zap.Int64("limit", tooLarge.Limit))
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			h.log.Debug("request body read failed", zap.Error(err))
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "OK")
			return
		}
	}

	decision := Decide(r.Method, r.Host, r.RequestURI, r.Header, body, h.policy)
	switch decision.Verdict {
	case VerdictDeny:
		h.log.Debug("rejected loopback request",
			zap.String("origin", r.Header.Get("Origin")),
			zap.String("host", r.Host))
		w.WriteHeader(http.StatusForbidden)
	case VerdictAllow:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, confirmationPage)
		h.deliver(decision.Token, decision.Source)
	default:
		if r.Method == http.MethodOptions {
			h.writePreflight(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "OK")
	}
}

// writePreflight answers a CORS preflight from an allowed origin. The
// private-network-access flag is required by Chromium before it lets a public
// page talk to a loopback address.
func (h *callbackHandler) writePreflight(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !IsLoopbackOrigin(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Private-Network", "true")
	}
	w.WriteHeader(http.StatusOK)
}
