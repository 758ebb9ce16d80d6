package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// MaxBodyBytes caps how much of a request body the listener will buffer.
// Anything larger is aborted with 413 before reaching the decision logic.
const MaxBodyBytes = 4096

// Source identifies which channel produced a token.
type Source string

const (
	SourcePostBody    Source = "post-body"
	SourceGetQuery    Source = "get-query"
	SourceManualPaste Source = "manual-paste"
)

// Policy lists the non-loopback origins the listener trusts in addition to
// the implicit loopback allowlist. In practice this holds the origin of the
// Qualiscan server whose login page delivers the token.
type Policy struct {
	AllowedOrigins map[string]struct{}
}

// NewPolicy builds a Policy from extra trusted origins.
func NewPolicy(origins ...string) Policy {
	p := Policy{AllowedOrigins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o != "" {
			p.AllowedOrigins[o] = struct{}{}
		}
	}
	return p
}

// OriginAllowed reports whether an Origin header value is trusted, either as
// a loopback origin or via the explicit allowlist.
func (p Policy) OriginAllowed(origin string) bool {
	if IsLoopbackOrigin(origin) {
		return true
	}
	_, ok := p.AllowedOrigins[origin]
	return ok
}

// Verdict is the outcome of inspecting one request.
type Verdict int

const (
	// VerdictNoOp means the request is harmless but carries no token.
	VerdictNoOp Verdict = iota
	// VerdictAllow means a token was extracted.
	VerdictAllow
	// VerdictDeny means the request failed origin or host validation.
	VerdictDeny
)

// Decision is what Decide returns for one request.
type Decision struct {
	Verdict Verdict
	Token   string
	Source  Source
}

// Decide is the pure request classifier behind the loopback listener: it
// validates the Origin and Host, then attempts token extraction from a POST
// JSON body or a GET query string. It never errors; anything suspicious is a
// Deny and anything merely useless is a NoOp, so stray local probes produce
// no signal about which branch they hit.
func Decide(method, host, requestURI string, header http.Header, body []byte, policy Policy) Decision {
	if origin := header.Get("Origin"); origin != "" && !policy.OriginAllowed(origin) {
		return Decision{Verdict: VerdictDeny}
	}
	if !IsLoopbackHost(host) {
		return Decision{Verdict: VerdictDeny}
	}

	parsed, err := url.ParseRequestURI(requestURI)
	if err != nil {
		return Decision{Verdict: VerdictNoOp}
	}
	if parsed.Path != "/" {
		return Decision{Verdict: VerdictNoOp}
	}

	switch method {
	case http.MethodPost:
		if token, ok := extractTokenFromPostBody(body); ok {
			return Decision{Verdict: VerdictAllow, Token: token, Source: SourcePostBody}
		}
	case http.MethodGet:
		if token, ok := extractTokenFromQuery(parsed); ok {
			return Decision{Verdict: VerdictAllow, Token: token, Source: SourceGetQuery}
		}
	}
	return Decision{Verdict: VerdictNoOp}
}

// extractTokenFromPostBody pulls a non-empty string "token" field out of a
// JSON body. Malformed JSON, a missing field, a wrong-typed field and an
// empty string are all the same silent no-token outcome.
func extractTokenFromPostBody(body []byte) (string, bool) {
	var payload struct {
		Token any `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	token, ok := payload.Token.(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func extractTokenFromQuery(u *url.URL) (string, bool) {
	token := u.Query().Get("token")
	if token == "" {
		return "", false
	}
	return token, true
}

// confirmationPage is the fixed page shown in the browser once a token has
// been handed over. Kept static so the response reveals nothing about the
// received value.
const confirmationPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Qualiscan</title></head>
<body>
<h1>Authentication Successful</h1>
<p>You can close this window and return to your terminal.</p>
</body>
</html>
`
