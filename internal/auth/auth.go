// Package auth implements the gateway's credential gate: either every
// request is allowed through (Open mode) or each request must carry one of
// the configured API keys (ApiKey mode).
package auth

import (
	"net/http"
	"strings"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/config"
)

const bearerPrefix = "Bearer "

// ErrDenied is returned by Check when the request's credential does not
// match a configured key.
type ErrDenied struct {
	Reason string
}

func (e *ErrDenied) Error() string {
	return "auth denied: " + e.Reason
}

// Gate decides whether a request is allowed to reach the Lambda function.
type Gate struct {
	mode config.AuthMode
	keys map[string]struct{}
}

// NewGate builds a Gate from a loaded GatewayConfig.
func NewGate(cfg config.GatewayConfig) *Gate {
	return &Gate{mode: cfg.AuthMode, keys: cfg.APIKeys}
}

// Check inspects r's credentials and returns a non-nil *ErrDenied if the
// request must be rejected. In Open mode it always returns nil.
func (g *Gate) Check(r *http.Request) error {
	if g.mode == config.AuthModeOpen {
		return nil
	}

	cred, present := extractCredential(r)
	if !present {
		return &ErrDenied{Reason: "no credential presented"}
	}
	if _, ok := g.keys[cred]; !ok {
		return &ErrDenied{Reason: "credential does not match a configured API key"}
	}
	return nil
}

// extractCredential reads the candidate API key from the request: the
// x-api-key header takes precedence; otherwise the Authorization header's
// Bearer token, with the "Bearer " prefix stripped verbatim (no trimming,
// no case-folding, no splitting on commas).
func extractCredential(r *http.Request) (string, bool) {
	if key := r.Header.Get("x-api-key"); key != "" {
		return key, true
	}

	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", false
	}
	if !strings.HasPrefix(authz, bearerPrefix) {
		return authz, true
	}
	return strings.TrimPrefix(authz, bearerPrefix), true
}
