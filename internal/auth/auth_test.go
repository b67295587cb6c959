package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func TestGate_OpenModeAlwaysAllows(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeOpen})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NoError(t, g.Check(r))
}

func TestGate_ApiKeyMode_ValidXAPIKeyHeader(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("k1", "k2")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "k1")
	assert.NoError(t, g.Check(r))
}

func TestGate_ApiKeyMode_ValidBearerToken(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("secret-token")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer secret-token")
	assert.NoError(t, g.Check(r))
}

func TestGate_ApiKeyMode_XAPIKeyTakesPrecedenceOverAuthorization(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("k1")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "k1")
	r.Header.Set("Authorization", "Bearer wrong")
	assert.NoError(t, g.Check(r))
}

func TestGate_ApiKeyMode_WrongKeyIsDenied(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("k1")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "wrong")
	var denied *ErrDenied
	require.ErrorAs(t, g.Check(r), &denied)
}

func TestGate_ApiKeyMode_NoCredentialIsDenied(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("k1")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	var denied *ErrDenied
	require.ErrorAs(t, g.Check(r), &denied)
}

func TestGate_ApiKeyMode_IsExactMatchNoCaseFolding(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("K1")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("x-api-key", "k1")
	var denied *ErrDenied
	require.ErrorAs(t, g.Check(r), &denied)
}

func TestGate_ApiKeyMode_BearerTokenWithLeadingOrTrailingSpaceIsNotTrimmed(t *testing.T) {
	g := NewGate(config.GatewayConfig{AuthMode: config.AuthModeAPIKey, APIKeys: keySet("secret-token")})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer  secret-token")
	var denied *ErrDenied
	require.ErrorAs(t, g.Check(r), &denied)
}
