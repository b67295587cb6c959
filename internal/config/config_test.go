package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvLambdaFunction, EnvLambdaInvokeMode, EnvAPIKeys, EnvAuthMode, EnvAddr, EnvConfigFile} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
lambdaFunctionName: my-function
lambdaInvokeMode: streaming
authMode: apikey
apiKeys:
  - key-one
  - key-two
addr: "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-function", cfg.LambdaFunctionName)
	assert.Equal(t, InvokeModeStreaming, cfg.LambdaInvokeMode)
	assert.Equal(t, AuthModeAPIKey, cfg.AuthMode)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.HasAPIKey("key-one"))
	assert.True(t, cfg.HasAPIKey("key-two"))
	assert.False(t, cfg.HasAPIKey("key-three"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `lambdaFunctionName: my-function`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, InvokeModeBuffered, cfg.LambdaInvokeMode)
	assert.Equal(t, AuthModeOpen, cfg.AuthMode)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
lambdaFunctionName: file-function
lambdaInvokeMode: buffered
authMode: open
addr: "0.0.0.0:8000"
`)

	t.Setenv(EnvLambdaFunction, "env-function")
	t.Setenv(EnvLambdaInvokeMode, "Streaming")
	t.Setenv(EnvAuthMode, "ApiKey")
	t.Setenv(EnvAPIKeys, "a,b,c")
	t.Setenv(EnvAddr, ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-function", cfg.LambdaFunctionName)
	assert.Equal(t, InvokeModeStreaming, cfg.LambdaInvokeMode)
	assert.Equal(t, AuthModeAPIKey, cfg.AuthMode)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.True(t, cfg.HasAPIKey("a"))
	assert.True(t, cfg.HasAPIKey("b"))
	assert.True(t, cfg.HasAPIKey("c"))
}

func TestLoad_MissingFunctionNameIsFatal(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `addr: "0.0.0.0:8000"`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLambdaFunction, "env-only-function")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only-function", cfg.LambdaFunctionName)
	assert.Equal(t, DefaultAddr, cfg.Addr)
}

func TestLoad_InvalidEnumIsRejected(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `lambdaFunctionName: my-function`)

	t.Setenv(EnvLambdaInvokeMode, "nonsense")
	_, err := Load(path)
	assert.Error(t, err)
}
