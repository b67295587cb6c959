// Package config loads the gateway's configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InvokeMode selects how the gateway calls the configured Lambda function.
type InvokeMode int

const (
	// InvokeModeBuffered uses the plain Invoke API and waits for the whole reply.
	InvokeModeBuffered InvokeMode = iota
	// InvokeModeStreaming uses InvokeWithResponseStream and forwards chunks as they arrive.
	InvokeModeStreaming
)

func (m InvokeMode) String() string {
	if m == InvokeModeStreaming {
		return "streaming"
	}
	return "buffered"
}

func parseInvokeMode(s string) (InvokeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buffered":
		return InvokeModeBuffered, nil
	case "streaming":
		return InvokeModeStreaming, nil
	default:
		return InvokeModeBuffered, fmt.Errorf("invalid lambda invoke mode: %q", s)
	}
}

// AuthMode selects whether requests must carry a valid API key.
type AuthMode int

const (
	// AuthModeOpen lets every request through.
	AuthModeOpen AuthMode = iota
	// AuthModeAPIKey requires a credential present in the configured key set.
	AuthModeAPIKey
)

func (m AuthMode) String() string {
	if m == AuthModeAPIKey {
		return "apikey"
	}
	return "open"
}

func parseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return AuthModeOpen, nil
	case "apikey":
		return AuthModeAPIKey, nil
	default:
		return AuthModeOpen, fmt.Errorf("invalid auth mode: %q", s)
	}
}

// Default values used when neither the YAML file nor the environment set them.
const (
	DefaultAddr       = "0.0.0.0:8000"
	DefaultConfigFile = "gateway.yaml"
)

// Environment variable names that override the YAML file.
const (
	EnvConfigFile        = "GATEWAY_CONFIG_FILE"
	EnvLambdaFunction    = "LAMBDA_FUNCTION_NAME"
	EnvLambdaInvokeMode  = "LAMBDA_INVOKE_MODE"
	EnvAPIKeys           = "API_KEYS"
	EnvAuthMode          = "AUTH_MODE"
	EnvAddr              = "ADDR"
)

// GatewayConfig is the immutable, process-wide configuration shared by every
// request handler. Built once at startup by Load.
type GatewayConfig struct {
	LambdaFunctionName string
	LambdaInvokeMode   InvokeMode
	APIKeys            map[string]struct{}
	AuthMode           AuthMode
	Addr               string
}

// fileConfig mirrors the on-disk YAML shape; it is distinct from GatewayConfig
// so the YAML tags and the enum/set types used at runtime can diverge.
type fileConfig struct {
	LambdaFunctionName string   `yaml:"lambdaFunctionName"`
	LambdaInvokeMode   string   `yaml:"lambdaInvokeMode"`
	AuthMode           string   `yaml:"authMode"`
	APIKeys            []string `yaml:"apiKeys"`
	Addr               string   `yaml:"addr"`
}

// HasAPIKey reports whether key is a member of the configured API key set.
func (c GatewayConfig) HasAPIKey(key string) bool {
	_, ok := c.APIKeys[key]
	return ok
}

// Load reads path (if it exists) as YAML, applies environment variable
// overrides, validates the result, and returns the built GatewayConfig.
// A missing file is not an error: the zero-value file config is used as the
// base so a deployment can be configured purely through the environment.
func Load(path string) (GatewayConfig, error) {
	if path == "" {
		path = EnvOrDefault(EnvConfigFile, DefaultConfigFile)
	}

	var fc fileConfig
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return GatewayConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return GatewayConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	overrideFromEnv(&fc)

	if strings.TrimSpace(fc.LambdaFunctionName) == "" {
		return GatewayConfig{}, fmt.Errorf("lambda function name is required (set lambdaFunctionName or %s)", EnvLambdaFunction)
	}

	invokeMode, err := parseInvokeMode(fc.LambdaInvokeMode)
	if err != nil {
		return GatewayConfig{}, err
	}

	authMode, err := parseAuthMode(fc.AuthMode)
	if err != nil {
		return GatewayConfig{}, err
	}

	addr := fc.Addr
	if strings.TrimSpace(addr) == "" {
		addr = DefaultAddr
	}

	keys := make(map[string]struct{}, len(fc.APIKeys))
	for _, k := range fc.APIKeys {
		if k == "" {
			continue
		}
		keys[k] = struct{}{}
	}

	return GatewayConfig{
		LambdaFunctionName: fc.LambdaFunctionName,
		LambdaInvokeMode:   invokeMode,
		APIKeys:            keys,
		AuthMode:           authMode,
		Addr:               addr,
	}, nil
}

func overrideFromEnv(fc *fileConfig) {
	if v := os.Getenv(EnvLambdaFunction); v != "" {
		fc.LambdaFunctionName = v
	}
	if v := os.Getenv(EnvLambdaInvokeMode); v != "" {
		fc.LambdaInvokeMode = v
	}
	if v := os.Getenv(EnvAPIKeys); v != "" {
		fc.APIKeys = strings.Split(v, ",")
	}
	if v := os.Getenv(EnvAuthMode); v != "" {
		fc.AuthMode = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		fc.Addr = v
	}
}

// EnvOrDefault returns the environment variable named key, or defaultValue
// when it is unset or empty.
func EnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
