package ollama

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultEndpoint        = "http://localhost:11434"
	DefaultModel           = "llama3.2"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxAttempts     = 3
	DefaultRetryBackoff    = 500 * time.Millisecond
	DefaultRetryBackoffCap = 8 * time.Second
)

// Environment variable names for client configuration overrides
const (
	// EnvEndpoint overrides the backend base URL.
	// Default: http://localhost:11434
	EnvEndpoint = "SHOWFLOOR_ENDPOINT"

	// EnvModel overrides the model used for generation requests.
	// Default: llama3.2
	EnvModel = "SHOWFLOOR_MODEL"

	// EnvRequestTimeoutMS overrides the per-exchange timeout in milliseconds.
	// Must be positive. Default: 30000
	EnvRequestTimeoutMS = "SHOWFLOOR_REQUEST_TIMEOUT_MS"

	// EnvMaxAttempts overrides the maximum number of exchange attempts
	// (first try plus retries). Must be at least 1. Default: 3
	EnvMaxAttempts = "SHOWFLOOR_MAX_ATTEMPTS"

	// EnvRetryBackoffMS overrides the base retry backoff in milliseconds.
	// Default: 500
	EnvRetryBackoffMS = "SHOWFLOOR_RETRY_BACKOFF_MS"

	// EnvRetryBackoffCapMS overrides the retry backoff cap in milliseconds.
	// Default: 8000
	EnvRetryBackoffCapMS = "SHOWFLOOR_RETRY_BACKOFF_CAP_MS"

	// EnvRateLimitRPS overrides the client-side request rate limit in
	// requests per second. Zero disables limiting. Default: 0
	EnvRateLimitRPS = "SHOWFLOOR_RATE_LIMIT_RPS"
)

// RetryPolicy defines the retry behavior for generation exchanges.
// Default values: MaxAttempts=3, BackoffMS=500, BackoffCapMS=8000.
type RetryPolicy struct {
	// MaxAttempts is the total number of exchange attempts, including the
	// first one. 1 means no retries.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffMS is the base backoff duration in milliseconds. The delay
	// doubles each attempt.
	BackoffMS int `json:"backoff_ms" yaml:"backoff_ms"`

	// BackoffCapMS is the maximum backoff duration in milliseconds.
	BackoffCapMS int `json:"backoff_cap_ms" yaml:"backoff_cap_ms"`
}

// Backoff returns the schedule described by the policy.
func (p RetryPolicy) Backoff() *ExponentialBackoff {
	backoff := NewExponentialBackoff()
	if p.BackoffMS > 0 {
		backoff.BaseDelay = time.Duration(p.BackoffMS) * time.Millisecond
	}
	if p.BackoffCapMS > 0 {
		backoff.MaxDelay = time.Duration(p.BackoffCapMS) * time.Millisecond
	}
	return backoff
}

// RequestOptions passes sampling parameters through to the backend. Zero
// values are omitted from the request.
type RequestOptions struct {
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopK        int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	TopP        float32 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty" yaml:"num_predict,omitempty"`
}

// ClientConfig holds the generation client configuration.
// Configuration is resolved as: defaults, then config file, then environment.
type ClientConfig struct {
	// BaseURL is the base URL of the generation backend (default: http://localhost:11434)
	BaseURL string `json:"endpoint" yaml:"endpoint"`

	// Model is the model name sent with every generation request (default: llama3.2)
	Model string `json:"model" yaml:"model"`

	// RequestTimeoutMS is the timeout for a single exchange in milliseconds (default: 30000)
	RequestTimeoutMS int `json:"request_timeout_ms" yaml:"request_timeout_ms"`

	// Retry defines how failed exchanges are retried
	Retry RetryPolicy `json:"retry_policy" yaml:"retry_policy"`

	// RateLimitRPS caps outgoing requests per second. Zero disables the limiter.
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`

	// Options are sampling parameters forwarded with generation requests
	Options RequestOptions `json:"options" yaml:"options"`

	// Headers contains custom HTTP headers to include in requests
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// DefaultClientConfig returns a configuration with documented defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:          DefaultEndpoint,
		Model:            DefaultModel,
		RequestTimeoutMS: int(DefaultRequestTimeout.Milliseconds()),
		Retry: RetryPolicy{
			MaxAttempts:  DefaultMaxAttempts,
			BackoffMS:    int(DefaultRetryBackoff.Milliseconds()),
			BackoffCapMS: int(DefaultRetryBackoffCap.Milliseconds()),
		},
	}
}

// RequestTimeout returns the per-exchange timeout as a time.Duration
func (c *ClientConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutMS <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate checks if the configuration is valid
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.Retry.BackoffMS <= 0 {
		return fmt.Errorf("backoff_ms must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must be non-negative")
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration and returns it.
func (c *ClientConfig) ApplyEnvOverrides() *ClientConfig {
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		c.BaseURL = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	}

	if model := os.Getenv(EnvModel); model != "" {
		c.Model = strings.TrimSpace(model)
	}

	if timeout := os.Getenv(EnvRequestTimeoutMS); timeout != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(timeout)); err == nil && ms > 0 {
			c.RequestTimeoutMS = ms
		}
	}

	if attempts := os.Getenv(EnvMaxAttempts); attempts != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(attempts)); err == nil && n >= 1 {
			c.Retry.MaxAttempts = n
		}
	}

	if backoff := os.Getenv(EnvRetryBackoffMS); backoff != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(backoff)); err == nil && ms > 0 {
			c.Retry.BackoffMS = ms
		}
	}

	if cap := os.Getenv(EnvRetryBackoffCapMS); cap != "" {
		if ms, err := strconv.Atoi(strings.TrimSpace(cap)); err == nil && ms > 0 {
			c.Retry.BackoffCapMS = ms
		}
	}

	if rps := os.Getenv(EnvRateLimitRPS); rps != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(rps), 64); err == nil && v >= 0 {
			c.RateLimitRPS = v
		}
	}

	return c
}
