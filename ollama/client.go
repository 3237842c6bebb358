// Package ollama implements the resilient client for the text-generation
// backend. It owns timeout, retry and backoff policy: transient transport
// failures are retried with capped exponential backoff and jitter, while
// well-formed backend rejections surface immediately. It also exposes error
// types and configuration shared with the rest of the system.
package ollama

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/showfloor-ai/showfloor/log"
)

// totalAttempts counts every network exchange the process has made against
// the backend, across all clients. Diagnostics only.
var totalAttempts atomic.Int64

// TotalAttempts returns the process-wide count of generation exchange attempts.
func TotalAttempts() int64 {
	return totalAttempts.Load()
}

// GenerateRequest carries the role context and task description for a single
// generation exchange. It exists only for the duration of that exchange.
type GenerateRequest struct {
	// System is the role/capability context ("system prompt") for the request.
	System string

	// Prompt is the task description to generate a response for.
	Prompt string
}

// GenerateResult is the outcome of a successful generation exchange.
type GenerateResult struct {
	// Text is the generated response text.
	Text string

	// Latency is the wall-clock duration of the exchange, including retries.
	Latency time.Duration

	// RequestID identifies the exchange in logs.
	RequestID string
}

// Generator is the single-call contract the rest of the system depends on.
// *Client is the production implementation; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// Client wraps the backend generation API with retry, backoff and rate
// limiting. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a new backend client with the provided configuration
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, NewBackendError(CodeInvalidRequest, "client config cannot be nil", nil)
	}
	if err := config.Validate(); err != nil {
		return nil, NewBackendError(CodeInvalidRequest, err.Error(), nil)
	}

	var limiter *rate.Limiter
	if config.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), 1)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout(),
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		baseURL: config.BaseURL,
		limiter: limiter,
	}, nil
}

// generateBody is the wire format of a generation request.
type generateBody struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options any     `json:"options,omitempty"`
}

// generateResponse is the wire format of a generation response.
type generateResponse struct {
	Model     string    `json:"model"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// backendErrorBody is the structured error body returned by the backend.
type backendErrorBody struct {
	Error string `json:"error"`
}

// Generate performs one generation exchange against the backend. Transient
// transport failures are retried up to the configured attempt budget; a
// well-formed backend rejection (HTTP 4xx with an error body) is surfaced
// immediately. The retry loop as a whole is bounded by
// RequestTimeout * MaxAttempts so total latency stays predictable.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Prompt == "" {
		return nil, NewBackendError(CodeInvalidRequest, "prompt cannot be empty", nil)
	}
	if req.System == "" {
		return nil, NewBackendError(CodeInvalidRequest, "system context cannot be empty", nil)
	}

	requestID := uuid.NewString()
	start := time.Now()

	// Deadline for the whole retry sequence, not just one exchange.
	loopCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout()*time.Duration(c.config.Retry.MaxAttempts))
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(loopCtx); err != nil {
			return nil, NewBackendError(CodeTransport, "rate limiter wait interrupted", err)
		}
	}

	body := generateBody{
		Model:  c.config.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	}
	if opts := c.config.Options; opts != (RequestOptions{}) {
		body.Options = opts
	}

	backoff := c.config.Retry.Backoff()
	var lastErr error

	for attempt := 0; attempt < c.config.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff.Jitter(backoff.Delay(attempt - 1))
			log.DebugLog.Printf("request %s: retrying in %v (attempt %d/%d): %v",
				requestID, delay, attempt+1, c.config.Retry.MaxAttempts, lastErr)
			select {
			case <-time.After(delay):
			case <-loopCtx.Done():
				return nil, NewBackendError(CodeBackendUnavailable, "retry budget interrupted", loopCtx.Err())
			}
		}

		result, err := c.exchange(loopCtx, requestID, body)
		if err == nil {
			result.Latency = time.Since(start)
			return result, nil
		}

		if IsRejected(err) {
			// Permanent backend-side failure. Retrying cannot help.
			return nil, err
		}

		lastErr = err
		if loopCtx.Err() != nil {
			break
		}
	}

	log.WarningLog.Printf("request %s: backend unavailable after %d attempts: %v",
		requestID, c.config.Retry.MaxAttempts, lastErr)
	return nil, NewBackendError(CodeBackendUnavailable,
		fmt.Sprintf("failed after %d attempts", c.config.Retry.MaxAttempts), lastErr)
}

// exchange performs a single network exchange.
func (c *Client) exchange(ctx context.Context, requestID string, body generateBody) (*GenerateResult, error) {
	totalAttempts.Add(1)

	exchangeCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout())
	defer cancel()

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, NewBackendError(CodeInvalidRequest, "failed to marshal request body", err)
	}

	httpReq, err := http.NewRequestWithContext(exchangeCtx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, NewBackendError(CodeInvalidRequest, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range c.config.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewBackendError(CodeTransport, "failed to execute request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewBackendError(CodeTransport, "failed to read response", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var backendErr backendErrorBody
		if err := json.Unmarshal(respBody, &backendErr); err == nil && backendErr.Error != "" {
			return nil, NewBackendError(CodeBackendRejected, backendErr.Error, nil)
		}
		return nil, NewBackendError(CodeBackendRejected,
			fmt.Sprintf("backend rejected request with status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 500 {
		return nil, NewBackendError(CodeTransport,
			fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, NewBackendError(CodeTransport, "failed to unmarshal response", err)
	}

	return &GenerateResult{
		Text:      result.Response,
		RequestID: requestID,
	}, nil
}

// CheckHealth checks whether the backend is reachable
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := c.Version(healthCtx)
	if err != nil {
		return false, err
	}
	return version != "", nil
}

// Version retrieves the backend version string
func (c *Client) Version(ctx context.Context) (string, error) {
	var result map[string]any
	if err := c.get(ctx, "/api/version", &result); err != nil {
		return "", NewBackendError(CodeTransport, "failed to get backend version", err)
	}

	if version, ok := result["version"].(string); ok {
		return version, nil
	}
	return "unknown", nil
}

// ModelInfo describes a model available on the backend.
type ModelInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Digest   string    `json:"digest"`
	Modified time.Time `json:"modified_at"`
}

// ListModels retrieves all models available on the backend
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp struct {
		Models []ModelInfo `json:"models"`
	}
	if err := c.get(ctx, "/api/tags", &resp); err != nil {
		return nil, NewBackendError(CodeTransport, "failed to list models", err)
	}
	return resp.Models, nil
}

// get performs a single GET exchange without retry.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// Config returns the client configuration
func (c *Client) Config() *ClientConfig {
	return c.config
}
