// Package services provides external service integrations and technical concerns like oracles and notifications
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amirphl/Jorougumo/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Oracle error taxonomy. Callers are expected to catch these and degrade to
// documented defaults; neither must reach the route boundary.
var (
	ErrOracleUnavailable   = errors.New("oracle credentials not configured")
	ErrOracleRequestFailed = errors.New("oracle request failed")
)

var oracleRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oracle_requests_total",
		Help: "Total number of oracle generate calls by outcome",
	},
	[]string{"outcome"},
)

// OracleClient wraps a text-generation call: prompt in, free-form text out.
// The client performs no retries itself; retry policy belongs to the caller.
type OracleClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Available() bool
}

// OpenAIOracleClient implements OracleClient against a chat-completions API
type OpenAIOracleClient struct {
	config *config.OracleConfig
	client *http.Client
}

// NewOpenAIOracleClient creates a new oracle client instance
func NewOpenAIOracleClient(cfg *config.OracleConfig) *OpenAIOracleClient {
	return &OpenAIOracleClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type oracleChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oracleChatRequest struct {
	Model       string              `json:"model"`
	Messages    []oracleChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
}

type oracleChatResponse struct {
	Choices []struct {
		Message oracleChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Available reports whether credentials are configured
func (c *OpenAIOracleClient) Available() bool {
	return c.config.APIKey != ""
}

// Generate sends a fully-formed prompt and returns the raw completion text
func (c *OpenAIOracleClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if !c.Available() {
		oracleRequestsTotal.WithLabelValues("unavailable").Inc()
		return "", ErrOracleUnavailable
	}

	reqBody := oracleChatRequest{
		Model: c.config.Model,
		Messages: []oracleChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create oracle HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		oracleRequestsTotal.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("%w: %v", ErrOracleRequestFailed, err)
	}
	defer resp.Body.Close()

	var out oracleChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		oracleRequestsTotal.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrOracleRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		oracleRequestsTotal.WithLabelValues("api_error").Inc()
		if out.Error != nil {
			return "", fmt.Errorf("%w: %s (%s)", ErrOracleRequestFailed, out.Error.Message, out.Error.Type)
		}
		return "", fmt.Errorf("%w: unexpected status %d", ErrOracleRequestFailed, resp.StatusCode)
	}

	if len(out.Choices) == 0 {
		oracleRequestsTotal.WithLabelValues("empty").Inc()
		return "", fmt.Errorf("%w: empty choices", ErrOracleRequestFailed)
	}

	oracleRequestsTotal.WithLabelValues("success").Inc()
	return out.Choices[0].Message.Content, nil
}

// StubOracleClient is the degraded-mode oracle used when no credentials are
// configured. It returns an empty completion instead of failing so the rest
// of the pipeline can run without live credentials.
type StubOracleClient struct{}

// NewStubOracleClient creates a new stub oracle client
func NewStubOracleClient() *StubOracleClient {
	return &StubOracleClient{}
}

// Available always reports false for the stub
func (c *StubOracleClient) Available() bool {
	return false
}

// Generate returns an empty completion
func (c *StubOracleClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	oracleRequestsTotal.WithLabelValues("stubbed").Inc()
	return "", nil
}

// MockOracleClient implements OracleClient for testing with scripted replies
type MockOracleClient struct {
	Replies []string
	Errs    []error
	Prompts []string

	calls int
}

// NewMockOracleClient creates a new mock oracle client
func NewMockOracleClient(replies ...string) *MockOracleClient {
	return &MockOracleClient{Replies: replies}
}

// Available always reports true for the mock
func (c *MockOracleClient) Available() bool {
	return true
}

// Generate replays the scripted replies/errors in call order, repeating the
// last entry once the script runs out
func (c *MockOracleClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	c.Prompts = append(c.Prompts, prompt)
	i := c.calls
	c.calls++

	if len(c.Errs) > 0 {
		ei := i
		if ei >= len(c.Errs) {
			ei = len(c.Errs) - 1
		}
		if c.Errs[ei] != nil {
			return "", c.Errs[ei]
		}
	}

	if len(c.Replies) == 0 {
		return "", nil
	}
	if i >= len(c.Replies) {
		i = len(c.Replies) - 1
	}
	return c.Replies[i], nil
}

// CallCount returns the number of Generate calls observed
func (c *MockOracleClient) CallCount() int {
	return c.calls
}
