// Package llamacpp provides a cross-encoder adapter backed by a llama.cpp
// server exposing the /v1/rerank endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/siftlabs/sift/internal/core/ports/driven"
)

// Ensure CrossEncoder implements the interface.
var _ driven.CrossEncoder = (*CrossEncoder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8081"
	DefaultModel   = "bge-reranker-v2-m3"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the llama.cpp cross-encoder.
type Config struct {
	// BaseURL is the llama.cpp server base URL (default: http://localhost:8081).
	BaseURL string

	// Model names the reranking model, passed through to the server.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// CrossEncoder scores query/passage pairs via the llama.cpp rerank API.
type CrossEncoder struct {
	client  *http.Client
	baseURL string
	model   string

	// The server is probed once, on first use.
	initOnce sync.Once
	initErr  error
}

// rerankRequest matches the llama.cpp /v1/rerank endpoint format.
type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// rerankResult is one scored document in the server response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"relevance_score"`
}

// rerankResponse is the llama.cpp server response format.
type rerankResponse struct {
	Model   string         `json:"model"`
	Results []rerankResult `json:"results"`
}

// NewCrossEncoder creates a new llama.cpp cross-encoder client.
func NewCrossEncoder(cfg Config) *CrossEncoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &CrossEncoder{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Score returns one relevance score per passage, in passage order.
// The server reports results keyed by document index, which may arrive
// out of order, so scores are reassembled by index before returning.
func (c *CrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	c.initOnce.Do(func() {
		c.initErr = c.Ping(ctx)
	})
	if c.initErr != nil {
		return nil, fmt.Errorf("llamacpp: server unavailable: %w", c.initErr)
	}

	reqBody := rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: passages,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("llamacpp error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("llamacpp error (status %d): %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	scores := make([]float64, len(passages))
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(passages) {
			return nil, fmt.Errorf("llamacpp: result index %d out of range for %d passages", result.Index, len(passages))
		}
		scores[result.Index] = result.Score
	}

	if len(rerankResp.Results) != len(passages) {
		return nil, fmt.Errorf("llamacpp: got %d scores for %d passages", len(rerankResp.Results), len(passages))
	}

	return scores, nil
}

// ModelName returns the name of the reranking model being used.
func (c *CrossEncoder) ModelName() string {
	return c.model
}

// Ping validates the server is reachable via its /health endpoint.
func (c *CrossEncoder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("llamacpp: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("llamacpp: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llamacpp: server returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (c *CrossEncoder) Close() error {
	return nil
}
