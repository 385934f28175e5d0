// Package embedding provides the HTTP client for the sentence-embedding
// backend. The wire format is the OpenAI-compatible /embeddings shape, which
// the common self-hosted embedding servers also speak.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	apperrors "github.com/careatlas/clauseguard/pkg/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultBatchSize = 32
	defaultModel     = "all-MiniLM-L6-v2"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls the embedding backend. It implements the semantic stage's
// Embedder interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	logger     logging.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel sets the embedding model name sent with each request.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithAPIKey sets the bearer token. Empty means no Authorization header.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout caps each HTTP call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithBatchSize sets the maximum texts per request.
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		model:      defaultModel,
		batchSize:  defaultBatchSize,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns one vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingBackend, "build embedding request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingTimeout, "embedding call timed out")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingBackend, "embedding call failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingBackend, "read embedding response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Newf(apperrors.ErrCodeEmbeddingBackend,
			"embedding backend returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decode embedding response")
	}
	if parsed.Error != nil {
		return nil, apperrors.New(apperrors.ErrCodeEmbeddingBackend, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, apperrors.Newf(apperrors.ErrCodeEmbeddingEmpty,
			"expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	sort.Slice(parsed.Data, func(i, j int) bool {
		return parsed.Data[i].Index < parsed.Data[j].Index
	})

	vectors := make([][]float64, len(parsed.Data))
	for i, d := range parsed.Data {
		vectors[i] = d.Embedding
	}

	c.logger.Debug("embedded batch",
		logging.Int("texts", len(texts)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return vectors, nil
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return fmt.Sprintf("%s... (%d bytes)", body[:limit], len(body))
	}
	return string(body)
}
