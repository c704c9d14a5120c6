package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/covenantfi/oracle-agent/infrastructure/httputil"
)

const (
	defaultLLMTimeout  = 30 * time.Second
	defaultMaxTokens   = 1024
	maxResponseBytes   = 64 * 1024
	defaultAPIVersion  = "2023-06-01"
)

// anthropicRequest mirrors the Anthropic Messages API request body — the
// LLM client itself is out of scope for this spec (it only needs to exist
// to exercise the LLMClient capability interface concretely), so this
// implementation speaks one concrete, reasonably representative shape.
type anthropicRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	Messages  []anthropicMessage  `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPLLMClient is the default LLMClient implementation: an HTTP call
// shaped like the Anthropic Messages API.
type HTTPLLMClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewHTTPLLMClient builds a client pointed at baseURL (e.g.
// "https://api.anthropic.com/v1/messages").
func NewHTTPLLMClient(baseURL, apiKey, model string) *HTTPLLMClient {
	return &HTTPLLMClient{
		client:  &http.Client{Timeout: defaultLLMTimeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// Complete sends prompt as a single user message and returns the
// concatenated text content of the response.
func (c *HTTPLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("oracle: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("oracle: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", defaultAPIVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _, err := httputil.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return "", fmt.Errorf("oracle: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: llm returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("oracle: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("oracle: llm error: %s", parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
