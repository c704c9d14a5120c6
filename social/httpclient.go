package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/covenantfi/oracle-agent/infrastructure/httputil"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
	"github.com/covenantfi/oracle-agent/infrastructure/resilience"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	maxResponseBytes   = 256 * 1024
)

// HTTPClient is a REST-shaped reference implementation of Client — grounded
// on the outbound-HTTP-client pattern the rest of this codebase uses for
// service-to-service calls. No concrete social platform ships with this
// agent; this client exists so the Controller has something to drive in
// tests (spec §1 places social-platform bindings out of scope).
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *resilience.CircuitBreaker
}

// NewHTTPClient builds an HTTPClient against baseURL, authenticating with
// apiKey via a bearer token. Outbound calls run through a default circuit
// breaker (spec §7) — a single flaky or suspended platform shouldn't burn
// every remaining cycle retrying it.
func NewHTTPClient(baseURL, apiKey string, log *logging.Logger) (*HTTPClient, error) {
	normalized, _, err := httputil.NormalizeServiceBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("social: %w", err)
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    normalized,
		apiKey:     apiKey,
		breaker:    resilience.New(resilience.DefaultServiceCBConfig(log)),
	}, nil
}

type publishRequest struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

type replyRequest struct {
	InReplyTo string `json:"in_reply_to"`
	Body      string `json:"body"`
}

type postIDResponse struct {
	ID string `json:"id"`
}

func (c *HTTPClient) PublishShort(ctx context.Context, body string) (string, error) {
	if len(body) > ShortPostMaxChars {
		return "", fmt.Errorf("social: short post exceeds %d characters", ShortPostMaxChars)
	}
	var resp postIDResponse
	if err := c.post(ctx, "/posts", publishRequest{Body: body}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) PublishLong(ctx context.Context, title, body string) (string, error) {
	if len(body) > LongArticleMaxChars {
		return "", fmt.Errorf("social: long article exceeds %d characters", LongArticleMaxChars)
	}
	var resp postIDResponse
	if err := c.post(ctx, "/articles", publishRequest{Title: title, Body: body}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) Reply(ctx context.Context, inReplyTo, body string) (string, error) {
	var resp postIDResponse
	if err := c.post(ctx, "/replies", replyRequest{InReplyTo: inReplyTo, Body: body}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) Like(ctx context.Context, postID string) error {
	return c.post(ctx, "/posts/"+url.PathEscape(postID)+"/like", struct{}{}, nil)
}

type feedResponse struct {
	Posts []Post `json:"posts"`
}

func (c *HTTPClient) ReadFeed(ctx context.Context, ordering FeedOrdering, limit int) ([]Post, error) {
	var resp feedResponse
	path := fmt.Sprintf("/feed?ordering=%s&limit=%d", url.QueryEscape(string(ordering)), limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *HTTPClient) ReadMentions(ctx context.Context, limit int) ([]Post, error) {
	var resp feedResponse
	if err := c.get(ctx, "/mentions?limit="+strconv.Itoa(limit), &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *HTTPClient) ReadInbox(ctx context.Context, limit int) ([]Post, error) {
	var resp feedResponse
	if err := c.get(ctx, "/inbox?limit="+strconv.Itoa(limit), &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *HTTPClient) Search(ctx context.Context, phrase string, limit int) ([]Post, error) {
	var resp feedResponse
	path := fmt.Sprintf("/search?q=%s&limit=%d", url.QueryEscape(phrase), limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var bodyReader *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("social: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("social: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp *http.Response
	err = c.breaker.Execute(ctx, func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return fmt.Errorf("social: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return &SuspensionError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("social: unexpected status %d from %s", resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	body, _, err := httputil.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return fmt.Errorf("social: read response: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("social: parse response: %w", err)
	}
	return nil
}

// SuspensionError signals a platform-level ban or rate-limit, parsed from
// the HTTP status (spec §4.8 step 6 / §7). The Controller's suspension
// detector checks for this via errors.As.
type SuspensionError struct {
	StatusCode int
}

func (e *SuspensionError) Error() string {
	return fmt.Sprintf("social: platform returned status %d (suspected suspension or rate-limit)", e.StatusCode)
}
