package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buildcheck/internal/domain"
)

const (
	analyzePath     = "/engine/analyze"
	maxResponseBody = 4 << 20

	HeaderEngineKey    = "X-Engine-Key"
	HeaderRateLimitKey = "X-RateLimit-Key"
	HeaderRequestID    = "X-Request-Id"

	DefaultTimeout = 60 * time.Second
)

type Result struct {
	OK          bool
	Path        string
	DamageTypes []string
	Error       string
}

// Response is the engine's answer to one batch. HasResults is false when the
// body carried no usable results array; Message then explains why, if the
// engine said so.
type Response struct {
	OK         bool
	HasResults bool
	Results    []Result
	Message    string
}

type analyzeRequest struct {
	RequestID string   `json:"request_id"`
	Paths     []string `json:"paths"`
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Analyze makes exactly one call for the whole batch. The call is detached
// from ctx cancellation so a client hanging up does not abort it; only the
// fixed timeout bounds it.
func (c *Client) Analyze(ctx context.Context, req domain.BatchRequest) (*Response, error) {
	payload, err := json.Marshal(analyzeRequest{RequestID: req.RequestID, Paths: req.Paths})
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(payload))
	if err != nil {
		return nil, &DispatchError{Kind: KindUnreachable, Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderRequestID, req.RequestID)
	if c.apiKey != "" {
		httpReq.Header.Set(HeaderEngineKey, c.apiKey)
	}
	if req.RateLimitKey != "" {
		httpReq.Header.Set(HeaderRateLimitKey, req.RateLimitKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &DispatchError{Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &DispatchError{Kind: KindUnreachable, Err: fmt.Errorf("failed to read engine response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &DispatchError{Kind: KindBadStatus, StatusCode: resp.StatusCode, Body: body}
	}

	return parseResponse(body), nil
}

func parseResponse(body []byte) *Response {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &Response{Message: "Engine returned invalid JSON"}
	}

	resp := &Response{Message: extractMessage(body)}
	_ = json.Unmarshal(fields["ok"], &resp.OK)

	rawResults, ok := fields["results"]
	if !ok {
		return resp
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawResults, &items); err != nil || items == nil {
		return resp
	}

	resp.HasResults = true
	resp.Results = make([]Result, 0, len(items))
	for _, item := range items {
		resp.Results = append(resp.Results, parseResult(item))
	}
	return resp
}

// parseResult is lenient: a malformed entry still occupies its position, as
// a failure without a path.
func parseResult(raw json.RawMessage) Result {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Result{}
	}

	var r Result
	_ = json.Unmarshal(fields["ok"], &r.OK)
	_ = json.Unmarshal(fields["path"], &r.Path)
	_ = json.Unmarshal(fields["error"], &r.Error)

	var labels []any
	_ = json.Unmarshal(fields["damage_types"], &labels)
	for _, l := range labels {
		if s, ok := l.(string); ok {
			r.DamageTypes = append(r.DamageTypes, s)
		}
	}

	return r
}
