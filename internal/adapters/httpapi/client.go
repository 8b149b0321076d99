package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/evo/internal/domain"
)

const (
	DefaultAddr = "127.0.0.1:8787"

	maxResponseBytes = 64 << 20
	clientTimeout    = 30 * time.Second
)

// APIError is a non-2xx answer from the API. It matches the domain error
// named by its code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("evo api returned status %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return errorCodes[e.Code]
}

// Client talks to a running `evo serve`.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(addr string, httpClient *http.Client) *Client {
	base := strings.TrimSpace(addr)
	if base == "" {
		base = DefaultAddr
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientTimeout}
	}

	return &Client{baseURL: strings.TrimRight(base, "/"), httpClient: httpClient}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) State(ctx context.Context) (StateResponse, error) {
	var resp StateResponse
	err := c.do(ctx, http.MethodGet, "/state", nil, &resp)
	return resp, err
}

func (c *Client) StartRound(ctx context.Context) (StateResponse, error) {
	var resp StateResponse
	err := c.do(ctx, http.MethodPost, "/round", nil, &resp)
	return resp, err
}

func (c *Client) Vote(ctx context.Context, slot domain.VariantSlot) (VoteResponse, error) {
	var resp VoteResponse
	err := c.do(ctx, http.MethodPost, "/vote/"+strconv.Itoa(int(slot)), nil, &resp)
	return resp, err
}

func (c *Client) Reset(ctx context.Context, confirm bool) (StateResponse, error) {
	var resp StateResponse
	err := c.do(ctx, http.MethodPost, "/reset", ResetRequest{Confirm: confirm}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload ErrorResponse
		if err := json.NewDecoder(limited).Decode(&payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
