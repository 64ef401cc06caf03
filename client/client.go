// Package client talks to the excuse API and keeps the state a single user
// session needs: the selected tone, the displayed excuse and the liked set.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/edgeee/excuse-generator/api"
)

// ResponseError is returned when the API answers with a non-2xx status.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.StatusCode)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for the excuse API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API served at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// GenerateResult is the body of a generate response. Error is set together
// with fallback content when the server has no LLM provider.
type GenerateResult struct {
	Error    string `json:"error,omitempty"`
	Excuse   string `json:"excuse"`
	Tips     string `json:"tips,omitempty"`
	ExcuseID string `json:"excuseId,omitempty"`
}

// Generate asks the server for a new excuse in the given tone. excuseType
// may be empty.
func (c *Client) Generate(ctx context.Context, tone api.Tone, excuseType string) (GenerateResult, error) {
	in := struct {
		Tone       api.Tone `json:"tone"`
		ExcuseType string   `json:"excuseType,omitempty"`
	}{tone, excuseType}

	var out GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/generateExcuse", in, &out); err != nil {
		return GenerateResult{}, err
	}
	return out, nil
}

// React records a reaction of type like, unlike, share or copy and returns
// the new value of the affected counter.
func (c *Client) React(ctx context.Context, excuseID, typ string) (int, error) {
	in := struct {
		Type string `json:"type"`
	}{typ}

	var out struct {
		Count int `json:"count"`
	}
	path := "/api/excuses/" + url.PathEscape(excuseID) + "/reactions"
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// TopExcuses returns up to limit excuses ordered by likes.
func (c *Client) TopExcuses(ctx context.Context, limit int) ([]api.Excuse, error) {
	var out struct {
		Excuses []api.Excuse `json:"excuses"`
	}
	path := "/api/excuses/top?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Excuses, nil
}

// Count returns the total number of stored excuses.
func (c *Client) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/excuses/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &ResponseError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
