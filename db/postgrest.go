package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultStoreTimeout bounds every remote table call. Expiry is treated
// the same as an unreachable backend.
const defaultStoreTimeout = 10 * time.Second

// PostgRESTClient talks to a hosted Supabase/PostgREST table API. It is
// constructed once at startup and passed down to the repositories.
type PostgRESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// NewPostgRESTClient creates a client for the given endpoint and access key
func NewPostgRESTClient(baseURL, apiKey string) *PostgRESTClient {
	return &PostgRESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		timeout:    defaultStoreTimeout,
	}
}

// Select fetches the rows of a table matching the given equality filters.
// An empty result is returned as an empty slice, not an error.
func (c *PostgRESTClient) Select(ctx context.Context, table string, filters map[string]string) ([]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, table, filters, nil)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", ErrMalformedRecord, table, err)
	}
	return rows, nil
}

// Insert adds a row and returns the stored representation
func (c *PostgRESTClient) Insert(ctx context.Context, table string, payload interface{}) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, table, nil, payload)
	if err != nil {
		return nil, err
	}
	return firstRow(table, body)
}

// Update patches the rows matching the filters and returns the first
// stored representation
func (c *PostgRESTClient) Update(ctx context.Context, table string, filters map[string]string, payload interface{}) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPatch, table, filters, payload)
	if err != nil {
		return nil, err
	}
	return firstRow(table, body)
}

func firstRow(table string, body []byte) (json.RawMessage, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", ErrMalformedRecord, table, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (c *PostgRESTClient) do(ctx context.Context, method, table string, filters map[string]string, payload interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(filters) > 0 {
		params := url.Values{}
		for column, value := range filters {
			params.Set(column, "eq."+value)
		}
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error encoding %s payload: %w", table, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error building %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		// Have PostgREST echo the stored row back
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrStoreUnavailable, method, table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrStoreUnavailable, table, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrDuplicate
	default:
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrStoreUnavailable, method, table, resp.StatusCode)
	}
}
