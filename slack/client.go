// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production Web API endpoint.
const DefaultBaseURL = "https://slack.com/api"

// maxResponseSize bounds how much of a response body we read. List
// responses top out well under a megabyte per page; anything larger
// indicates a misbehaving endpoint.
const maxResponseSize = 8 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the Web API root. If empty, DefaultBaseURL is used.
	// Tests point this at an httptest.Server.
	BaseURL string
	// Token is the bot or user OAuth token. Required.
	Token string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is a Slack Web API client covering the surface chanops
// consumes: conversation listing, history, archive, rename, purpose
// updates, message posting, and auth introspection.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Web API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("slack: Token is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("slack: invalid BaseURL %q: %w", baseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// envelopeHolder is implemented by every response type via the
// embedded apiResponse.
type envelopeHolder interface {
	envelope() *apiResponse
}

// doCall performs one Web API method call and decodes the response
// into out. Every Slack method shares the same envelope: HTTP 200 with
// ok=false carries an error code in the body, HTTP 429 carries a
// Retry-After header, and anything else non-2xx is unexpected.
//
// headers, when non-nil, receives the response headers (auth.test
// callers read X-OAuth-Scopes from it).
func (c *Client) doCall(ctx context.Context, method string, args url.Values, body any, out envelopeHolder, headers *http.Header) error {
	requestURL := c.baseURL + "/" + method
	if len(args) > 0 {
		requestURL += "?" + args.Encode()
	}

	httpMethod := http.MethodGet
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("slack: encode %s request: %w", method, err)
		}
		bodyReader = bytes.NewReader(encoded)
		httpMethod = http.MethodPost
	}

	request, err := http.NewRequestWithContext(ctx, httpMethod, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("slack: create %s request: %w", method, err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		request.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("slack: %s request failed: %w", method, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("slack: read %s response: %w", method, err)
	}

	if headers != nil {
		*headers = response.Header.Clone()
	}

	if response.StatusCode == http.StatusTooManyRequests {
		return &APIError{
			Code:       ErrCodeRateLimited,
			StatusCode: response.StatusCode,
			RetryAfter: retryAfter(response.Header),
		}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("slack: unexpected %d response from %s: %s",
			response.StatusCode, method, string(responseBody))
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("slack: parse %s response: %w", method, err)
	}

	envelope := out.envelope()
	if !envelope.OK {
		return &APIError{
			Code:       envelope.ErrCode,
			StatusCode: response.StatusCode,
			Needed:     envelope.Needed,
			Provided:   envelope.Provided,
		}
	}
	return nil
}

// retryAfter parses the Retry-After header, defaulting to 30 seconds
// when the header is absent or malformed (the documented ceiling for
// Tier 2 methods).
func retryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
