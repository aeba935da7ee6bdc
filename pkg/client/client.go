// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/organization-service/internal/identity"
)

const (
	apiPrefix      = "/api/v0"
	defaultTimeout = 30 * time.Second
)

// RequestEditorFn mutates every outgoing request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

type ClientOption func(*Client)

// WithHTTPClient replaces the default traced HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithBearerToken authenticates every request with an access token.
func WithBearerToken(token string) ClientOption {
	return WithRequestEditorFn(func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	})
}

// WithIdentity impersonates a user through the proxy identity header. The
// server honours it only when token authentication is disabled.
func WithIdentity(userID string) ClientOption {
	return WithRequestEditorFn(func(_ context.Context, req *http.Request) error {
		req.Header.Set(identity.HeaderName, userID)
		return nil
	})
}

func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(cl *Client) {
		cl.editors = append(cl.editors, fn)
	}
}

// Client talks to the organization service REST API.
type Client struct {
	server  string
	http    *http.Client
	editors []RequestEditorFn
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
}

// do sends a request and decodes the data member of the response envelope
// into out. orgID, when set, is sent as the organization context header.
func (c *Client) do(ctx context.Context, method, path, orgID string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if orgID != "" {
		req.Header.Set(identity.OrganizationHeaderName, orgID)
	}

	for _, edit := range c.editors {
		if err := edit(ctx, req); err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}

	return nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

// NewClient builds a client for the service at server, e.g. http://localhost:8080.
func NewClient(server string, opts ...ClientOption) (*Client, error) {
	if server == "" {
		return nil, fmt.Errorf("server url is required")
	}

	if !strings.HasPrefix(server, "http") {
		server = "http://" + server
	}

	if _, err := url.Parse(server); err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	c := new(Client)
	c.server = strings.TrimSuffix(server, "/")
	c.http = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}
