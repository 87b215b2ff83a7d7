// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/window"
)

type (
	// Sender delivers an aggregate to the collection endpoint.
	Sender interface {
		Deliver(ctx context.Context, res window.Result) error
	}

	// Endpoint identifies where aggregates are posted.
	Endpoint struct {
		// URL is the base URL; the tenant id and API key are appended as path
		// segments.
		URL      string
		TenantID string
		APIKey   string

		// APIKeyHeader, when set, also carries the API key as a request
		// header of this name.
		APIKeyHeader string
	}

	// Client posts aggregates as JSON to the collection endpoint.
	Client struct {
		endpoint Endpoint
		http     *http.Client
		log      log.Logger
	}
)

// DefaultAPIKeyHeader is the conventional header name for the API key.
const DefaultAPIKeyHeader = "x-api-key"

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

const redacted = "REDACTED"

// NewClient creates a delivery client for the endpoint.
func NewClient(endpoint Endpoint, opt ...ClientOption) *Client {
	var opts ClientOptions
	opts.Apply(opt)

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		endpoint: endpoint,
		http:     hc,
		log:      log.Wrap(opts.Logger),
	}
}

// URL returns the full delivery URL.
func (c *Client) URL() string {
	return strings.TrimRight(c.endpoint.URL, "/") +
		"/" + url.PathEscape(c.endpoint.TenantID) +
		"/" + url.PathEscape(c.endpoint.APIKey)
}

// RedactedURL is URL with the API key segment masked, for logs and errors.
func (c *Client) RedactedURL() string {
	return strings.TrimRight(c.endpoint.URL, "/") +
		"/" + url.PathEscape(c.endpoint.TenantID) +
		"/" + redacted
}

// redact replaces the request URL carried by an *url.Error, since it holds
// the API key.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: c.RedactedURL(), Err: ue.Err}
}

// Deliver posts the aggregate. Only a 200 response counts as success.
func (c *Client) Deliver(ctx context.Context, res window.Result) error {
	if res == nil {
		res = window.Result{}
	}
	body, err := json.Marshal(res)
	if err != nil {
		return &TransportError{err}
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.URL(),
		bytes.NewReader(body),
	)
	if err != nil {
		return &TransportError{err}
	}

	requestID, err := uuid.NewV7()
	if err != nil {
		return &TransportError{err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID.String())
	if c.endpoint.APIKeyHeader != "" {
		req.Header.Set(c.endpoint.APIKeyHeader, c.endpoint.APIKey)
	}

	c.log.Log(ctx, slog.LevelDebug, "posting aggregate",
		slog.String("tenant", c.endpoint.TenantID),
		slog.String("request_id", requestID.String()),
		slog.Int("devices", len(res)),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{c.redact(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
