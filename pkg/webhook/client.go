package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shpitdev/profile-finder/pkg/pipeline/redact"
	"github.com/shpitdev/profile-finder/pkg/profiles"
)

// Config describes the single endpoint the dispatcher talks to.
type Config struct {
	// URL is the absolute webhook endpoint.
	URL string

	// Timeout bounds the whole call. Zero leaves it to the caller's context.
	Timeout time.Duration

	UserAgent string

	// HTTPClient overrides the underlying transport (tests, custom TLS).
	HTTPClient *http.Client
}

// Client posts company lists to the webhook.
//
// One Dispatch is exactly one POST: no retries, no chunking.
type Client struct {
	url  string
	http *resty.Client
}

// NetworkError wraps a failure to get any HTTP response at all.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil || e.Err == nil {
		return "webhook: request failed"
	}
	return fmt.Sprintf("webhook: post %s: %s", redact.URL(e.URL), redact.Secrets(e.Err.Error()))
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("webhook URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse webhook URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook URL must be an absolute http(s) URL (got %q)", redact.URL(raw))
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetRetryCount(0)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "profile-finder"
	}
	rc.SetHeader("User-Agent", ua)

	return &Client{url: u.String(), http: rc}, nil
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	return c.url
}

// Dispatch sends records in one request and validates the reply.
func (c *Client) Dispatch(ctx context.Context, records []profiles.UploadRecord) (profiles.ProcessingResponse, error) {
	if len(records) == 0 {
		return profiles.ProcessingResponse{}, errors.New("webhook: no records to dispatch")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(profiles.Request{Body: records}).
		Post(c.url)
	if err != nil {
		return profiles.ProcessingResponse{}, &NetworkError{URL: c.url, Err: err}
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return profiles.ProcessingResponse{}, newTransportError(resp.StatusCode(), resp.Status(), body)
	}

	var out profiles.ProcessingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return profiles.ProcessingResponse{}, &ProcessingError{
			Message: "invalid response from webhook",
			Err:     err,
		}
	}
	if !out.Succeeded() {
		return out, &ProcessingError{Status: out.Status, Message: out.Message}
	}
	return out, nil
}
