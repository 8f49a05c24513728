// Package backend talks to the image effect service over its JSON/multipart HTTP API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"imgfx/internal/core/domain"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	uploadPath  = "/api/upload"
	processPath = "/api/process"
	galleryPath = "/api/images"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client implements port.Uploader, port.Processor and port.GalleryFetcher.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	retry      RetryPolicy
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(client *Client) {
		client.retry = p
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		retry:      DefaultRetryPolicy,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// ResolveURL turns a backend-relative reference such as /processed/x.png into an absolute URL.
func (c *Client) ResolveURL(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}

	return c.baseURL.ResolveReference(r).String(), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusError is a non-2xx reply; message is the server-supplied error, if any.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("unexpected status code %d", e.status)
	}

	return fmt.Sprintf("unexpected status code %d: %s", e.status, e.message)
}

func (e *statusError) retryable() bool {
	return e.status >= http.StatusInternalServerError || e.status == http.StatusTooManyRequests
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing %s %s: %w", req.Method, req.URL.Path, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", res.StatusCode).
		Int("bytes", len(body)).
		Msg("backend response")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return nil, &statusError{status: res.StatusCode, message: e.Error}
	}

	return body, nil
}

// toWorkflowError maps a transport or status failure onto the user-facing taxonomy.
// A server-supplied message wins over fallback; deadline expiry becomes a timeout.
func toWorkflowError(err error, kind domain.ErrorKind, fallback string) *domain.WorkflowError {
	var werr *domain.WorkflowError
	if errors.As(err, &werr) {
		return werr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.KindTimeout, domain.MsgTimeout, err)
	}

	var serr *statusError
	if errors.As(err, &serr) && serr.message != "" {
		return domain.WrapError(kind, serr.message, err)
	}

	return domain.WrapError(kind, fallback, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
