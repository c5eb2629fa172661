package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	// HTTP client retry configuration.
	defaultRetryWaitTime    = 500 * time.Millisecond
	defaultRetryMaxWaitTime = 5 * time.Second

	// Rate limiting configuration. BMCs are small embedded web servers.
	defaultRequestsPerSecond = 5
	defaultBurst             = 10
)

const (
	contentTypeJSON = "application/json"
	acceptJSON      = "application/json"
	userAgent       = "bmcprobe/1.0"

	// AuthTokenHeader carries the Redfish session token.
	AuthTokenHeader = "X-Auth-Token"
)

// Options configures an Adapter.
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	// RetryCount applies to GET requests only, and only on transport errors
	// or 5xx responses. Zero disables retries.
	RetryCount        int
	RequestsPerSecond float64
	Burst             int
}

// Adapter is an HTTP client adapter using resty with rate limiting.
type Adapter struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAdapter creates a new HTTP adapter for talking to a BMC.
func NewAdapter(opts Options, logger *slog.Logger) *Adapter {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", acceptJSON).
		SetHeader("User-Agent", userAgent).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // BMCs ship self-signed certificates
		})

	if opts.RetryCount > 0 {
		client.
			SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(defaultRetryWaitTime).
			SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
			AddRetryCondition(retryIdempotentReads)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	a := &Adapter{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return a.limiter.Wait(req.Context())
	})

	// The token header is never logged.
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.DebugContext(req.Context(), "HTTP request",
			"method", req.Method,
			"url", req.URL,
		)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.DebugContext(resp.Request.Context(), "HTTP response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})

	return a
}

// retryIdempotentReads retries GETs on transport errors and 5xx. Reset
// actions and session creation are never repeated by the transport.
func retryIdempotentReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// Post performs an unauthenticated POST request with optional JSON payload.
func (a *Adapter) Post(
	ctx context.Context,
	url string,
	payload any,
) (*http.Response, error) {
	return a.post(ctx, url, "", payload)
}

// GetWithAuth performs a GET request carrying the session token.
func (a *Adapter) GetWithAuth(ctx context.Context, url, token string) (*http.Response, error) {
	resp, err := a.request(ctx, token).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute authenticated GET request: %w", err)
	}
	return resp.RawResponse, nil
}

// PostWithAuth performs a POST request with the session token and optional JSON payload.
func (a *Adapter) PostWithAuth(
	ctx context.Context,
	url, token string,
	payload any,
) (*http.Response, error) {
	return a.post(ctx, url, token, payload)
}

// DeleteWithAuth performs a DELETE request carrying the session token.
func (a *Adapter) DeleteWithAuth(ctx context.Context, url, token string) (*http.Response, error) {
	resp, err := a.request(ctx, token).Delete(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute authenticated DELETE request: %w", err)
	}
	return resp.RawResponse, nil
}

func (a *Adapter) request(ctx context.Context, token string) *resty.Request {
	request := a.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	if token != "" {
		request.SetHeader(AuthTokenHeader, token)
	}
	return request
}

func (a *Adapter) post(ctx context.Context, url, token string, payload any) (*http.Response, error) {
	request := a.request(ctx, token)
	if payload != nil {
		request.SetHeader("Content-Type", contentTypeJSON).SetBody(payload)
	}

	resp, err := request.Post(url)
	if err != nil {
		// Handle resty marshaling errors
		if strings.Contains(err.Error(), "unsupported 'Body' type/value") {
			return nil, fmt.Errorf("failed to prepare POST payload: %w", err)
		}
		return nil, fmt.Errorf("failed to execute POST request: %w", err)
	}
	return resp.RawResponse, nil
}
