// Package client provides the outbound HTTP client shared by catalog
// lookups, metadata probes, and file transfers: resty on top of a
// retrying transport, gated by a token-bucket rate limiter so the catalog
// service is never hammered.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps two resty clients over one retrying transport. API requests
// (catalog lookup, probes) carry an overall timeout; transfers do not,
// since a large package download legitimately outlives any fixed deadline
// and is bounded by its context instead.
type Client struct {
	api      *resty.Client
	transfer *resty.Client
	limiter  *rate.Limiter
}

// Options configures the client.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
	Burst             int
}

// DefaultOptions returns the options used when the caller supplies none.
func DefaultOptions() Options {
	return Options{
		UserAgent:         "storeappx/1.0",
		Timeout:           30 * time.Second,
		RetryMax:          3,
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// New creates a client with retry support and rate limiting.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}

	// Underlying retryable transport shared by both clients
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil // Disable logging

	api := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryMax).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetHeader("User-Agent", opts.UserAgent)
	api.SetTransport(retryClient.HTTPClient.Transport)

	transfer := resty.New().
		SetTimeout(0).
		SetHeader("User-Agent", opts.UserAgent)
	transfer.SetTransport(retryClient.HTTPClient.Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = int(opts.RequestsPerSecond)
		}
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{api: api, transfer: transfer, limiter: limiter}
}

// Request creates a rate-limited request for catalog and probe calls.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return c.api.R().SetContext(ctx), nil
}

// Transfer creates a rate-limited request for file downloads. No overall
// timeout applies; cancellation comes from ctx.
func (c *Client) Transfer(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return c.transfer.R().SetContext(ctx), nil
}
