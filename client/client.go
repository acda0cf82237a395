// Package client performs signed HTTP exchanges against the remote
// management API. Every request carries Date, Host, Digest, and a detached
// Signature authorization header computed over the canonical request string.
package client

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/crmarques/intersync/config"
	"github.com/crmarques/intersync/credentials"
)

const (
	defaultHTTPTimeout = 30 * time.Second

	MediaTypeJSON      = "application/json"
	MediaTypeJSONPatch = "application/json-patch+json"

	traceIDHeader = "X-Starship-Traceid"
)

type Client struct {
	baseURL        *url.URL
	cred           *credentials.Credential
	http           *http.Client
	log            logr.Logger
	limiter        *rate.Limiter
	maxAttempts    int
	initialBackoff time.Duration
	pageSize       int
	metrics        *clientMetrics
	now            func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for example to install
// a custom transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h == nil {
			return
		}
		c.http = h
	}
}

// WithInsecureTLS disables server certificate verification. Intended for lab
// endpoints only.
func WithInsecureTLS() Option {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.http = &http.Client{
			Timeout:   c.http.Timeout,
			Transport: transport,
		}
	}
}

func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit throttles outbound requests to rps requests per second with
// the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry bounds the transient-failure retry budget. maxAttempts counts the
// initial attempt; initialBackoff seeds the exponential backoff schedule.
func WithRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if initialBackoff > 0 {
			c.initialBackoff = initialBackoff
		}
	}
}

func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMetrics registers request counters and latency histograms with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg == nil {
			return
		}
		c.metrics = newClientMetrics(reg)
	}
}

func New(baseURL string, cred *credentials.Credential, opts ...Option) (*Client, error) {
	parsed, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, validationError("credential is required", nil)
	}

	client := &Client{
		baseURL:        parsed,
		cred:           cred,
		http:           &http.Client{Timeout: defaultHTTPTimeout},
		log:            logr.Discard(),
		maxAttempts:    config.DefaultRetryMaxAttempts,
		initialBackoff: config.DefaultRetryInitialBackoff,
		pageSize:       config.DefaultPageSize,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	return client, nil
}

// NewFromSettings wires a client from loaded configuration: credential,
// endpoint, retry budget, page size, rate limit, and the TLS verification
// toggle.
func NewFromSettings(settings config.Settings, opts ...Option) (*Client, error) {
	pemText, err := settings.PrivateKeyPEM()
	if err != nil {
		return nil, err
	}
	cred, err := credentials.Load(settings.KeyID, pemText)
	if err != nil {
		return nil, err
	}

	baseURL := settings.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultBaseURL
	}

	built := []Option{
		WithRetry(settings.Retry.MaxAttempts, settings.Retry.InitialBackoff),
		WithPageSize(settings.PageSize),
	}
	if settings.RateLimit > 0 {
		built = append(built, WithRateLimit(settings.RateLimit, 1))
	}
	if settings.InsecureSkipVerify {
		built = append(built, WithInsecureTLS())
	}
	built = append(built, opts...)

	return New(baseURL, cred, built...)
}

// PageSize is the collection pagination window used by ListAll.
func (c *Client) PageSize() int {
	return c.pageSize
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("base url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("base url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("base url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("base url host is required", nil)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed, nil
}
