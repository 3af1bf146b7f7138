package hostfuncs

import (
	"bytes"
	"context"
	"encoding/base64"
	stdErrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/middle-dev/middle-sdk/application/validation"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

var _ ports.HTTPClient = (*HTTPClient)(nil)

// HTTPOption is a functional option for configuring an HTTPClient.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	timeout      time.Duration
	maxBodySize  int64
	maxRedirects int
	userAgent    string
	filter       *AddressFilter
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeout:      30 * time.Second,
		maxBodySize:  10 * 1024 * 1024, // 10MB
		maxRedirects: 10,
		userAgent:    "middle-host",
	}
}

// WithHTTPTimeout sets the default request timeout. A request's own timeout
// takes precedence.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPMaxBodySize caps the response body the host will read.
func WithHTTPMaxBodySize(size int64) HTTPOption {
	return func(c *httpConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPMaxRedirects sets how many redirects are followed. Zero disables
// following.
func WithHTTPMaxRedirects(n int) HTTPOption {
	return func(c *httpConfig) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithHTTPUserAgent sets the User-Agent for requests that do not set one.
func WithHTTPUserAgent(ua string) HTTPOption {
	return func(c *httpConfig) {
		c.userAgent = ua
	}
}

// WithHTTPAddressFilter sets the filter every connection is checked against.
func WithHTTPAddressFilter(f *AddressFilter) HTTPOption {
	return func(c *httpConfig) {
		c.filter = f
	}
}

// HTTPClient performs guest requests. Every dial goes through the
// AddressFilter and connects to the IP it resolved, redirects included.
type HTTPClient struct {
	cfg    httpConfig
	client *http.Client
}

// NewHTTPClient creates a client. Without WithHTTPAddressFilter the default
// filter blocks private and loopback destinations.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.filter == nil {
		cfg.filter = NewAddressFilter()
	}

	filter := cfg.filter
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	transport := &http.Transport{
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ip, err := filter.Resolve(ctx, host)
			if err != nil {
				return nil, fmt.Errorf("connection blocked: %w", err)
			}
			return dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
		},
	}

	client := &http.Client{Transport: transport}
	maxRedirects := cfg.maxRedirects
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if maxRedirects == 0 {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &HTTPClient{cfg: cfg, client: client}
}

// Do implements ports.HTTPClient.
func (c *HTTPClient) Do(ctx context.Context, req entities.HostRequest) (*entities.HostResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	timeout := c.cfg.timeout
	if req.Timeout != nil && *req.Timeout > 0 {
		timeout = *req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if httpReq.Header.Get("User-Agent") == "" && c.cfg.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.userAgent)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.TimeoutError{Operation: "request", Target: req.URL, Duration: timeout}
		}
		return nil, &errors.NetworkError{Operation: "request", Target: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.maxBodySize+1))
	if err != nil {
		return nil, &errors.NetworkError{Operation: "read body", Target: req.URL, Err: err}
	}
	if int64(len(body)) > c.cfg.maxBodySize {
		return nil, &errors.NetworkError{
			Operation: "read body",
			Target:    req.URL,
			Err:       fmt.Errorf("response body exceeds %d bytes", c.cfg.maxBodySize),
		}
	}

	return &entities.HostResponse{
		StatusCode: uint32(resp.StatusCode),
		Headers:    flattenHeaders(resp.Header),
		Body:       string(body),
	}, nil
}

// buildHTTPRequest maps a request description onto net/http. At most one of
// JSON, Form and Body is set.
func buildHTTPRequest(ctx context.Context, req entities.HostRequest) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
		bodies      int
	)
	if len(req.JSON) > 0 {
		body, contentType = bytes.NewReader(req.JSON), "application/json"
		bodies++
	}
	if len(req.Form) > 0 {
		body, contentType = strings.NewReader(encodeForm(req.Form)), "application/x-www-form-urlencoded"
		bodies++
	}
	if req.Body != nil {
		body = strings.NewReader(*req.Body)
		bodies++
	}
	if bodies > 1 {
		return nil, &errors.ConfigError{Field: "body", Err: stdErrors.New("only one of body, form and json may be set")}
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, body)
	if err != nil {
		return nil, &errors.ConfigError{Field: "url", Err: err}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for _, kv := range req.Headers {
		httpReq.Header.Add(kv.Key, kv.Value)
	}
	switch {
	case req.BasicAuth != nil:
		cred := req.BasicAuth.Username + ":" + req.BasicAuth.Password
		httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cred)))
	case req.BearerAuth != nil:
		httpReq.Header.Set("Authorization", "Bearer "+*req.BearerAuth)
	}
	return httpReq, nil
}

// encodeForm keeps field order, unlike url.Values.Encode.
func encodeForm(fields []entities.KeyValue) string {
	parts := make([]string, 0, len(fields))
	for _, kv := range fields {
		parts = append(parts, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
	}
	return strings.Join(parts, "&")
}

// flattenHeaders returns headers sorted by name, values in received order.
func flattenHeaders(h http.Header) []entities.KeyValue {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]entities.KeyValue, 0, len(names))
	for _, name := range names {
		for _, v := range h[name] {
			out = append(out, entities.KeyValue{Key: name, Value: v})
		}
	}
	return out
}

// PerformRequest serves host_request: it runs req through client and folds
// any failure into the result's error text.
func PerformRequest(ctx context.Context, client ports.HTTPClient, req entities.HostRequest) entities.RequestResult {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return entities.RequestResult{Err: err.Error()}
	}
	return entities.RequestResult{OK: resp}
}
