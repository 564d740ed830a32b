package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/awalters-dev/courier/packages/trust"
)

const (
	// DefaultReadTimeout bounds the wait for response headers and the read
	// of each response body.
	DefaultReadTimeout = 3 * time.Second
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 3 * time.Second
	// DefaultMaxRedirects is the redirect hop budget.
	DefaultMaxRedirects = 10

	defaultAccept   = "application/json"
	bodyContentType = "application/json; utf-8"
)

// Client executes requests synchronously: one blocking network call per
// dispatch, plus one recursive dispatch per redirect hop. The transport and
// the trust aggregator are built once at construction and never mutated, so
// a single Client is safe to share across goroutines.
type Client struct {
	httpClient      *http.Client
	readTimeout     time.Duration
	connectTimeout  time.Duration
	followRedirects bool
	maxRedirects    int
	proxyURL        string
	userAgent       string
	anchors         []*trust.Anchor
	aggregator      *trust.Aggregator
	logger          *slog.Logger
	interceptors    interceptorChain
}

type ClientOption func(*Client)

func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.readTimeout = d
	}
}

func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirects = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithTrustAnchors adds caller-supplied certificates that are trusted in
// addition to the platform trust store.
func WithTrustAnchors(anchors ...*trust.Anchor) ClientOption {
	return func(c *Client) {
		c.anchors = append(c.anchors, anchors...)
	}
}

// WithProxy routes all requests through the given proxy URL.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithUserAgent sets a default User-Agent, applied only when a request does
// not carry one of its own.
func WithUserAgent(agent string) ClientOption {
	return func(c *Client) {
		c.userAgent = agent
	}
}

// WithLogger attaches a structured logger; dispatches and redirects are
// logged at debug level.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient validates the options and builds the transport and trust
// aggregator eagerly, so configuration problems surface here rather than on
// the first request.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		readTimeout:     DefaultReadTimeout,
		connectTimeout:  DefaultConnectTimeout,
		followRedirects: true,
		maxRedirects:    DefaultMaxRedirects,
		logger:          slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.readTimeout < 0 {
		return nil, fmt.Errorf("read timeout must not be negative, got %v", c.readTimeout)
	}
	if c.connectTimeout < 0 {
		return nil, fmt.Errorf("connect timeout must not be negative, got %v", c.connectTimeout)
	}
	if c.maxRedirects < 0 {
		return nil, fmt.Errorf("max redirects must not be negative, got %d", c.maxRedirects)
	}

	c.aggregator = trust.NewAggregator(c.anchors...)

	dialer := &net.Dialer{Timeout: c.connectTimeout}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DialTLSContext:        c.dialTLS(dialer),
		ResponseHeaderTimeout: c.readTimeout,
		// Proxied HTTPS bypasses DialTLSContext and uses this instead;
		// there the leaf is checked against the negotiated server name.
		TLSClientConfig: c.aggregator.TLSConfig(),
		// One blocking call per dispatch: no pooling, no HTTP/2.
		DisableKeepAlives: true,
		TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
	}

	if c.proxyURL != "" {
		u, err := neturl.Parse(c.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	c.httpClient = &http.Client{
		Transport: transport,
		// Redirects are followed by Execute so interceptors re-run per hop.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return c, nil
}

// dialTLS is the secure socket factory: it dials with the connect timeout
// and hands the connection to the trust aggregator for verification against
// the dialed host.
func (c *Client) dialTLS(dialer *net.Dialer) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		tlsConn := tls.Client(conn, c.aggregator.TLSConfigForHost(host))
		if c.connectTimeout > 0 {
			_ = conn.SetDeadline(time.Now().Add(c.connectTimeout))
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		_ = conn.SetDeadline(time.Time{})

		return tlsConn, nil
	}
}

// AddRequestInterceptor appends an interceptor to the chain; nil is ignored.
func (c *Client) AddRequestInterceptor(i Interceptor) {
	c.interceptors.add(i)
}

// RemoveRequestInterceptor removes the first registered interceptor equal
// to i.
func (c *Client) RemoveRequestInterceptor(i Interceptor) {
	c.interceptors.remove(i)
}

// RemoveAllRequestInterceptors empties the chain.
func (c *Client) RemoveAllRequestInterceptors() {
	c.interceptors.clear()
}

// Execute runs the interceptor chain over req, dispatches it, and
// classifies the outcome: a 2xx response is returned, a 3xx response is
// followed (or reported as *RedirectError), anything else becomes
// *UnsuccessfulStatusError. Network failures surface as *TransportError.
func (c *Client) Execute(req *Request) (*Response, error) {
	return c.execute(req, 0)
}

func (c *Client) Get(url string) (*Response, error) {
	return c.Execute(NewGetRequest(url))
}

func (c *Client) Head(url string) (*Response, error) {
	return c.Execute(NewHeadRequest(url))
}

func (c *Client) Options(url string) (*Response, error) {
	return c.Execute(NewOptionsRequest(url))
}

func (c *Client) Delete(url string) (*Response, error) {
	return c.Execute(NewDeleteRequest(url))
}

func (c *Client) Post(url, body string) (*Response, error) {
	return c.Execute(NewPostRequest(url, body))
}

func (c *Client) Put(url, body string) (*Response, error) {
	return c.Execute(NewPutRequest(url, body))
}

func (c *Client) Patch(url, body string) (*Response, error) {
	return c.Execute(NewPatchRequest(url, body))
}

func (c *Client) execute(req *Request, hops int) (*Response, error) {
	if err := c.applyInterceptors(req); err != nil {
		return nil, err
	}

	if err := ValidateURL(req.URL); err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	httpReq, err := c.buildHTTPRequest(req)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	c.logger.Debug("dispatching request",
		"method", req.Method(),
		"url", req.URL,
		"hop", hops)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	// ResponseHeaderTimeout only covers the wait for the status line and
	// headers; the body gets its own read-timeout window.
	if c.readTimeout > 0 {
		httpResp.Body = newTimeoutBody(httpResp.Body, c.readTimeout)
	}

	return c.classify(req, httpResp, hops)
}

func (c *Client) applyInterceptors(req *Request) error {
	for _, i := range c.interceptors.snapshot() {
		if err := i.Intercept(req); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) buildHTTPRequest(req *Request) (*http.Request, error) {
	var body io.Reader
	payload, hasBody := req.Body()
	if hasBody {
		body = bytes.NewBufferString(payload)
	}

	httpReq, err := http.NewRequest(req.Method(), req.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", defaultAccept)
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if hasBody {
		httpReq.Header.Set("Content-Type", bodyContentType)
	}
	if c.userAgent != "" {
		if _, ok := req.HeaderValue("User-Agent"); !ok {
			httpReq.Header.Set("User-Agent", c.userAgent)
		}
	}

	return httpReq, nil
}

func (c *Client) classify(req *Request, httpResp *http.Response, hops int) (*Response, error) {
	status := httpResp.StatusCode

	switch {
	case status >= 200 && status <= 299:
		body, err := ReadText(httpResp.Body, charsetOf(httpResp.Header))
		if err != nil {
			return nil, &TransportError{URL: req.URL, Err: err}
		}
		return &Response{
			StatusCode: status,
			Body:       body,
			Headers:    flattenHeaders(httpResp.Header),
		}, nil

	case status >= 300 && status <= 399 && c.followRedirects:
		return c.followRedirect(req, httpResp, hops)

	case status >= 300 && status <= 399:
		body, err := ReadText(httpResp.Body, charsetOf(httpResp.Header))
		if err != nil {
			return nil, &TransportError{URL: req.URL, Err: err}
		}
		return nil, &RedirectError{URL: req.URL, StatusCode: status, Body: body}

	default:
		body, err := ReadText(httpResp.Body, charsetOf(httpResp.Header))
		if err != nil {
			return nil, &TransportError{URL: req.URL, Err: err}
		}
		return nil, &UnsuccessfulStatusError{URL: req.URL, StatusCode: status, Body: body}
	}
}

// followRedirect synthesizes a GET for the Location target carrying the
// original request's headers verbatim (the body, if any, is dropped) and
// re-enters the full execution pipeline, interceptors included.
func (c *Client) followRedirect(req *Request, httpResp *http.Response, hops int) (*Response, error) {
	target, err := httpResp.Location()
	httpResp.Body.Close()
	if err != nil {
		if errors.Is(err, http.ErrNoLocation) {
			return nil, &RedirectError{
				URL:        req.URL,
				StatusCode: httpResp.StatusCode,
				Body:       "No Location header",
			}
		}
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	if hops >= c.maxRedirects {
		return nil, &TooManyRedirectsError{URL: req.URL, Hops: hops}
	}

	c.logger.Debug("following redirect",
		"status", httpResp.StatusCode,
		"location", target.String(),
		"hop", hops+1)

	next := NewGetRequest(target.String())
	next.Headers = append([]Header(nil), req.Headers...)

	return c.execute(next, hops+1)
}

// timeoutBody fails response body reads that outlive the read timeout. The
// window opens when the headers arrive and Close stops it, so each redirect
// hop's body gets its own window. Expiry closes the underlying body, which
// unblocks an in-flight Read; a read that already reached EOF is never
// converted into a failure.
type timeoutBody struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

func newTimeoutBody(rc io.ReadCloser, timeout time.Duration) *timeoutBody {
	b := &timeoutBody{rc: rc, timeout: timeout}
	b.timer = time.AfterFunc(timeout, func() {
		b.expired.Store(true)
		rc.Close()
	})
	return b
}

func (b *timeoutBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && b.expired.Load() {
		return n, fmt.Errorf("body read exceeded the %v read timeout", b.timeout)
	}
	return n, err
}

func (b *timeoutBody) Close() error {
	b.timer.Stop()
	return b.rc.Close()
}

func charsetOf(h http.Header) string {
	ct := h.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for name, values := range h {
		headers[name] = strings.Join(values, ", ")
	}
	return headers
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme.
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
