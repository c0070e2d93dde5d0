// Package transport carries the form exchanges over HTTP: ajax style
// validation and submission posts, and regular form navigation.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// RequestedWithHeader marks asynchronous requests, the way browser ajax
// libraries do.
const RequestedWithHeader = "X-Requested-With"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client performs the requests of one page.  Form actions and endpoints are
// resolved against the base URL.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger

	// applied to a copy of http once all options ran
	timeout time.Duration
	jar     http.CookieJar
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.http = hc
		return nil
	}
}

// WithTimeout sets the request timeout.  The client passed with
// WithHTTPClient is not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithCookieJar keeps cookies between requests (the session cookie of the
// form server, for instance).
func WithCookieJar() Option {
	return func(c *Client) error {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return err
		}
		c.jar = jar
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		c.log = logger
		return nil
	}
}

// New returns a Client for the page at base.
func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	c := &Client{
		base: u,
		http: new(http.Client),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.timeout != 0 || c.jar != nil {
		hc := *c.http
		if c.timeout != 0 {
			hc.Timeout = c.timeout
		}
		if c.jar != nil {
			hc.Jar = c.jar
		}
		c.http = &hc
	}
	return c, nil
}

// Resolve returns the absolute URL of a reference relative to the base.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// Post sends values form-encoded to endpoint as an asynchronous request and
// returns the response body.  There are no retries.
func (c *Client) Post(ctx context.Context, endpoint string, values url.Values) (string, error) {
	target, err := c.Resolve(endpoint)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(RequestedWithHeader, "XMLHttpRequest")
	return c.do(req)
}

// Navigate performs a regular form submission.  GET requests carry the
// values in the query string, any other method in the body.  Redirects are
// followed and the body of the final page is returned.
func (c *Client) Navigate(ctx context.Context, method, action string, values url.Values) (string, error) {
	target, err := c.Resolve(action)
	if err != nil {
		return "", err
	}
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var req *http.Request
	if method == http.MethodGet {
		u, err := url.Parse(target)
		if err != nil {
			return "", err
		}
		u.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return "", err
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, strings.NewReader(values.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.do(req)
}

// Get loads a page.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Request failed", zap.String("method", req.Method), zap.String("url", req.URL.String()), zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", req.URL, err)
	}
	c.log.Debug("Request done",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	return string(body), nil
}
