package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits: every page talks to the same host in a tight loop
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// HTTPDriver is a [Driver] that drives pages over plain HTTP.
//
// All pages created by one HTTPDriver share a cookie jar, so a login
// performed on any page authenticates every page, the same way browser tabs
// share cookies.
type HTTPDriver struct {
	httpClient *http.Client
	timeout    time.Duration
	headers    map[string]string
	pages      atomic.Int64
}

// HTTPOption configures an [HTTPDriver].
type HTTPOption func(*HTTPDriver)

// WithRequestTimeout bounds each navigation. Zero disables the bound.
func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(d *HTTPDriver) {
		d.timeout = timeout
	}
}

// WithHeader sets a header sent with every request (e.g. User-Agent).
func WithHeader(key, value string) HTTPOption {
	return func(d *HTTPDriver) {
		d.headers[key] = value
	}
}

// NewHTTPDriver creates an [HTTPDriver] with connection pooling and an empty
// cookie jar.
func NewHTTPDriver(opts ...HTTPOption) (*HTTPDriver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	d := &HTTPDriver{
		httpClient: &http.Client{
			Jar: jar,
			// no client timeout - navigation timeouts are applied per request
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewPage creates a page sharing the driver's session.
func (d *HTTPDriver) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := d.pages.Add(1)
	return &httpPage{
		name:   fmt.Sprintf("page%d", n),
		driver: d,
		form:   make(url.Values),
	}, nil
}

// Close drops idle connections. Pages left open stay usable.
func (d *HTTPDriver) Close() {
	if d == nil || d.httpClient == nil {
		return
	}
	if transport, ok := d.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// do performs a request and returns the final URL after redirects.
func (d *HTTPDriver) do(ctx context.Context, method, target string, form url.Values) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// drain (bounded) so the connection can be reused
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize)); err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.Request.URL.String(), nil
}

// httpPage is a Page backed by an HTTPDriver.
type httpPage struct {
	name   string
	driver *HTTPDriver

	mu      sync.Mutex
	url     string
	form    url.Values
	pending chan navigation
	closed  bool
}

// navigation is the outcome of a submission started by Click.
type navigation struct {
	url string
	err error
}

func (p *httpPage) Name() string {
	return p.name
}

func (p *httpPage) Navigate(ctx context.Context, target string) error {
	if p.isClosed() {
		return ErrPageClosed
	}

	final, err := p.driver.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	p.setURL(final)
	return nil
}

func (p *httpPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *httpPage) Type(field, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPageClosed
	}
	p.form.Set(field, text)
	return nil
}

// Click submits the typed form fields to control (the form action URL) in the
// background. The buffered fields are consumed by the submission.
func (p *httpPage) Click(ctx context.Context, control string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	form := p.form
	p.form = make(url.Values)
	pending := make(chan navigation, 1)
	p.pending = pending
	p.mu.Unlock()

	go func() {
		final, err := p.driver.do(ctx, http.MethodPost, control, form)
		pending <- navigation{url: final, err: err}
	}()
	return nil
}

func (p *httpPage) WaitForNavigation(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pending == nil {
		return ErrNoNavigation
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case nav := <-pending:
		if nav.err != nil {
			return nav.err
		}
		p.setURL(nav.url)
		return nil
	}
}

func (p *httpPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.pending = nil
	return nil
}

func (p *httpPage) setURL(u string) {
	p.mu.Lock()
	p.url = u
	p.mu.Unlock()
}

func (p *httpPage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
