package storecrawler

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
)

// staticBrowser fetches pages over plain HTTP. It runs no scripts, so it only
// suits server-rendered markup, but it needs no browser binary.
type staticBrowser struct {
	client    *http.Client
	userAgent string
	referer   string
}

type staticPage struct {
	browser *staticBrowser

	mu      sync.Mutex
	html    string
	current string
}

func (app *Crawler) newStaticBrowser() *staticBrowser {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   60 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 60 * time.Second,
	}
	return &staticBrowser{
		client:    &http.Client{Transport: transport},
		userAgent: app.engine.UserAgent,
		referer:   app.BaseUrl,
	}
}

func (b *staticBrowser) NewPage() (pageDriver, error) {
	return &staticPage{browser: b}, nil
}

func (b *staticBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (p *staticPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NavigationError{Url: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", p.browser.userAgent)
	if p.browser.referer != "" {
		req.Header.Set("Referer", p.browser.referer)
	}

	resp, err := p.browser.client.Do(req)
	if err != nil {
		return &NavigationError{Url: url, Timeout: isTimeout(err) || isTimeout(ctx.Err()), Err: err}
	}
	defer resp.Body.Close()

	if !Ok(resp.StatusCode) {
		return &NavigationError{Url: url, Status: resp.StatusCode, Err: fmt.Errorf("%s", resp.Status)}
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return &NavigationError{Url: url, Err: fmt.Errorf("failed to create reader with correct encoding: %w", err)}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return &NavigationError{Url: url, Timeout: isTimeout(ctx.Err()), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	p.mu.Lock()
	p.html = string(body)
	p.current = resp.Request.URL.String()
	p.mu.Unlock()
	return nil
}

func (p *staticPage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

// ScrollBy is a no-op: static pages have no viewport.
func (p *staticPage) ScrollBy(offset int) error {
	return nil
}

func (p *staticPage) Url() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *staticPage) Close() error {
	return nil
}
