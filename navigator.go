package storecrawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// browserDriver is the automation runtime behind a Session.
type browserDriver interface {
	NewPage() (pageDriver, error)
	Close() error
}

// pageDriver is one tab of a browserDriver.
type pageDriver interface {
	// Goto loads url and returns once network activity has settled or timeout elapsed.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Content() (string, error)
	ScrollBy(offset int) error
	Url() string
	Close() error
}

type PageState int

const (
	PageCreated PageState = iota
	PageNavigating
	PageLoaded
	PageLazyLoadTriggered
	PageClosed
)

func (s PageState) String() string {
	switch s {
	case PageCreated:
		return "created"
	case PageNavigating:
		return "navigating"
	case PageLoaded:
		return "loaded"
	case PageLazyLoadTriggered:
		return "lazy-load-triggered"
	case PageClosed:
		return "closed"
	}
	return fmt.Sprintf("PageState(%d)", int(s))
}

// Session owns one browser process for the lifetime of a crawl call.
type Session struct {
	app     *Crawler
	adapter string
	driver  browserDriver

	mu     sync.Mutex
	pages  []*Page
	closed bool
	stop   func() bool
}

// Page is a browser tab opened through a Session.
type Page struct {
	driver pageDriver

	mu    sync.Mutex
	state PageState
	url   string
}

// OpenSession launches the configured browser runtime. The session is torn
// down when ctx is done, so callers can bound a crawl with a deadline; they
// must still Close it on every exit path.
func (app *Crawler) OpenSession(ctx context.Context) (*Session, error) {
	launch := app.launcher
	if launch == nil {
		launch = app.launchBrowser
	}
	driver, err := launch(ctx)
	if err != nil {
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			return nil, launchErr
		}
		return nil, &LaunchError{Adapter: app.engine.Adapter, Err: err}
	}

	session := &Session{app: app, adapter: app.engine.Adapter, driver: driver}
	session.stop = context.AfterFunc(ctx, func() {
		app.Logger.Warn("Crawl context done (%v), tearing down %s session", context.Cause(ctx), session.adapter)
		session.Close()
	})
	return session, nil
}

func (app *Crawler) launchBrowser(ctx context.Context) (browserDriver, error) {
	switch app.engine.Adapter {
	case RodEngine:
		return app.launchRod(ctx)
	case PlayWrightEngine:
		return app.launchPlaywright()
	case StaticEngine:
		return app.newStaticBrowser(), nil
	}
	return nil, &LaunchError{Adapter: app.engine.Adapter, Err: fmt.Errorf("unsupported browser adapter: %q", app.engine.Adapter)}
}

// NewPage opens a fresh tab in the Created state.
func (s *Session) NewPage() (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	driver, err := s.driver.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page := &Page{driver: driver, state: PageCreated}
	s.pages = append(s.pages, page)
	return page, nil
}

// Navigate opens a new page and loads url on it. On failure the page is
// already closed and a *NavigationError is returned.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) (*Page, error) {
	page, err := s.NewPage()
	if err != nil {
		return nil, err
	}
	if err := page.Goto(ctx, url, timeout); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

// Close closes every page and the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pages := s.pages
	s.pages = nil
	s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	for _, page := range pages {
		page.Close()
	}
	if err := s.driver.Close(); err != nil {
		s.app.Logger.Error("Failed to close %s browser: %v", s.adapter, err)
		return err
	}
	return nil
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (p *Page) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Url is the page's current location, after redirects.
func (p *Page) Url() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PageLoaded || p.state == PageLazyLoadTriggered {
		if current := p.driver.Url(); current != "" {
			return current
		}
	}
	return p.url
}

func (p *Page) transition(from []PageState, to PageState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PageClosed {
		return ErrPageClosed
	}
	for _, s := range from {
		if p.state == s {
			p.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid page transition %s -> %s", p.state, to)
}

// Goto loads url, waiting for network idle up to timeout.
func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.transition([]PageState{PageCreated, PageLoaded, PageLazyLoadTriggered}, PageNavigating); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()

	if err := p.driver.Goto(ctx, url, timeout); err != nil {
		p.mu.Lock()
		if p.state == PageNavigating {
			p.state = PageCreated
		}
		p.mu.Unlock()
		return navigationError(url, err)
	}
	return p.transition([]PageState{PageNavigating}, PageLoaded)
}

// Document parses the rendered DOM of a loaded page.
func (p *Page) Document() (*goquery.Document, error) {
	state := p.State()
	if state == PageClosed {
		return nil, ErrPageClosed
	}
	if state != PageLoaded && state != PageLazyLoadTriggered {
		return nil, fmt.Errorf("page not loaded: %s", state)
	}
	html, err := p.driver.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Html returns the raw page content, empty when unavailable.
func (p *Page) Html() string {
	if p.State() == PageClosed {
		return ""
	}
	html, err := p.driver.Content()
	if err != nil {
		return ""
	}
	return html
}

// Close releases the tab. It is safe to call more than once.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.state == PageClosed {
		p.mu.Unlock()
		return nil
	}
	p.state = PageClosed
	p.mu.Unlock()
	return p.driver.Close()
}

// TriggerLazyLoad scrolls the page and waits for deferred images to load.
// It is best-effort: failures are logged and never returned.
func (app *Crawler) TriggerLazyLoad(ctx context.Context, page *Page) {
	if err := page.transition([]PageState{PageLoaded, PageLazyLoadTriggered}, PageLazyLoadTriggered); err != nil {
		app.Logger.Debug("Skipping lazy load on %s: %v", page.Url(), err)
		return
	}
	if err := page.driver.ScrollBy(app.engine.LazyLoadOffset); err != nil {
		app.Logger.Debug("Scroll failed on %s: %v", page.Url(), err)
	}

	timer := time.NewTimer(app.engine.LazyLoadDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Evaluate runs a pure extraction function against the page's rendered DOM.
func Evaluate[T any](page *Page, fn func(*goquery.Document) T) (result T, err error) {
	doc, err := page.Document()
	if err != nil {
		return result, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked on %s: %v", page.Url(), r)
		}
	}()
	return fn(doc), nil
}
