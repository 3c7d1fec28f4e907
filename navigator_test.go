package storecrawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	mu     sync.Mutex
	pages  []*fakePage
	closes int
	gotoFn func(ctx context.Context, url string, timeout time.Duration) error
}

type fakePage struct {
	browser *fakeBrowser
	mu      sync.Mutex
	url     string
	scrolls []int
	closes  int
	html    string
}

func (b *fakeBrowser) NewPage() (pageDriver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := &fakePage{browser: b, html: `<html><body><h1>Hello</h1></body></html>`}
	b.pages = append(b.pages, page)
	return page, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	b.closes++
	b.mu.Unlock()
	return nil
}

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if p.browser.gotoFn != nil {
		if err := p.browser.gotoFn(ctx, url, timeout); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Content() (string, error) { return p.html, nil }

func (p *fakePage) ScrollBy(offset int) error {
	p.mu.Lock()
	p.scrolls = append(p.scrolls, offset)
	p.mu.Unlock()
	return nil
}

func (p *fakePage) Url() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func newFakeSession(t *testing.T, ctx context.Context, browser *fakeBrowser) (*Crawler, *Session) {
	t.Helper()
	app := newCrawlerWithConfig(testConfig(t), "test", "https://cellphones.com.vn", Engine{LazyLoadDelay: time.Millisecond})
	app.launcher = func(context.Context) (browserDriver, error) { return browser, nil }
	session, err := app.OpenSession(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return app, session
}

func TestPageStateMachine(t *testing.T) {
	ctx := context.Background()
	app, session := newFakeSession(t, ctx, &fakeBrowser{})

	page, err := session.NewPage()
	require.NoError(t, err)
	assert.Equal(t, PageCreated, page.State())

	require.NoError(t, page.Goto(ctx, "https://cellphones.com.vn/mobile.html", time.Second))
	assert.Equal(t, PageLoaded, page.State())
	assert.Equal(t, "https://cellphones.com.vn/mobile.html", page.Url())

	app.TriggerLazyLoad(ctx, page)
	assert.Equal(t, PageLazyLoadTriggered, page.State())

	title, err := Evaluate(page, func(doc *goquery.Document) string { return doc.Find("h1").Text() })
	require.NoError(t, err)
	assert.Equal(t, "Hello", title)

	require.NoError(t, page.Close())
	assert.Equal(t, PageClosed, page.State())

	assert.ErrorIs(t, page.Goto(ctx, "https://cellphones.com.vn/", time.Second), ErrPageClosed)
	_, err = Evaluate(page, func(doc *goquery.Document) string { return "" })
	assert.ErrorIs(t, err, ErrPageClosed)
	assert.Equal(t, PageClosed, page.State())
}

func TestPageCloseIsIdempotent(t *testing.T) {
	browser := &fakeBrowser{}
	_, session := newFakeSession(t, context.Background(), browser)

	page, err := session.NewPage()
	require.NoError(t, err)
	require.NoError(t, page.Close())
	require.NoError(t, page.Close())
	assert.Equal(t, 1, browser.pages[0].closes)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
	assert.Equal(t, 1, browser.closes)
	assert.Equal(t, 1, browser.pages[0].closes)
	assert.True(t, session.Closed())

	_, err = session.NewPage()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestLazyLoadOnClosedPageIsNoop(t *testing.T) {
	browser := &fakeBrowser{}
	app, session := newFakeSession(t, context.Background(), browser)

	page, err := session.NewPage()
	require.NoError(t, err)
	require.NoError(t, page.Close())

	assert.NotPanics(t, func() { app.TriggerLazyLoad(context.Background(), page) })
	assert.Empty(t, browser.pages[0].scrolls)
	assert.Equal(t, PageClosed, page.State())
}

func TestLazyLoadScrollsByOffset(t *testing.T) {
	browser := &fakeBrowser{}
	app, session := newFakeSession(t, context.Background(), browser)

	page, err := session.Navigate(context.Background(), "https://cellphones.com.vn/a.html", time.Second)
	require.NoError(t, err)
	app.TriggerLazyLoad(context.Background(), page)
	assert.Equal(t, []int{500}, browser.pages[0].scrolls)
}

func TestNavigateTimeoutClosesPage(t *testing.T) {
	browser := &fakeBrowser{gotoFn: func(ctx context.Context, url string, timeout time.Duration) error {
		return context.DeadlineExceeded
	}}
	_, session := newFakeSession(t, context.Background(), browser)

	page, err := session.Navigate(context.Background(), "https://cellphones.com.vn/slow.html", 10*time.Millisecond)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, ErrNavigationTimeout)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "https://cellphones.com.vn/slow.html", navErr.Url)
	assert.Equal(t, 1, browser.pages[0].closes)
}

func TestNavigateErrorIsNotTimeout(t *testing.T) {
	browser := &fakeBrowser{gotoFn: func(ctx context.Context, url string, timeout time.Duration) error {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}}
	_, session := newFakeSession(t, context.Background(), browser)

	_, err := session.Navigate(context.Background(), "https://nowhere.invalid/", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNavigationTimeout)
}

func TestSessionTornDownWhenContextDone(t *testing.T) {
	browser := &fakeBrowser{}
	ctx, cancel := context.WithCancel(context.Background())
	_, session := newFakeSession(t, ctx, browser)

	cancel()
	assert.Eventually(t, func() bool {
		browser.mu.Lock()
		defer browser.mu.Unlock()
		return browser.closes == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, session.Closed())
}

func TestEvaluateRecoversPanics(t *testing.T) {
	_, session := newFakeSession(t, context.Background(), &fakeBrowser{})
	page, err := session.Navigate(context.Background(), "https://cellphones.com.vn/a.html", time.Second)
	require.NoError(t, err)

	_, err = Evaluate(page, func(doc *goquery.Document) int { panic("malformed") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
