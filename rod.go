package storecrawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

type rodBrowser struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	userAgent string
	idle      time.Duration
}

type rodPage struct {
	page *rod.Page
	idle time.Duration
}

// launchRod starts a local Chromium through the rod launcher and connects to it.
func (app *Crawler) launchRod(ctx context.Context) (*rodBrowser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(*app.engine.Headless).
		NoSandbox(*app.engine.NoSandbox).
		Set(flags.Flag("disable-setuid-sandbox"))

	if app.engine.ExecutablePath != "" {
		l = l.Bin(app.engine.ExecutablePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &LaunchError{Adapter: RodEngine, Err: err}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, &LaunchError{Adapter: RodEngine, Err: err}
	}

	return &rodBrowser{
		launcher:  l,
		browser:   browser,
		userAgent: app.engine.UserAgent,
		idle:      app.engine.NetworkIdle,
	}, nil
}

func (b *rodBrowser) NewPage() (pageDriver, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: b.userAgent,
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("error setting user agent: %s", err.Error())
	}

	return &rodPage{page: page, idle: b.idle}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// Goto navigates and waits for the request queue to stay idle for p.idle.
func (p *rodPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	e := proto.NetworkResponseReceived{}
	waitResponse := page.WaitEvent(&e)
	waitIdle := page.WaitRequestIdle(p.idle, nil, nil, nil)

	if err := page.Navigate(url); err != nil {
		return &NavigationError{Url: url, Timeout: isTimeout(err), Err: err}
	}
	waitResponse()
	waitIdle()

	if err := page.WaitLoad(); err != nil {
		return &NavigationError{Url: url, Timeout: isTimeout(err), Err: err}
	}
	if e.Response != nil && !Ok(e.Response.Status) {
		return &NavigationError{Url: url, Status: e.Response.Status, Err: errors.New(e.Response.StatusText)}
	}
	return nil
}

func (p *rodPage) Content() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) ScrollBy(offset int) error {
	_, err := p.page.Eval(`(y) => window.scrollBy(0, y)`, offset)
	return err
}

func (p *rodPage) Url() string {
	info, err := p.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func Ok(status int) bool {
	return status == 0 || (status >= 200 && status <= 299)
}
