package storecrawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightBrowser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	userAgent string
}

type playwrightPage struct {
	page playwright.Page
}

// launchPlaywright starts the Playwright driver and a browser of the configured type.
func (app *Crawler) launchPlaywright() (*playwrightBrowser, error) {
	if app.engine.ForceInstallPlaywright {
		app.Logger.Info("Force Installing Playwright!")
		if err := playwright.Install(); err != nil {
			return nil, &LaunchError{Adapter: PlayWrightEngine, Err: err}
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, &LaunchError{Adapter: PlayWrightEngine, Err: err}
	}

	var browserTypeLaunchOptions playwright.BrowserTypeLaunchOptions
	browserTypeLaunchOptions.Headless = playwright.Bool(*app.engine.Headless)
	if len(app.engine.Args) > 0 {
		browserTypeLaunchOptions.Args = app.engine.Args
	}
	if app.engine.ExecutablePath != "" {
		browserTypeLaunchOptions.ExecutablePath = playwright.String(app.engine.ExecutablePath)
	}
	if *app.engine.NoSandbox {
		browserTypeLaunchOptions.ChromiumSandbox = playwright.Bool(false)
	}

	var browser playwright.Browser
	switch app.engine.BrowserType {
	case "chromium":
		browser, err = pw.Chromium.Launch(browserTypeLaunchOptions)
	case "firefox":
		browser, err = pw.Firefox.Launch(browserTypeLaunchOptions)
	case "webkit":
		browser, err = pw.WebKit.Launch(browserTypeLaunchOptions)
	default:
		err = fmt.Errorf("unsupported browser type: %s", app.engine.BrowserType)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, &LaunchError{Adapter: PlayWrightEngine, Err: err}
	}

	return &playwrightBrowser{pw: pw, browser: browser, userAgent: app.engine.UserAgent}, nil
}

func (b *playwrightBrowser) NewPage() (pageDriver, error) {
	page, err := b.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(b.userAgent),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (b *playwrightBrowser) Close() error {
	err := b.browser.Close()
	if stopErr := b.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}

func (p *playwrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &NavigationError{Url: url, Timeout: isTimeout(err), Err: err}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	res, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return &NavigationError{Url: url, Timeout: errors.Is(err, playwright.ErrTimeout), Err: err}
	}
	if res != nil && !res.Ok() {
		return &NavigationError{Url: url, Status: res.Status(), Err: errors.New(res.StatusText())}
	}
	return nil
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) ScrollBy(offset int) error {
	_, err := p.page.Evaluate(`(y) => window.scrollBy(0, y)`, offset)
	return err
}

func (p *playwrightPage) Url() string {
	return p.page.URL()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
