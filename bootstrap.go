package storecrawler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

func (app *Crawler) bootstrap(ctx context.Context) error {
	if app.engine.CheckRobotsTxt != nil && *app.engine.CheckRobotsTxt {
		return app.checkRobotsTxt(ctx)
	}
	return nil
}

func (app *Crawler) checkRobotsTxt(ctx context.Context) error {
	app.Logger.Info("Checking robots.txt")
	robotsData, isUserAgentAllowed := app.fetchRobotsTxt(ctx)
	if !isUserAgentAllowed {
		app.Logger.Error("Crawling is disallowed by robots.txt")
		return ErrRobotsDisallowed
	}
	app.robotsData = robotsData
	return nil
}

// fetchRobotsTxt defaults to allow when robots.txt is missing or unreadable.
func (app *Crawler) fetchRobotsTxt(ctx context.Context) (*robotstxt.RobotsData, bool) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.BaseUrl+"/robots.txt", nil)
	if err != nil {
		return nil, true
	}
	req.Header.Set("User-Agent", app.engine.UserAgent)

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		app.Logger.Warn("Could not fetch robots.txt: %v", err)
		return nil, true
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		app.Logger.Warn("Could not fetch robots.txt: %s", response.Status)
		return nil, true
	}

	robotsData, err := robotstxt.FromResponse(response)
	if err != nil {
		app.Logger.Warn("Error parsing robots.txt: %v", err)
		return nil, true
	}

	group := robotsData.FindGroup(app.engine.UserAgent)
	return robotsData, group.Test("/")
}

// shouldCrawl reports whether robots rules allow fullURL. No rules means yes.
func shouldCrawl(fullURL string, robotsData *robotstxt.RobotsData, userAgent string) bool {
	if robotsData == nil {
		return true
	}
	group := robotsData.FindGroup(userAgent)

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return false
	}
	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}
