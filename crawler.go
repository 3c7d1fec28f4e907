package storecrawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CrawlCategories loads the site root, extracts the category menu and upserts
// every category by slug. Only launch and root navigation failures are
// returned; a category that fails to persist is logged and still returned.
func (app *Crawler) CrawlCategories(ctx context.Context) ([]Category, *CrawlReport, error) {
	if app.repository == nil {
		return nil, nil, ErrNotStarted
	}
	report := &CrawlReport{Source: app.Url, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	session, err := app.OpenSession(ctx)
	if err != nil {
		app.Logger.Error("Failed to launch browser: %v", err)
		return nil, report, err
	}
	defer session.Close()

	app.Logger.Info("Crawling categories from %s", app.Url)
	page, err := session.Navigate(ctx, app.Url, app.engine.RootTimeout)
	if err != nil {
		app.Logger.Error("Failed to load %s: %v", app.Url, err)
		return nil, report, err
	}
	defer page.Close()

	categories, err := Evaluate(page, func(doc *goquery.Document) []Category {
		return ExtractCategoryLinks(doc, app.BaseUrl, app.selectors)
	})
	if err != nil {
		app.Logger.Html(page.Html(), app.Url, fmt.Sprintf("Failed to extract categories: %v", err))
		return nil, report, err
	}
	report.Found = len(categories)
	report.Visited = 1

	for i := range categories {
		if err := ctx.Err(); err != nil {
			return categories, report, err
		}
		if err := app.repository.UpsertCategory(ctx, &categories[i]); err != nil {
			app.Logger.Error("Failed to save category %s: %v", categories[i].Url, err)
			report.fail(categories[i].Url, stagePersist, err)
		}
	}

	app.Logger.Info("Found %d categories", len(categories))
	return categories, report, nil
}

// CrawlProducts visits the first limit product links of the listing page at
// categoryUrl and persists each product as soon as it is extracted. A product
// that fails to load, extract or persist is recorded on the report and
// skipped, so only saved products are returned.
func (app *Crawler) CrawlProducts(ctx context.Context, categoryUrl string, limit int) ([]Product, *CrawlReport, error) {
	if app.repository == nil {
		return nil, nil, ErrNotStarted
	}
	if categoryUrl == "" {
		categoryUrl = app.Config.EnvString("SCRAPER_TARGET_URL", app.Url)
	}
	if limit <= 0 {
		limit = app.engine.CrawlLimit
	}
	report := &CrawlReport{Source: categoryUrl, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	session, err := app.OpenSession(ctx)
	if err != nil {
		app.Logger.Error("Failed to launch browser: %v", err)
		return nil, report, err
	}
	defer session.Close()

	app.Logger.Info("Crawling products from %s (limit %d)", categoryUrl, limit)
	listing, err := session.Navigate(ctx, categoryUrl, app.engine.RootTimeout)
	if err != nil {
		app.Logger.Error("Failed to load %s: %v", categoryUrl, err)
		return nil, report, err
	}

	baseUrl := getBaseUrl(categoryUrl)
	links, err := Evaluate(listing, func(doc *goquery.Document) []string {
		return ExtractProductLinks(doc, baseUrl, app.selectors)
	})
	listing.Close()
	if err != nil {
		return nil, report, err
	}
	report.Found = len(links)
	if len(links) > limit {
		links = links[:limit]
	}

	category := categoryFromUrl(categoryUrl)
	products := []Product{}
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			app.Logger.Warn("Crawl aborted after %d of %d products: %v", i, len(links), err)
			return products, report, err
		}
		if !shouldCrawl(link, app.robotsData, app.engine.UserAgent) {
			app.Logger.Warn("Skipping %s: disallowed by robots.txt", link)
			report.fail(link, stageRobots, ErrRobotsDisallowed)
			continue
		}

		app.Logger.Info("[%d/%d] Crawling %s", i+1, len(links), link)
		product, stage, err := app.crawlProduct(ctx, session, link)
		report.Visited++
		if err != nil {
			report.fail(link, stage, err)
			continue
		}
		product.Category = category

		if err := app.repository.UpsertProduct(ctx, &product); err != nil {
			app.Logger.Error("Failed to save product %s: %v", link, err)
			report.fail(link, stagePersist, err)
			continue
		}
		products = append(products, product)
	}

	app.Logger.Info("Crawled %d of %d products (%d failures)", len(products), len(links), len(report.Failures))
	return products, report, nil
}

// crawlProduct loads one detail page on a fresh tab and extracts it. The
// returned stage names the step that failed.
func (app *Crawler) crawlProduct(ctx context.Context, session *Session, link string) (Product, string, error) {
	page, err := session.Navigate(ctx, link, app.engine.DetailTimeout)
	if err != nil {
		if errors.Is(err, ErrNavigationTimeout) {
			app.Logger.Warn("Timed out loading %s", link)
		} else {
			app.Logger.Error("Failed to load %s: %v", link, err)
		}
		return Product{}, stageNavigate, err
	}
	defer page.Close()

	app.TriggerLazyLoad(ctx, page)

	currentUrl := page.Url()
	product, err := Evaluate(page, func(doc *goquery.Document) Product {
		return ExtractProductDetail(doc, currentUrl, app.selectors)
	})
	if err != nil {
		app.Logger.Html(page.Html(), link, fmt.Sprintf("Failed to extract %s: %v", link, err))
		return Product{}, stageExtract, err
	}
	return product, "", nil
}
