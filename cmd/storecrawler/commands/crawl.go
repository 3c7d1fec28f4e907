package commands

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/lazuli-inc/storecrawler"
	"github.com/spf13/cobra"
)

var (
	productsUrl     *string
	productsLimit   *int
	productsTimeout *time.Duration
)

func init() {
	productsUrl = productsCmd.Flags().String("url", "", "Listing page to crawl. Defaults to SCRAPER_TARGET_URL.")
	productsLimit = productsCmd.Flags().Int("limit", 5, "Maximum number of products to visit.")
	productsTimeout = productsCmd.Flags().Duration("timeout", 0, "Abort the whole crawl after this long. Zero means no deadline.")
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(productsCmd)
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Crawls the category menu of the site root and upserts every category.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startCrawler(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Stop(context.Background())

		categories, report, err := app.CrawlCategories(cmd.Context())
		if err != nil {
			return err
		}
		printSummary(app, report)
		return printJSON(categories)
	},
}

var productsCmd = &cobra.Command{
	Use:   "products [--url <listing url>] [--limit <n>] [--timeout <duration>]",
	Short: "Crawls the first products of a listing page and upserts them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if *productsTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, *productsTimeout)
			defer cancel()
		}

		app, err := startCrawler(ctx)
		if err != nil {
			return err
		}
		defer app.Stop(context.Background())

		products, report, err := app.CrawlProducts(ctx, *productsUrl, *productsLimit)
		if report != nil {
			printSummary(app, report)
		}
		if err != nil {
			if len(products) == 0 {
				return err
			}
			app.Logger.Warn("Crawl ended early: %v", err)
		}
		return printJSON(products)
	},
}

func printSummary(app *storecrawler.Crawler, report *storecrawler.CrawlReport) {
	app.Logger.Info("Source: %s, found: %d, visited: %d, failed: %d, took: %v",
		report.Source, report.Found, report.Visited, len(report.Failures), report.FinishedAt.Sub(report.StartedAt))
	for _, failure := range report.Failures {
		app.Logger.Warn("[%s] %s: %s", failure.Stage, failure.Url, failure.Error)
	}
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
