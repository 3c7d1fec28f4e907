package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/lazuli-inc/storecrawler"
	"github.com/spf13/cobra"
)

var (
	siteName *string
	adapter  *string
)

func init() {
	siteName = rootCmd.PersistentFlags().String("site", "cellphones", "Site name, used for log and snapshot paths.")
	adapter = rootCmd.PersistentFlags().String("adapter", "", "Browser adapter: rod, playwright or static. Defaults to BROWSER_ADAPTER.")
}

var rootCmd = &cobra.Command{
	Use:          "storecrawler",
	Short:        "storecrawler crawls a retail storefront into a document store.",
	SilenceUsage: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// startCrawler builds and starts a crawler from the environment. Callers must
// Stop it.
func startCrawler(ctx context.Context) (*storecrawler.Crawler, error) {
	app := storecrawler.NewCrawlerFromEnv(*siteName, storecrawler.Engine{Adapter: *adapter})
	if err := app.Start(ctx); err != nil {
		app.Stop(context.Background())
		return nil, fmt.Errorf("failed to start crawler: %w", err)
	}
	return app, nil
}
