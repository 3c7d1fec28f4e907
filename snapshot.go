package storecrawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// snapshotter keeps the HTML of pages that failed, for later diagnosis.
type snapshotter interface {
	Save(ctx context.Context, html, url, msg string) error
	Close() error
}

type noopSnapshotter struct{}

func (noopSnapshotter) Save(context.Context, string, string, string) error { return nil }
func (noopSnapshotter) Close() error                                      { return nil }

// fileSnapshotter writes one file per failing url under storage/logs/<site>/html.
type fileSnapshotter struct {
	directory string
}

func (s *fileSnapshotter) Save(_ context.Context, html, url, msg string) error {
	err := os.MkdirAll(s.directory, 0755)
	if err != nil {
		return err
	}
	filePath := filepath.Join(s.directory, generateFilename(url))
	return os.WriteFile(filePath, []byte(snapshotDocument(html, url, msg)), 0644)
}

func (s *fileSnapshotter) Close() error { return nil }

func snapshotDocument(html, url, msg string) string {
	if html == "" {
		html = "No Page Content Found"
	}
	html = strings.TrimSpace(msg) + "\n" + html
	return fmt.Sprintf("<!-- Time: %v \n Page Url: %s -->\n%s", time.Now(), url, html)
}

func (app *Crawler) newSnapshotter(ctx context.Context) (snapshotter, error) {
	switch driver := app.Config.EnvString("SNAPSHOT_DRIVER", "file"); driver {
	case "none":
		return noopSnapshotter{}, nil
	case "file":
		directory := filepath.Join(app.Config.EnvString("LOG_DIR", filepath.Join("storage", "logs")), app.Name, "html")
		return &fileSnapshotter{directory: directory}, nil
	case "bucket":
		return app.newBucketSnapshotter(ctx)
	case "bigquery":
		return app.newBigQuerySnapshotter(ctx)
	default:
		return nil, fmt.Errorf("unsupported snapshot driver: %s", driver)
	}
}
