package storecrawler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSnapshotter struct {
	urls []string
}

func (s *recordingSnapshotter) Save(_ context.Context, html, url, msg string) error {
	s.urls = append(s.urls, url)
	return nil
}

func (s *recordingSnapshotter) Close() error { return nil }

func TestDebugOnlyInLocalEnv(t *testing.T) {
	config := testConfig(t)
	var buf bytes.Buffer
	l := newLoggerWithWriter(config, &buf)

	l.Debug("visible %d", 1)
	config.Add("APP_ENV", "production")
	l.Debug("hidden %d", 2)
	l.Warn("warned")

	out := buf.String()
	assert.Contains(t, out, "DEBUG: visible 1")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: warned")
}

func TestHtmlSnapshotsFailingPage(t *testing.T) {
	var buf bytes.Buffer
	l := newLoggerWithWriter(testConfig(t), &buf)
	snapshots := &recordingSnapshotter{}
	l.setSnapshotter(snapshots)

	l.Html("<html></html>", "https://cellphones.com.vn/x.html", "extract failed")
	assert.Contains(t, buf.String(), "ERROR: extract failed")
	assert.Equal(t, []string{"https://cellphones.com.vn/x.html"}, snapshots.urls)
}

func TestFileSnapshotter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "html")
	s := &fileSnapshotter{directory: dir}

	require.NoError(t, s.Save(context.Background(), "<p>broken</p>", "https://cellphones.com.vn/x.html", "boom"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Page Url: https://cellphones.com.vn/x.html")
	assert.Contains(t, string(content), "boom\n<p>broken</p>")
}

func TestSnapshotDriverSelection(t *testing.T) {
	app := newCrawlerWithConfig(testConfig(t), "test", "https://cellphones.com.vn/")

	s, err := app.newSnapshotter(context.Background())
	require.NoError(t, err)
	assert.IsType(t, noopSnapshotter{}, s)

	app.Config.Add("SNAPSHOT_DRIVER", "file")
	s, err = app.newSnapshotter(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &fileSnapshotter{}, s)

	app.Config.Add("SNAPSHOT_DRIVER", "bucket")
	_, err = app.newSnapshotter(context.Background())
	assert.Error(t, err)

	app.Config.Add("SNAPSHOT_DRIVER", "ftp")
	_, err = app.newSnapshotter(context.Background())
	assert.Error(t, err)
}
