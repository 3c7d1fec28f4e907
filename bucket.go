package storecrawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
)

// bucketSnapshotter uploads failing pages to a Cloud Storage bucket.
type bucketSnapshotter struct {
	client *storage.Client
	bucket string
	prefix string
	logger *defaultLogger
}

func (app *Crawler) newBucketSnapshotter(ctx context.Context) (*bucketSnapshotter, error) {
	bucketName := app.Config.EnvString("SNAPSHOT_BUCKET")
	if bucketName == "" {
		return nil, fmt.Errorf("SNAPSHOT_BUCKET environment variable is not set")
	}

	client, err := storage.NewClient(ctx, app.googleClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucketSnapshotter{
		client: client,
		bucket: bucketName,
		prefix: fmt.Sprintf("snapshots/%s", app.Name),
		logger: app.Logger,
	}, nil
}

func (s *bucketSnapshotter) Save(ctx context.Context, html, url, msg string) error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	content := []byte(snapshotDocument(html, url, msg))
	destinationFileName := s.prefix + "/" + generateFilename(url)

	writer := s.client.Bucket(s.bucket).Object(destinationFileName).NewWriter(ctx)
	writer.ContentType = detectContentType(content)

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to copy snapshot to bucket %s: %w", s.bucket, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", destinationFileName, err)
	}

	s.logger.Debug("Snapshot %s uploaded to bucket. Time taken: %s", destinationFileName, time.Since(startTime))
	return nil
}

func (s *bucketSnapshotter) Close() error {
	return s.client.Close()
}

func detectContentType(content []byte) string {
	return mimetype.Detect(content).String()
}
