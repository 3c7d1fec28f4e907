package storecrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

type snapshotRow struct {
	Site      string    `bigquery:"site"`
	URL       string    `bigquery:"url"`
	Message   string    `bigquery:"message"`
	HTMLData  string    `bigquery:"html_data"`
	CreatedAt time.Time `bigquery:"created_at"`
}

// bigquerySnapshotter streams failing pages into a partitioned table.
type bigquerySnapshotter struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
	site     string
}

func (app *Crawler) newBigQuerySnapshotter(ctx context.Context) (*bigquerySnapshotter, error) {
	dataset := app.Config.GetString("BIGQUERY_DATASET")
	table := app.Config.GetString("BIGQUERY_TABLE")
	if dataset == "" || table == "" {
		return nil, fmt.Errorf("BIGQUERY_DATASET and BIGQUERY_TABLE must be set")
	}

	projectID, err := app.projectID()
	if err != nil {
		return nil, err
	}

	client, err := bigquery.NewClient(ctx, projectID, app.googleClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	return &bigquerySnapshotter{
		client:   client,
		inserter: client.Dataset(dataset).Table(table).Inserter(),
		site:     app.Name,
	}, nil
}

func (s *bigquerySnapshotter) Save(ctx context.Context, html, url, msg string) error {
	rows := []*snapshotRow{
		{
			Site:      s.site,
			URL:       url,
			Message:   msg,
			HTMLData:  html,
			CreatedAt: time.Now(),
		},
	}
	if err := s.inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert snapshot for %s: %w", url, err)
	}
	return nil
}

func (s *bigquerySnapshotter) Close() error {
	return s.client.Close()
}
