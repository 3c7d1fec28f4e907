package storecrawler

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"
)

// datastoreStore keeps records as Datastore entities named by their natural
// key, so Put is an upsert.
type datastoreStore struct {
	client *datastore.Client
}

func (app *Crawler) newDatastoreStore(ctx context.Context) (*datastoreStore, error) {
	projectID, err := app.projectID()
	if err != nil {
		return nil, err
	}

	client, err := datastore.NewClient(ctx, projectID, app.googleClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore client: %w", err)
	}
	return &datastoreStore{client: client}, nil
}

func (s *datastoreStore) UpsertOne(ctx context.Context, collection, keyField, keyValue string, doc interface{}) error {
	key := datastore.NameKey(collection, keyValue, nil)
	if _, err := s.client.Put(ctx, key, doc); err != nil {
		return fmt.Errorf("[%s: => %s] could not upsert: %w", collection, keyValue, err)
	}
	return nil
}

func (s *datastoreStore) Find(ctx context.Context, collection string, filter map[string]interface{}, results interface{}) error {
	query := datastore.NewQuery(collection)
	for field, value := range filter {
		query = query.FilterField(field, "=", value)
	}
	_, err := s.client.GetAll(ctx, query, results)
	return err
}

func (s *datastoreStore) Close(ctx context.Context) error {
	return s.client.Close()
}
