package storecrawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoStore is the MongoDB-backed Store.
type mongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	logger  *defaultLogger
	indexed sync.Map
}

func newMongoStore(ctx context.Context, uri, database string, logger *defaultLogger) (*mongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &mongoStore{client: client, db: client.Database(database), logger: logger}, nil
}

// getCollection returns a collection and ensures keyField is uniquely indexed.
func (s *mongoStore) getCollection(ctx context.Context, collectionName, keyField string) *mongo.Collection {
	collection := s.db.Collection(collectionName)
	if _, done := s.indexed.LoadOrStore(collectionName+"."+keyField, true); !done {
		s.ensureUniqueIndex(ctx, collection, keyField)
	}
	return collection
}

func (s *mongoStore) ensureUniqueIndex(ctx context.Context, collection *mongo.Collection, keyField string) {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: keyField, Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		s.logger.Error("Could not create index on %s.%s: %v", collection.Name(), keyField, err)
	}
}

// UpsertOne sets every field of doc on the document matching keyField, inserting it when absent.
func (s *mongoStore) UpsertOne(ctx context.Context, collectionName, keyField, keyValue string, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.D{{Key: keyField, Value: keyValue}}
	update := bson.D{
		{Key: "$set", Value: doc},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: time.Now()}}},
	}

	_, err := s.getCollection(ctx, collectionName, keyField).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("[%s: => %s] could not upsert: %w", collectionName, keyValue, err)
	}
	return nil
}

// Find decodes every document matching filter into results, a pointer to a slice.
func (s *mongoStore) Find(ctx context.Context, collectionName string, filter map[string]interface{}, results interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := bson.M{}
	for field, value := range filter {
		query[field] = value
	}

	cursor, err := s.db.Collection(collectionName).Find(ctx, query)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

func (s *mongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
