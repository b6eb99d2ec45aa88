package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookchunk/internal/config"
	"bookchunk/internal/models"
)

// MongoStore persists chunk records to a MongoDB collection, keyed by
// source URL and chunk index so reruns overwrite instead of piling up.
type MongoStore struct {
	client *mongo.Client
	chunks *mongo.Collection
}

func NewMongoStore(cfg config.MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client: client,
		chunks: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.createIndexes(); err != nil {
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "metadata.source_url", Value: 1},
			{Key: "metadata.chunk_index", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err := s.chunks.Indexes().CreateOne(ctx, model)
	return err
}

// SaveChunks upserts every chunk and stamps the ingest time.
func (s *MongoStore) SaveChunks(chunks []models.Chunk) error {
	now := time.Now().Unix()
	for _, chunk := range chunks {
		if err := s.saveChunk(chunk, now); err != nil {
			return fmt.Errorf("save chunk %s#%d: %w",
				chunk.Metadata.SourceURL, chunk.Metadata.ChunkIndex, err)
		}
	}
	return nil
}

func (s *MongoStore) saveChunk(chunk models.Chunk, ingestedAt int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"metadata.source_url":  chunk.Metadata.SourceURL,
		"metadata.chunk_index": chunk.Metadata.ChunkIndex,
	}
	update := bson.M{
		"$set": bson.M{
			"page_content": chunk.PageContent,
			"metadata":     chunk.Metadata,
			"ingested_at":  ingestedAt,
		},
	}
	_, err := s.chunks.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
