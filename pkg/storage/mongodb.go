package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func MongoDBClient(ctx context.Context, address string, port int) (*mongo.Client, error) {
	uri := fmt.Sprintf("mongodb://%s:%d/?directConnection=true", address, port)
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %s", err.Error())
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb cannot be reached after connecting: %s", err.Error())
	}
	return client, nil
}

type kvDocument struct {
	Key     string `bson:"_id"`
	Value   []byte `bson:"value"`
	Updated int64  `bson:"updated"`
}

// MongoKV stores one document per key in the gathering.kv collection.
type MongoKV struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoKV(ctx context.Context, address string, port int) (*MongoKV, error) {
	client, err := MongoDBClient(ctx, address, port)
	if err != nil {
		return nil, err
	}
	return &MongoKV{
		client:     client,
		collection: client.Database("gathering").Collection("kv"),
	}, nil
}

func (m *MongoKV) Get(ctx context.Context, key string) ([]byte, error) {
	var doc kvDocument
	filter := bson.D{{Key: "_id", Value: key}}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading key %s from mongodb: %w", key, err)
	}
	return doc.Value, nil
}

func (m *MongoKV) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDocument{Key: key, Value: value, Updated: time.Now().UnixMilli()}
	filter := bson.D{{Key: "_id", Value: key}}
	_, err := m.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error writing key %s to mongodb: %w", key, err)
	}
	return nil
}

func (m *MongoKV) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
