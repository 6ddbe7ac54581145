// Package report — mongo.go
//
// MongoArchive keeps run summaries queryable across builds: which
// scenarios flake, how long runs take, when a contract first broke.
// Writes are synchronous but happen once per run, after the suite is done.
package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoArchive stores RunSummary documents in a MongoDB collection.
type MongoArchive struct {
	col    *mongo.Collection
	client *mongo.Client
}

// NewMongoArchive connects to uri and uses db's "runs" collection.
// The caller must eventually call Close().
func NewMongoArchive(uri, db string) (*MongoArchive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("report/mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("report/mongo: ping: %w", err)
	}

	col := client.Database(db).Collection("runs")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})

	return &MongoArchive{col: col, client: client}, nil
}

// Store inserts one run summary.
func (a *MongoArchive) Store(sum RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := a.col.InsertOne(ctx, sum); err != nil {
		return fmt.Errorf("report/mongo: insert run %s: %w", sum.RunID, err)
	}
	return nil
}

// Latest returns the most recent run summaries, newest first.
func (a *MongoArchive) Latest(limit int) ([]RunSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cur, err := a.col.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("report/mongo: find: %w", err)
	}
	defer cur.Close(ctx)

	var out []RunSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("report/mongo: decode: %w", err)
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (a *MongoArchive) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.client.Disconnect(ctx)
}
