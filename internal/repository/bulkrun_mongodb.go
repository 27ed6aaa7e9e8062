package repository

import (
	"context"
	"time"

	"catalog-rest-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBBulkRunRepository implements BulkRunRepository for MongoDB.
// Bulk insert runs are append-only audit records, a document store fits them
// better than the relational catalog tables.
type MongoDBBulkRunRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBBulkRunRepository creates a new MongoDB bulk run repository.
func NewMongoDBBulkRunRepository(uri, dbName, collectionName string) (*MongoDBBulkRunRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	collection := client.Database(dbName).Collection(collectionName)

	return &MongoDBBulkRunRepository{
		client:     client,
		collection: collection,
	}, nil
}

// InsertBulkRun inserts a new bulk run audit record.
func (r *MongoDBBulkRunRepository) InsertBulkRun(ctx context.Context, run *model.BulkRunLog) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, run)
	return err
}

// GetBulkRuns retrieves bulk run records with pagination, newest first.
func (r *MongoDBBulkRunRepository) GetBulkRuns(ctx context.Context, limit, offset int) ([]model.BulkRunLog, int64, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "started_at", Value: -1}})
	findOptions.SetLimit(int64(limit))
	findOptions.SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var runs []model.BulkRunLog
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, 0, err
	}

	// Ensure not nil slice for JSON
	if runs == nil {
		runs = []model.BulkRunLog{}
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	return runs, count, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBBulkRunRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ensure MongoDBBulkRunRepository implements BulkRunRepository
var _ BulkRunRepository = (*MongoDBBulkRunRepository)(nil)
