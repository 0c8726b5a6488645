package persistence

import (
	"context"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// HistoryRepositoryMongo stores publish history as documents. Selected with
// history.backend = "mongo".
type HistoryRepositoryMongo struct {
	client   *mongo.Client
	database string
}

func NewHistoryRepositoryMongo(client *mongo.Client, database string) repository.IHistory {
	if database == "" {
		database = "social_publisher"
	}
	return &HistoryRepositoryMongo{client: client, database: database}
}

func (r *HistoryRepositoryMongo) collection() *mongo.Collection {
	return r.client.Database(r.database).Collection("post_history")
}

func (r *HistoryRepositoryMongo) Append(ctx context.Context, entry *model.PostHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection().InsertOne(ctx, entry)
	return err
}

func (r *HistoryRepositoryMongo) List(ctx context.Context, userID string, limit int) ([]*model.PostHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection().Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}()

	var list []*model.PostHistory
	for cursor.Next(ctx) {
		entry := &model.PostHistory{}
		if err := cursor.Decode(entry); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding history entry")
			continue
		}
		list = append(list, entry)
	}
	return list, cursor.Err()
}
