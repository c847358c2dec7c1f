package repository

import (
	"context"

	"github.com/walklabs/chat-service/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes both repositories rely on. Run once at
// startup.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	chatIndexes := []mongo.IndexModel{
		{
			// Participant pairs are stored in normalized order, so this
			// enforces unordered-pair uniqueness.
			Keys: bson.D{
				{Key: "user1_id", Value: 1},
				{Key: "user2_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user2_id", Value: 1}},
		},
	}

	if _, err := database.Collection(db.ChatsCollection).Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return err
	}

	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chat_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := database.Collection(db.MessagesCollection).Indexes().CreateMany(ctx, messageIndexes)
	return err
}
