package repository

import (
	"context"
	"fmt"

	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(db *mongo.Database) domain.MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	collection := r.db.Collection(db.MessagesCollection)

	if _, err := collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("%w: insert message: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *messageRepository) GetByChatID(ctx context.Context, chatID string, filter domain.PageFilter) ([]domain.Message, error) {
	collection := r.db.Collection(db.MessagesCollection)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(filter.Limit)

	cursor, err := collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find messages: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var messages []domain.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %v", domain.ErrStoreUnavailable, err)
	}

	return messages, nil
}
