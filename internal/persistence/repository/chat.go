package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	db *mongo.Database
}

func NewChatRepository(db *mongo.Database) domain.ChatRepository {
	return &chatRepository{
		db: db,
	}
}

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	collection := r.db.Collection(db.ChatsCollection)

	_, err := collection.InsertOne(ctx, chat)
	if err != nil {
		// The unique index on the normalized pair turns (A,B)/(B,A) retries
		// into a duplicate key error.
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrChatAlreadyExists
		}
		return fmt.Errorf("%w: insert chat: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	collection := r.db.Collection(db.ChatsCollection)

	var chat domain.Chat
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("%w: find chat: %v", domain.ErrStoreUnavailable, err)
	}

	return &chat, nil
}

func (r *chatRepository) GetForUser(ctx context.Context, userID string, filter domain.PageFilter) ([]domain.Chat, error) {
	collection := r.db.Collection(db.ChatsCollection)

	query := bson.M{
		"$or": bson.A{
			bson.M{"user1_id": userID},
			bson.M{"user2_id": userID},
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(filter.Limit)

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find chats: %v", domain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var chats []domain.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("%w: decode chats: %v", domain.ErrStoreUnavailable, err)
	}

	return chats, nil
}
