package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/walklabs/chat-service/internal/infrastructure/validate"
)

const maxMessageLength = 5000

var ErrBannedContent = errors.New("message contains banned content")

// Message is immutable once persisted. CreatedAt is assigned by the server at
// construction time, never taken from the client.
type Message struct {
	ID        string    `bson:"_id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chatId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// GetByChatID returns a page of messages ordered newest-first.
	GetByChatID(ctx context.Context, chatID string, filter PageFilter) ([]Message, error)
}

func NewMessage(chatID, senderID, content string) (*Message, error) {
	validateContent := validate.Field("content",
		validate.Required(),
		validate.MaxLength(maxMessageLength),
	)

	if err := validateContent(content); err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}
