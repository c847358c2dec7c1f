package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChatNotFound        = errors.New("chat not found")
	ErrChatAlreadyExists   = errors.New("chat already exists for this pair")
	ErrChatAccessForbidden = errors.New("user is not a participant of this chat")
	ErrSameParticipant     = errors.New("a chat needs two distinct participants")

	// ErrStoreUnavailable wraps transient persistence failures so callers can
	// tell them apart from domain conditions like not-found or conflict.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Chat is a two-party room. The participant pair is stored in normalized
// (lexicographic) order so the unordered pair (A,B) == (B,A) maps to a single
// unique key in the store.
type Chat struct {
	ID        string    `bson:"_id" json:"id"`
	User1ID   string    `bson:"user1_id" json:"user1Id"`
	User2ID   string    `bson:"user2_id" json:"user2Id"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	GetByID(ctx context.Context, id string) (*Chat, error)
	GetForUser(ctx context.Context, userID string, filter PageFilter) ([]Chat, error)
}

func NewChat(userA, userB string) (*Chat, error) {
	if userA == "" || userB == "" {
		return nil, ErrSameParticipant
	}
	if userA == userB {
		return nil, ErrSameParticipant
	}

	if userB < userA {
		userA, userB = userB, userA
	}

	return &Chat{
		ID:        uuid.NewString(),
		User1ID:   userA,
		User2ID:   userB,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (c *Chat) HasParticipant(userID string) bool {
	return userID != "" && (c.User1ID == userID || c.User2ID == userID)
}

func (c *Chat) Participants() [2]string {
	return [2]string{c.User1ID, c.User2ID}
}
