package chats

import (
	"time"

	"github.com/walklabs/chat-service/internal/domain"
)

// createChatRequest represents the request to create a chat directly
type createChatRequest struct {
	User1ID string `json:"user1Id" example:"550e8400-e29b-41d4-a716-446655440000"` // First participant
	User2ID string `json:"user2Id" example:"550e8400-e29b-41d4-a716-446655440001"` // Second participant
}

// chatResponse represents a two-party chat room
type chatResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440002"` // Unique chat identifier
	User1ID   string    `json:"user1Id"`                                           // First participant (normalized order)
	User2ID   string    `json:"user2Id"`                                           // Second participant (normalized order)
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`          // Chat creation timestamp
}

// messageResponse represents a persisted chat message
type messageResponse struct {
	ID        string    `json:"id"`        // Unique message identifier
	ChatID    string    `json:"chatId"`    // Chat the message belongs to
	SenderID  string    `json:"senderId"`  // User who sent the message
	Content   string    `json:"content"`   // Message content
	CreatedAt time.Time `json:"createdAt"` // Server-assigned timestamp
}

func toChatResponse(chat *domain.Chat) chatResponse {
	return chatResponse{
		ID:        chat.ID,
		User1ID:   chat.User1ID,
		User2ID:   chat.User2ID,
		CreatedAt: chat.CreatedAt,
	}
}

func toChatResponses(chats []domain.Chat) []chatResponse {
	out := make([]chatResponse, 0, len(chats))
	for i := range chats {
		out = append(out, toChatResponse(&chats[i]))
	}
	return out
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:        m.ID,
			ChatID:    m.ChatID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
