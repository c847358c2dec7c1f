package ws

import (
	"time"

	"github.com/walklabs/chat-service/internal/domain"
)

type Frame struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId,omitempty"`
	Data   any    `json:"data"`

	// ref carries the message identifier for replay de-duplication; it is
	// never serialized.
	ref string
}

// Payload structs
type MessagePayload struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type ChatPayload struct {
	ID        string `json:"id"`
	User1ID   string `json:"user1Id"`
	User2ID   string `json:"user2Id"`
	CreatedAt string `json:"createdAt"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewMessageFrame(m *domain.Message) *Frame {
	return &Frame{
		Type:   MessageReceived,
		ChatID: m.ChatID,
		Data: MessagePayload{
			ID:        m.ID,
			ChatID:    m.ChatID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			Timestamp: m.CreatedAt.Format(time.RFC3339Nano),
		},
		ref: m.ID,
	}
}

func NewChatFrame(c *domain.Chat) *Frame {
	return &Frame{
		Type:   ChatCreated,
		ChatID: c.ID,
		Data: ChatPayload{
			ID:        c.ID,
			User1ID:   c.User1ID,
			User2ID:   c.User2ID,
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}

func NewErrorFrame(chatID, code, message string) *Frame {
	return &Frame{
		Type:   ErrorEvent,
		ChatID: chatID,
		Data: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
