package events

import (
	"context"
	"encoding/json"

	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/contracts"
	"github.com/walklabs/chat-service/internal/infrastructure/messaging"
)

// ChatPublisher pushes chat domain events onto the bus for sibling services
// (match feeds, notification fan-out, analytics).
type ChatPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewChatPublisher(rabbitmq *messaging.RabbitMQ) *ChatPublisher {
	return &ChatPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *ChatPublisher) PublishChatCreated(ctx context.Context, chat *domain.Chat) error {
	payload := messaging.ChatEventData{
		Chat: *chat,
	}

	chatEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, contracts.EventChatCreated, contracts.AmqpMessage{
		OwnerID: chat.User1ID,
		Data:    chatEventJSON,
	})
}

func (p *ChatPublisher) PublishMessageSent(ctx context.Context, message *domain.Message) error {
	payload := messaging.MessageEventData{
		Message: *message,
	}

	messageEventJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.rabbitmq.PublishMessage(ctx, contracts.EventMessageSent, contracts.AmqpMessage{
		OwnerID: message.SenderID,
		Data:    messageEventJSON,
	})
}
