package ws

import (
	"context"

	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/logging"
	"github.com/walklabs/chat-service/internal/infrastructure/profanity"
)

// EventPublisher pushes domain events back onto the bus for sibling
// services. Publish failures never fail the client-facing call.
type EventPublisher interface {
	PublishMessageSent(ctx context.Context, message *domain.Message) error
}

// Engine bridges the registry to the store: it persists first and fans out
// only what the store accepted, so a client never sees a message that a later
// history read would not return.
type Engine struct {
	registry  *Registry
	messages  domain.MessageRepository
	publisher EventPublisher
	filter    *profanity.ProfanityFilter
	logger    logging.Logger
}

func NewEngine(
	registry *Registry,
	messages domain.MessageRepository,
	publisher EventPublisher,
	filter *profanity.ProfanityFilter,
	logger logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Engine{
		registry:  registry,
		messages:  messages,
		publisher: publisher,
		filter:    filter,
		logger:    logger,
	}
}

// DeliverMessage persists the message and then writes it to every channel
// currently subscribed to the chat, in registry order. A store failure aborts
// before any broadcast; a write failure on one channel never stops delivery
// to the rest.
func (e *Engine) DeliverMessage(ctx context.Context, chatID, senderID, content string) (*domain.Message, error) {
	message, err := domain.NewMessage(chatID, senderID, content)
	if err != nil {
		return nil, err
	}

	if e.filter != nil && e.filter.ContainsProfanity(content) {
		return nil, domain.ErrBannedContent
	}

	if err := e.messages.Create(ctx, message); err != nil {
		e.logger.Error(logging.WebSocket, logging.Fanout, "message persistence failed", map[logging.ExtraKey]any{
			logging.ChatID:       chatID,
			logging.UserID:       senderID,
			logging.ErrorMessage: err.Error(),
		})
		return nil, err
	}

	frame := NewMessageFrame(message)
	for _, client := range e.registry.Subscribers(ChatKey(chatID)) {
		if err := client.Send(frame); err != nil {
			// The failing channel cleans itself up on its own disconnect path.
			e.logger.Warn(logging.WebSocket, logging.Fanout, "skipping unwritable channel", map[logging.ExtraKey]any{
				logging.ChatID:       chatID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	if e.publisher != nil {
		if err := e.publisher.PublishMessageSent(ctx, message); err != nil {
			e.logger.Warn(logging.RabbitMQ, logging.Publish, "message.sent publish failed", map[logging.ExtraKey]any{
				logging.ChatID:       chatID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	return message, nil
}

// NotifyNewChat writes the chat to every channel subscribed under either
// participant's user key. Offline participants simply miss the live
// notification and pick the chat up on their next list read.
func (e *Engine) NotifyNewChat(ctx context.Context, chat *domain.Chat) error {
	frame := NewChatFrame(chat)

	for _, userID := range chat.Participants() {
		for _, client := range e.registry.Subscribers(UserKey(userID)) {
			if err := client.Send(frame); err != nil {
				e.logger.Warn(logging.WebSocket, logging.Fanout, "skipping unwritable channel", map[logging.ExtraKey]any{
					logging.UserID:       userID,
					logging.ErrorMessage: err.Error(),
				})
			}
		}
	}

	return nil
}

// ReplayHistory writes a page of existing messages (newest-first) to one
// channel before its live delivery begins. The caller must have registered
// the client already: live frames arriving during the replay are buffered on
// the client and flushed afterwards, de-duplicated by message ID.
func (e *Engine) ReplayHistory(ctx context.Context, chatID string, client *Client, filter domain.PageFilter) error {
	client.BeginReplay()
	defer client.EndReplay()

	messages, err := e.messages.GetByChatID(ctx, chatID, filter)
	if err != nil {
		e.logger.Error(logging.WebSocket, logging.Replay, "history read failed", map[logging.ExtraKey]any{
			logging.ChatID:       chatID,
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	for i := range messages {
		if err := client.Replay(NewMessageFrame(&messages[i])); err != nil {
			return err
		}
	}

	return nil
}
