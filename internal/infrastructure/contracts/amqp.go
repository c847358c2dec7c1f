package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	OwnerID string `json:"ownerId"`
	Data    []byte `json:"data"`
}

// Routing keys - using consistent event/command patterns
const (
	EventChatCreated = "chat.created"
	EventMessageSent = "message.sent"
)

// Topics consumed from sibling services. Matches carries the pair of users
// that should become a new chat; likes is bound but not acted on here.
const (
	TopicMatches = "matches"
	TopicLikes   = "likes"
)
