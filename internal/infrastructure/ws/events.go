package ws

const (
	MessageReceived = "chat.message"
	ChatCreated     = "chat.created"

	ErrorEvent = "error"
)
