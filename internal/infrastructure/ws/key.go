package ws

// Scope tags a RoutingKey with its addressing space. User-scoped keys carry
// "my chats" notifications, chat-scoped keys carry message delivery inside a
// room. The tag keeps the two spaces apart in a single registry even when a
// user ID and a chat ID happen to collide.
type Scope uint8

const (
	UserScope Scope = iota + 1
	ChatScope
)

func (s Scope) String() string {
	switch s {
	case UserScope:
		return "user"
	case ChatScope:
		return "chat"
	default:
		return "unknown"
	}
}

// RoutingKey addresses the set of channels interested in one identity.
// Construct via UserKey or ChatKey; the zero value matches nothing.
type RoutingKey struct {
	scope Scope
	id    string
}

func UserKey(userID string) RoutingKey {
	return RoutingKey{scope: UserScope, id: userID}
}

func ChatKey(chatID string) RoutingKey {
	return RoutingKey{scope: ChatScope, id: chatID}
}

func (k RoutingKey) Scope() Scope { return k.scope }

func (k RoutingKey) ID() string { return k.id }

func (k RoutingKey) String() string {
	return k.scope.String() + ":" + k.id
}
