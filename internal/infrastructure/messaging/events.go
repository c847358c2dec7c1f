package messaging

import "github.com/walklabs/chat-service/internal/domain"

// MatchEventData is the payload of a record on the matches topic. Field names
// follow the matching service's wire format.
type MatchEventData struct {
	User1ID string `json:"user1_id"`
	User2ID string `json:"user2_id"`
}

type ChatEventData struct {
	Chat domain.Chat `json:"chat"`
}

type MessageEventData struct {
	Message domain.Message `json:"message"`
}
