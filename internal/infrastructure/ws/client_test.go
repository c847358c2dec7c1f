package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Send_After_Close_Fails(t *testing.T) {
	req := require.New(t)
	client := newTestClient(ChatKey("chat-1"))

	client.Close()

	err := client.Send(NewErrorFrame("chat-1", "", "late"))
	req.ErrorIs(err, ErrChannelClosed)
}

func TestClient_Send_Full_Buffer_Drops_Frame(t *testing.T) {
	req := require.New(t)
	client := newTestClient(ChatKey("chat-1"))

	for i := 0; i < sendBufferSize; i++ {
		req.NoError(client.Send(NewErrorFrame("chat-1", "", "filler")))
	}

	// The buffer never blocks the sender; the overflow frame is dropped
	err := client.Send(NewErrorFrame("chat-1", "", "overflow"))
	req.ErrorIs(err, ErrChannelFull)
}

func TestClient_Close_Is_Idempotent(t *testing.T) {
	client := newTestClient(ChatKey("chat-1"))

	// Must not panic on a double close
	client.Close()
	client.Close()
}

func TestClient_Replay_Buffers_Live_Frames(t *testing.T) {
	req := require.New(t)
	client := newTestClient(ChatKey("chat-1"))

	client.BeginReplay()

	// Live frames during a replay are parked, not delivered
	req.NoError(client.Send(NewErrorFrame("chat-1", "", "live")))
	req.Empty(drainFrames(client))

	client.EndReplay()

	req.Len(drainFrames(client), 1)
}

func TestRoutingKey_Scope_And_ID(t *testing.T) {
	req := require.New(t)

	userKey := UserKey("alice")
	req.Equal(UserScope, userKey.Scope())
	req.Equal("alice", userKey.ID())

	chatKey := ChatKey("chat-1")
	req.Equal(ChatScope, chatKey.Scope())
	req.Equal("chat-1", chatKey.ID())

	// Equal values compare equal, so keys work as map keys
	req.Equal(UserKey("alice"), UserKey("alice"))
	req.NotEqual(UserKey("alice"), ChatKey("alice"))
}
