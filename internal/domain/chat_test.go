package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChat_Normalizes_Participant_Order(t *testing.T) {
	req := require.New(t)

	// When the pair arrives in reverse lexicographic order
	chat, err := NewChat("bob", "alice")
	req.NoError(err)

	// Then the stored pair is normalized
	req.Equal("alice", chat.User1ID)
	req.Equal("bob", chat.User2ID)
	req.NotEmpty(chat.ID)
	req.False(chat.CreatedAt.IsZero())
}

func TestNewChat_Same_Pair_Either_Order_Yields_Same_Key(t *testing.T) {
	req := require.New(t)

	chat1, err := NewChat("alice", "bob")
	req.NoError(err)

	chat2, err := NewChat("bob", "alice")
	req.NoError(err)

	// Both orderings map to one unordered pair
	req.Equal(chat1.User1ID, chat2.User1ID)
	req.Equal(chat1.User2ID, chat2.User2ID)
}

func TestNewChat_Rejects_Same_Participant(t *testing.T) {
	req := require.New(t)

	_, err := NewChat("alice", "alice")
	req.ErrorIs(err, ErrSameParticipant)
}

func TestNewChat_Rejects_Empty_Participant(t *testing.T) {
	req := require.New(t)

	_, err := NewChat("", "bob")
	req.ErrorIs(err, ErrSameParticipant)

	_, err = NewChat("alice", "")
	req.ErrorIs(err, ErrSameParticipant)
}

func TestChat_HasParticipant(t *testing.T) {
	req := require.New(t)

	chat, err := NewChat("alice", "bob")
	req.NoError(err)

	req.True(chat.HasParticipant("alice"))
	req.True(chat.HasParticipant("bob"))
	req.False(chat.HasParticipant("carol"))
	req.False(chat.HasParticipant(""))
}

func TestChat_Participants(t *testing.T) {
	req := require.New(t)

	chat, err := NewChat("bob", "alice")
	req.NoError(err)

	req.Equal([2]string{"alice", "bob"}, chat.Participants())
}
