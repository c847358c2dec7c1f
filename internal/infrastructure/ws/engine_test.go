package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/profanity"
)

type fakeMessageRepository struct {
	created   []*domain.Message
	createErr error

	history []domain.Message
	findErr error

	// onFind runs inside GetByChatID, letting a test race a live delivery
	// against an in-progress history read.
	onFind func()
}

func (r *fakeMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, message)
	return nil
}

func (r *fakeMessageRepository) GetByChatID(ctx context.Context, chatID string, filter domain.PageFilter) ([]domain.Message, error) {
	if r.onFind != nil {
		r.onFind()
	}
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.history, nil
}

type fakePublisher struct {
	published []*domain.Message
	err       error
}

func (p *fakePublisher) PublishMessageSent(ctx context.Context, message *domain.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, message)
	return nil
}

func TestEngine_DeliverMessage_Persists_Then_Broadcasts(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	publisher := &fakePublisher{}
	engine := NewEngine(registry, repo, publisher, nil, nil)

	client1 := newTestClient(ChatKey("chat-1"))
	client2 := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client1)
	registry.Register(ChatKey("chat-1"), client2)

	before := time.Now().UTC()

	// When a message is delivered
	message, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "hello")
	req.NoError(err)

	// Then it was persisted with a server-assigned timestamp
	req.Len(repo.created, 1)
	req.Equal("hello", repo.created[0].Content)
	req.False(message.CreatedAt.Before(before))

	// And every subscriber received exactly one frame carrying it
	for _, client := range []*Client{client1, client2} {
		frames := drainFrames(client)
		req.Len(frames, 1)
		req.Equal(MessageReceived, frames[0].Type)
		payload := frames[0].Data.(MessagePayload)
		req.Equal(message.ID, payload.ID)
		req.Equal("chat-1", payload.ChatID)
		req.Equal("hello", payload.Content)
	}

	// And the event went back onto the bus
	req.Len(publisher.published, 1)
}

func TestEngine_DeliverMessage_Store_Failure_Skips_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{createErr: domain.ErrStoreUnavailable}
	engine := NewEngine(registry, repo, nil, nil, nil)

	client := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client)

	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "hello")
	req.ErrorIs(err, domain.ErrStoreUnavailable)

	// No subscriber ever sees a message the store rejected
	req.Empty(drainFrames(client))
}

func TestEngine_DeliverMessage_Rejects_Invalid_Content(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	engine := NewEngine(registry, repo, nil, nil, nil)

	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "")
	req.Error(err)
	req.Empty(repo.created)
}

func TestEngine_DeliverMessage_Rejects_Banned_Content(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	engine := NewEngine(registry, repo, nil, profanity.NewProfanityFilter(), nil)

	client := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client)

	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "this is shit")
	req.ErrorIs(err, domain.ErrBannedContent)

	// Rejected before persistence, so nobody ever sees it
	req.Empty(repo.created)
	req.Empty(drainFrames(client))
}

func TestEngine_DeliverMessage_Does_Not_Reach_Other_Chats(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	engine := NewEngine(registry, repo, nil, nil, nil)

	subscriber := newTestClient(ChatKey("chat-1"))
	bystander := newTestClient(ChatKey("chat-2"))
	registry.Register(ChatKey("chat-1"), subscriber)
	registry.Register(ChatKey("chat-2"), bystander)

	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "hello")
	req.NoError(err)

	req.Len(drainFrames(subscriber), 1)
	req.Empty(drainFrames(bystander))
}

func TestEngine_DeliverMessage_Failing_Channel_Does_Not_Block_Others(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	engine := NewEngine(registry, repo, nil, nil, nil)

	full := newTestClient(ChatKey("chat-1"))
	healthy := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), full)
	registry.Register(ChatKey("chat-1"), healthy)

	// Given one subscriber whose buffer is already saturated
	for i := 0; i < sendBufferSize; i++ {
		req.NoError(full.Send(NewErrorFrame("chat-1", "", "filler")))
	}

	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "hello")
	req.NoError(err)

	// The healthy subscriber still received the message
	frames := drainFrames(healthy)
	req.Len(frames, 1)
	req.Equal(MessageReceived, frames[0].Type)
}

func TestEngine_DeliverMessage_Publish_Failure_Is_Not_Fatal(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{}
	publisher := &fakePublisher{err: domain.ErrStoreUnavailable}
	engine := NewEngine(registry, repo, publisher, nil, nil)

	client := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client)

	// Bus trouble never fails the client-facing delivery
	_, err := engine.DeliverMessage(context.Background(), "chat-1", "alice", "hello")
	req.NoError(err)
	req.Len(drainFrames(client), 1)
}

func TestEngine_NotifyNewChat_Reaches_Both_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	engine := NewEngine(registry, &fakeMessageRepository{}, nil, nil, nil)

	alice := newTestClient(UserKey("alice"))
	bob := newTestClient(UserKey("bob"))
	carol := newTestClient(UserKey("carol"))
	registry.Register(UserKey("alice"), alice)
	registry.Register(UserKey("bob"), bob)
	registry.Register(UserKey("carol"), carol)

	chat, err := domain.NewChat("alice", "bob")
	req.NoError(err)

	req.NoError(engine.NotifyNewChat(context.Background(), chat))

	for _, client := range []*Client{alice, bob} {
		frames := drainFrames(client)
		req.Len(frames, 1)
		req.Equal(ChatCreated, frames[0].Type)
		payload := frames[0].Data.(ChatPayload)
		req.Equal(chat.ID, payload.ID)
	}

	// Non-participants hear nothing
	req.Empty(drainFrames(carol))
}

func TestEngine_NotifyNewChat_Offline_Participant_Is_Fine(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	engine := NewEngine(registry, &fakeMessageRepository{}, nil, nil, nil)

	alice := newTestClient(UserKey("alice"))
	registry.Register(UserKey("alice"), alice)

	chat, err := domain.NewChat("alice", "bob")
	req.NoError(err)

	// bob has no live channel; the notification still succeeds for alice
	req.NoError(engine.NotifyNewChat(context.Background(), chat))
	req.Len(drainFrames(alice), 1)
}

func TestEngine_ReplayHistory_Writes_Existing_Messages(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	m1, err := domain.NewMessage("chat-1", "alice", "first")
	req.NoError(err)
	m2, err := domain.NewMessage("chat-1", "bob", "second")
	req.NoError(err)

	repo := &fakeMessageRepository{history: []domain.Message{*m2, *m1}}
	engine := NewEngine(registry, repo, nil, nil, nil)

	client := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client)

	req.NoError(engine.ReplayHistory(context.Background(), "chat-1", client, domain.NewPageFilter(0, 0)))

	frames := drainFrames(client)
	req.Len(frames, 2)
	req.Equal(m2.ID, frames[0].Data.(MessagePayload).ID)
	req.Equal(m1.ID, frames[1].Data.(MessagePayload).ID)
}

func TestEngine_ReplayHistory_Store_Failure_Is_Reported(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	repo := &fakeMessageRepository{findErr: domain.ErrStoreUnavailable}
	engine := NewEngine(registry, repo, nil, nil, nil)

	client := newTestClient(ChatKey("chat-1"))

	err := engine.ReplayHistory(context.Background(), "chat-1", client, domain.NewPageFilter(0, 0))
	req.ErrorIs(err, domain.ErrStoreUnavailable)
}

func TestEngine_Concurrent_Delivery_During_Replay_Is_Gapless(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	old, err := domain.NewMessage("chat-1", "alice", "old")
	req.NoError(err)
	live, err := domain.NewMessage("chat-1", "bob", "fresh")
	req.NoError(err)

	client := newTestClient(ChatKey("chat-1"))
	registry.Register(ChatKey("chat-1"), client)

	// Given live frames that race in while the history read is running: one
	// is part of the history being read, one is genuinely new.
	repo := &fakeMessageRepository{history: []domain.Message{*old}}
	repo.onFind = func() {
		req.NoError(client.Send(NewMessageFrame(old)))
		req.NoError(client.Send(NewMessageFrame(live)))
	}
	engine := NewEngine(registry, repo, nil, nil, nil)

	req.NoError(engine.ReplayHistory(context.Background(), "chat-1", client, domain.NewPageFilter(0, 0)))

	// Then history came first, the duplicate was dropped and the fresh
	// frame was flushed after the replay
	frames := drainFrames(client)
	req.Len(frames, 2)
	req.Equal(old.ID, frames[0].Data.(MessagePayload).ID)
	req.Equal(live.ID, frames[1].Data.(MessagePayload).ID)
}
