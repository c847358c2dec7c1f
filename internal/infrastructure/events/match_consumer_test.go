package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/contracts"
	"github.com/walklabs/chat-service/internal/infrastructure/messaging"
)

type scriptedConsumer struct {
	records chan messaging.Record
	nextErr error

	mu         sync.Mutex
	subscribed []string
	closed     bool
}

func newScriptedConsumer(records ...messaging.Record) *scriptedConsumer {
	ch := make(chan messaging.Record, len(records))
	for _, record := range records {
		ch <- record
	}
	return &scriptedConsumer{records: ch}
}

func (c *scriptedConsumer) Subscribe(topics []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = topics
	return nil
}

func (c *scriptedConsumer) Next(ctx context.Context) (messaging.Record, error) {
	if c.nextErr != nil {
		return messaging.Record{}, c.nextErr
	}

	select {
	case <-ctx.Done():
		return messaging.Record{}, ctx.Err()
	case record := <-c.records:
		return record, nil
	}
}

func (c *scriptedConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConsumer) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeChatRepository struct {
	mu       sync.Mutex
	created  []*domain.Chat
	conflict string // User1ID that triggers a duplicate error
}

func (r *fakeChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflict != "" && chat.User1ID == r.conflict {
		return domain.ErrChatAlreadyExists
	}
	r.created = append(r.created, chat)
	return nil
}

func (r *fakeChatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	return nil, domain.ErrChatNotFound
}

func (r *fakeChatRepository) GetForUser(ctx context.Context, userID string, filter domain.PageFilter) ([]domain.Chat, error) {
	return nil, nil
}

func (r *fakeChatRepository) chats() []*domain.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Chat(nil), r.created...)
}

type recordingNotifier struct {
	notified chan *domain.Chat
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{notified: make(chan *domain.Chat, 16)}
}

func (n *recordingNotifier) NotifyNewChat(ctx context.Context, chat *domain.Chat) error {
	n.notified <- chat
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) *domain.Chat {
	t.Helper()
	select {
	case chat := <-n.notified:
		return chat
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a chat notification")
		return nil
	}
}

func matchRecord(user1, user2 string) messaging.Record {
	body, _ := json.Marshal(messaging.MatchEventData{User1ID: user1, User2ID: user2})
	return messaging.Record{Topic: contracts.TopicMatches, Body: body}
}

func testOptions() MatchConsumerOptions {
	return MatchConsumerOptions{
		Topics:         []string{contracts.TopicMatches, contracts.TopicLikes},
		MaxReconnects:  3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestDecodeMatch_Wraps_Failures(t *testing.T) {
	req := require.New(t)

	_, err := decodeMatch(messaging.Record{Topic: contracts.TopicMatches, Body: []byte("not json")})
	req.ErrorIs(err, ErrDecode)

	_, err = decodeMatch(matchRecord("alice", "alice"))
	req.ErrorIs(err, ErrDecode)

	chat, err := decodeMatch(matchRecord("bob", "alice"))
	req.NoError(err)
	req.Equal("alice", chat.User1ID)
	req.Equal("bob", chat.User2ID)
}

func TestMatchConsumer_Match_Creates_Chat_And_Notifies(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer(matchRecord("bob", "alice"))
	repo := &fakeChatRepository{}
	notifier := newRecordingNotifier()

	dial := func() (BusConsumer, error) { return consumer, nil }
	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	// Then the chat exists with the pair normalized
	chat := notifier.wait(t)
	req.Equal("alice", chat.User1ID)
	req.Equal("bob", chat.User2ID)

	req.Len(repo.chats(), 1)
	req.Equal([]string{contracts.TopicMatches, contracts.TopicLikes}, consumer.subscribed)
}

func TestMatchConsumer_Malformed_Record_Is_Skipped(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer(
		messaging.Record{Topic: contracts.TopicMatches, Body: []byte("not json")},
		matchRecord("alice", "bob"),
	)
	repo := &fakeChatRepository{}
	notifier := newRecordingNotifier()

	dial := func() (BusConsumer, error) { return consumer, nil }
	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	// The bad record did not stall the loop; the good one went through
	notifier.wait(t)
	req.Len(repo.chats(), 1)
}

func TestMatchConsumer_Invalid_Pair_Is_Skipped(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer(
		matchRecord("alice", "alice"),
		matchRecord("alice", "bob"),
	)
	repo := &fakeChatRepository{}
	notifier := newRecordingNotifier()

	dial := func() (BusConsumer, error) { return consumer, nil }
	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	notifier.wait(t)
	req.Len(repo.chats(), 1)
}

func TestMatchConsumer_Duplicate_Match_Does_Not_Notify(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer(
		matchRecord("dup", "zed"),
		matchRecord("alice", "bob"),
	)
	repo := &fakeChatRepository{conflict: "dup"}
	notifier := newRecordingNotifier()

	dial := func() (BusConsumer, error) { return consumer, nil }
	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	// Only the non-duplicate pair produced a notification
	chat := notifier.wait(t)
	req.Equal("alice", chat.User1ID)
	req.Len(repo.chats(), 1)
}

func TestMatchConsumer_Unknown_Topic_Is_Ignored(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer(
		messaging.Record{Topic: contracts.TopicLikes, Body: []byte(`{}`)},
		matchRecord("alice", "bob"),
	)
	repo := &fakeChatRepository{}
	notifier := newRecordingNotifier()

	dial := func() (BusConsumer, error) { return consumer, nil }
	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	notifier.wait(t)
	req.Len(repo.chats(), 1)
}

func TestMatchConsumer_Reconnects_After_Transport_Error(t *testing.T) {
	req := require.New(t)
	broken := newScriptedConsumer()
	broken.nextErr = errors.New("broken pipe")
	replacement := newScriptedConsumer(matchRecord("alice", "bob"))

	repo := &fakeChatRepository{}
	notifier := newRecordingNotifier()

	var mu sync.Mutex
	dials := 0
	dial := func() (BusConsumer, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials == 1 {
			return broken, nil
		}
		return replacement, nil
	}

	mc := NewMatchConsumer(dial, repo, notifier, nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	// The record arrives through the replacement connection
	notifier.wait(t)

	mu.Lock()
	dialed := dials
	mu.Unlock()

	req.Equal(2, dialed)
	req.True(broken.isClosed())
}

func TestMatchConsumer_Start_Fails_When_Dial_Budget_Exhausted(t *testing.T) {
	req := require.New(t)
	dial := func() (BusConsumer, error) { return nil, errors.New("connection refused") }

	mc := NewMatchConsumer(dial, &fakeChatRepository{}, newRecordingNotifier(), nil, testOptions())

	err := mc.Start(context.Background())
	req.Error(err)
	req.Equal(Stopped, mc.State())
	req.False(mc.Healthy())
}

func TestMatchConsumer_Start_Twice_Fails(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer()
	dial := func() (BusConsumer, error) { return consumer, nil }

	mc := NewMatchConsumer(dial, &fakeChatRepository{}, newRecordingNotifier(), nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	defer mc.Stop(context.Background())

	req.Error(mc.Start(context.Background()))
}

func TestMatchConsumer_Stop_Returns_To_Stopped(t *testing.T) {
	req := require.New(t)
	consumer := newScriptedConsumer()
	dial := func() (BusConsumer, error) { return consumer, nil }

	mc := NewMatchConsumer(dial, &fakeChatRepository{}, newRecordingNotifier(), nil, testOptions())

	req.NoError(mc.Start(context.Background()))
	req.True(mc.Healthy())

	req.NoError(mc.Stop(context.Background()))
	req.Equal(Stopped, mc.State())
	req.False(mc.Healthy())

	// Stopping an already stopped consumer is a no-op
	req.NoError(mc.Stop(context.Background()))
}
