package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/walklabs/chat-service/internal/domain"
	"github.com/walklabs/chat-service/internal/infrastructure/contracts"
	"github.com/walklabs/chat-service/internal/infrastructure/logging"
	"github.com/walklabs/chat-service/internal/infrastructure/messaging"
)

// ErrDecode marks a record whose payload could not be turned into a valid
// match. Such records are skipped, never retried.
var ErrDecode = errors.New("record decode failed")

// BusConsumer is the pull-style view of the bus the pipeline consumes.
// messaging.Consumer implements it; tests script their own.
type BusConsumer interface {
	Subscribe(topics []string) error
	Next(ctx context.Context) (messaging.Record, error)
	Close() error
}

// DialFunc opens a fresh bus consumer. The pipeline calls it on startup and
// again after a transport error.
type DialFunc func() (BusConsumer, error)

// ChatNotifier delivers a freshly created chat to its participants' live
// channels. Implemented by ws.Engine.
type ChatNotifier interface {
	NotifyNewChat(ctx context.Context, chat *domain.Chat) error
}

type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

type MatchConsumerOptions struct {
	Topics         []string
	MaxReconnects  uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// MatchConsumer is the single long-running ingestion loop of the process. It
// pulls one record at a time, dispatches it fully (chat creation plus live
// notification) and only then pulls the next, which gives natural
// backpressure against the bus.
//
// Transport errors trigger a bounded exponential-backoff reconnect; only an
// exhausted retry budget declares the pipeline dead.
type MatchConsumer struct {
	dial     DialFunc
	chats    domain.ChatRepository
	notifier ChatNotifier
	logger   logging.Logger
	opts     MatchConsumerOptions

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMatchConsumer(
	dial DialFunc,
	chats domain.ChatRepository,
	notifier ChatNotifier,
	logger logging.Logger,
	opts MatchConsumerOptions,
) *MatchConsumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if len(opts.Topics) == 0 {
		opts.Topics = []string{contracts.TopicMatches, contracts.TopicLikes}
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = 5
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 30 * time.Second
	}

	return &MatchConsumer{
		dial:     dial,
		chats:    chats,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

func (c *MatchConsumer) State() State {
	return State(c.state.Load())
}

// Healthy reports whether the loop is consuming. Feeds the readiness probe.
func (c *MatchConsumer) Healthy() bool {
	return c.State() == Running
}

// Start connects to the bus, subscribes and launches the consume loop.
func (c *MatchConsumer) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return fmt.Errorf("consumer cannot start from state %s", c.State())
	}

	consumer, err := c.connect(ctx)
	if err != nil {
		c.state.Store(int32(Stopped))
		return fmt.Errorf("consumer failed to connect: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state.Store(int32(Running))

	c.logger.Info(logging.RabbitMQ, logging.Consume, "consumer started", map[logging.ExtraKey]any{
		logging.Topic: fmt.Sprintf("%v", c.opts.Topics),
	})

	go c.run(runCtx, consumer)

	return nil
}

// Stop signals loop exit and waits for the in-flight dispatch to finish. A
// record that was already pulled is never dropped; the loop just declines to
// pull another one.
func (c *MatchConsumer) Stop(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		return nil
	}

	c.cancel()

	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.state.Store(int32(Stopped))
	c.logger.Info(logging.RabbitMQ, logging.Consume, "consumer stopped", nil)

	return nil
}

func (c *MatchConsumer) run(ctx context.Context, consumer BusConsumer) {
	defer close(c.done)
	defer consumer.Close()

	for {
		record, err := consumer.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			c.logger.Warn(logging.RabbitMQ, logging.Consume, "consume failed, reconnecting", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})

			consumer.Close()
			next, err := c.connect(ctx)
			if err != nil {
				if ctx.Err() == nil {
					c.state.Store(int32(Stopped))
					c.logger.Error(logging.RabbitMQ, logging.Consume, "reconnect budget exhausted, consumer is dead", map[logging.ExtraKey]any{
						logging.ErrorMessage: err.Error(),
					})
				}
				return
			}

			consumer = next
			reconnects.Inc()
			continue
		}

		// Dispatch outlives a concurrent Stop: the pulled record is always
		// processed to completion.
		c.dispatch(context.WithoutCancel(ctx), record)
	}
}

func (c *MatchConsumer) connect(ctx context.Context) (BusConsumer, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.opts.InitialBackoff
	expo.MaxInterval = c.opts.MaxBackoff

	operation := func() (BusConsumer, error) {
		consumer, err := c.dial()
		if err != nil {
			return nil, err
		}
		if err := consumer.Subscribe(c.opts.Topics); err != nil {
			consumer.Close()
			return nil, err
		}
		return consumer, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.opts.MaxReconnects),
	)
}

func (c *MatchConsumer) dispatch(ctx context.Context, record messaging.Record) {
	recordsConsumed.WithLabelValues(record.Topic).Inc()

	switch record.Topic {
	case contracts.TopicMatches:
		c.handleMatch(ctx, record)
	default:
		// Unrecognized topics are ignored, not fatal.
		recordsSkipped.WithLabelValues("unknown_topic").Inc()
		c.logger.Debug(logging.RabbitMQ, logging.Consume, "ignoring record on unhandled topic", map[logging.ExtraKey]any{
			logging.Topic: record.Topic,
		})
	}
}

// handleMatch turns one matches record into a chat plus a live notification.
// Every failure here is skip-and-continue: a bad record must never stall the
// loop.
func (c *MatchConsumer) handleMatch(ctx context.Context, record messaging.Record) {
	chat, err := decodeMatch(record)
	if err != nil {
		recordsSkipped.WithLabelValues("decode_error").Inc()
		c.logger.Error(logging.RabbitMQ, logging.Consume, "skipping undecodable match record", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	if err := c.chats.Create(ctx, chat); err != nil {
		if errors.Is(err, domain.ErrChatAlreadyExists) {
			recordsSkipped.WithLabelValues("conflict").Inc()
			c.logger.Info(logging.RabbitMQ, logging.Consume, "chat already exists for matched pair", map[logging.ExtraKey]any{
				logging.UserID: chat.User1ID,
			})
			return
		}

		recordsSkipped.WithLabelValues("store_error").Inc()
		c.logger.Error(logging.RabbitMQ, logging.Consume, "chat creation failed for match", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	if err := c.notifier.NotifyNewChat(ctx, chat); err != nil {
		c.logger.Warn(logging.WebSocket, logging.Fanout, "new chat notification failed", map[logging.ExtraKey]any{
			logging.ChatID:       chat.ID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// decodeMatch maps one matches record onto a fresh chat. Malformed JSON and
// an invalid pair are the same condition to the caller.
func decodeMatch(record messaging.Record) (*domain.Chat, error) {
	var data messaging.MatchEventData
	if err := json.Unmarshal(record.Body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	chat, err := domain.NewChat(data.User1ID, data.User2ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return chat, nil
}
