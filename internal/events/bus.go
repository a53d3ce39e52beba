package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/models"
)

// Message is the envelope pushed onto a queue. Upstream domain events arrive
// without an envelope; their eventType sits at the top level and the whole
// body is handed to the handler.
type Message struct {
	EventType   string          `json:"eventType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	PublishedAt time.Time       `json:"publishedAt,omitempty"`
}

func (m Message) body(raw []byte) []byte {
	if len(m.Payload) == 0 {
		return raw
	}
	return m.Payload
}

// Publisher appends events to a Redis list.
type Publisher struct {
	redis redis.Cmdable
	queue string
	now   func() time.Time
}

func NewPublisher(client redis.Cmdable, queue string) *Publisher {
	return &Publisher{redis: client, queue: queue, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	data, err := json.Marshal(Message{EventType: eventType, Payload: body, PublishedAt: p.now().UTC()})
	if err != nil {
		return err
	}
	return p.redis.RPush(ctx, p.queue, string(data)).Err()
}

// Handler processes one event body.
type Handler func(ctx context.Context, body []byte) error

// Consumer pops events from one or more queues and dispatches them by type.
// Bodies whose handler fails are moved to the dead-letter queue when one is set.
type Consumer struct {
	redis       redis.Cmdable
	queues      []string
	deadLetter  string
	handlers    map[string]Handler
	pollTimeout time.Duration
	backoff     time.Duration
}

func NewConsumer(client redis.Cmdable, deadLetter string, queues ...string) *Consumer {
	return &Consumer{
		redis:       client,
		queues:      queues,
		deadLetter:  deadLetter,
		handlers:    make(map[string]Handler),
		pollTimeout: 5 * time.Second,
		backoff:     time.Second,
	}
}

// Handle registers h for eventType, replacing any earlier registration.
func (c *Consumer) Handle(eventType string, h Handler) {
	c.handlers[eventType] = h
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log.Info().Strs("queues", c.queues).Msg("event consumer started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("event consumer stopped")
			return nil
		}

		result, err := c.redis.BLPop(ctx, c.pollTimeout, c.queues...).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("failed to read event queue")
			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
			continue
		}

		// BLPOP answers [queue, value].
		if len(result) != 2 {
			log.Warn().Strs("result", result).Msg("unexpected BLPOP reply")
			continue
		}
		c.Process(ctx, result[0], []byte(result[1]))
	}
}

// Process dispatches a single raw message. Unknown event types are dropped.
func (c *Consumer) Process(ctx context.Context, queue string, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("discarding malformed event")
		c.deadLetterRaw(ctx, raw)
		return
	}

	h, ok := c.handlers[msg.EventType]
	if !ok {
		log.Debug().Str("queue", queue).Str("eventType", msg.EventType).Msg("ignoring event")
		return
	}

	if err := h(ctx, msg.body(raw)); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("eventType", msg.EventType).Msg("event handler failed")
		c.deadLetterRaw(ctx, raw)
	}
}

func (c *Consumer) deadLetterRaw(ctx context.Context, raw []byte) {
	if c.deadLetter == "" {
		return
	}
	if err := c.redis.RPush(ctx, c.deadLetter, string(raw)).Err(); err != nil {
		log.Error().Err(err).Str("queue", c.deadLetter).Msg("failed to dead-letter event")
	}
}

// TransactionForwarder is satisfied by services.ForwardingService.
type TransactionForwarder interface {
	ForwardTransaction(ctx context.Context, event models.TransactionRecordedEvent) error
}

// MergeNotificationHandler is satisfied by services.MergeService.
type MergeNotificationHandler interface {
	HandleMergeNotification(ctx context.Context, n models.MergeNotification) error
}

func ForwardingHandler(f TransactionForwarder) Handler {
	return func(ctx context.Context, body []byte) error {
		var event models.TransactionRecordedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("decode transaction event: %w", err)
		}
		return f.ForwardTransaction(ctx, event)
	}
}

func MergeHandler(m MergeNotificationHandler) Handler {
	return func(ctx context.Context, body []byte) error {
		var n models.MergeNotification
		if err := json.Unmarshal(body, &n); err != nil {
			return fmt.Errorf("decode merge notification: %w", err)
		}
		return m.HandleMergeNotification(ctx, n)
	}
}
