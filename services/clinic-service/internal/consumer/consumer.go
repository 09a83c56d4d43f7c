package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// ErrUnprocessable marks a message no amount of retrying can handle, such as
// a body that does not decode. Such messages are logged and committed.
var ErrUnprocessable = errors.New("unprocessable message")

// maxHoldBackoff caps the wait between redelivery rounds of a failing message.
const maxHoldBackoff = 30 * time.Second

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     Reader
	logger     *slog.Logger
	inbox      Inbox
	handler    Handler
	maxRetries int
	backoff    time.Duration
}

type Config struct {
	Brokers    []string
	GroupID    string
	Topic      string
	MaxRetries int
	Backoff    time.Duration
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, logger, inbox, cfg, handler)
}

func newConsumer(reader Reader, logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Consumer{
		reader:     reader,
		logger:     logger,
		inbox:      inbox,
		handler:    handler,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			if !sleep(ctx, c.backoff) {
				return
			}
			continue
		}

		if !c.handle(ctx, msg) {
			return
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("kafka commit failed", "err", err, "offset", msg.Offset)
		}
	}
}

// handle processes msg until it succeeds or turns out unprocessable. Group
// offsets are cumulative per partition, so moving on to the next message
// would acknowledge a failed one. It returns false only when ctx is done.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	for round := 1; ; round++ {
		err := c.process(ctx, msg)
		switch {
		case err == nil:
			return true
		case errors.Is(err, ErrUnprocessable):
			c.logger.Error("dropping unprocessable event", "err", err, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			return true
		case ctx.Err() != nil:
			return false
		}
		wait := c.backoff * time.Duration(round)
		if wait > maxHoldBackoff {
			wait = maxHoldBackoff
		}
		c.logger.Error("event processing failed, holding partition", "err", err, "topic", msg.Topic,
			"partition", msg.Partition, "offset", msg.Offset, "round", round, "retry_in", wait.String())
		if !sleep(ctx, wait) {
			return false
		}
	}
}

// process runs the handler at most once per event id. The inbox entry is
// written only after the handler succeeds.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otelx.Tracer("clinic-service/consumer").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	seen, err := c.inbox.Seen(ctxSpan, meta.EventID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if seen {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return nil
	}

	for attempt := 1; ; attempt++ {
		err = c.handler(ctxSpan, msg)
		if err == nil {
			break
		}
		span.RecordError(err)
		if attempt >= c.maxRetries || errors.Is(err, ErrUnprocessable) {
			span.SetStatus(codes.Error, "handler failed")
			return err
		}
		c.logger.Warn("handler error, retrying", "err", err, "event_id", meta.EventID, "attempt", attempt)
		if !sleep(ctx, c.backoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}

	if _, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
