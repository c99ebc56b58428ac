package broker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

type HandlerFunc func(ctx context.Context, msg kafka.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg kafka.Message) error {
	return f(ctx, msg)
}

// 再試行しても結果が変わらない失敗。コミットして読み飛ばす。
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// 再試行の間隔。失敗のたびに倍にして retryMaxDelay で止める。
const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader    messageReader
	handler   Handler
	logger    *slog.Logger
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewConsumer は groupID で topics を購読する。
func NewConsumer(brokers []string, groupID string, topics []string, handler Handler, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return newConsumer(reader, handler, logger)
}

func newConsumer(reader messageReader, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader:    reader,
		handler:   handler,
		logger:    logger,
		baseDelay: retryBaseDelay,
		maxDelay:  retryMaxDelay,
	}
}

// Run は ctx が終わるまで読み続ける。
// 成功か Permanent な失敗のときだけコミットし、それ以外は成功するまで再試行する。
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		//未コミットのまま抜ければ次の起動で再配送される
		if err := c.handle(ctx, msg); err != nil {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// handle が nil 以外を返すのは ctx が終わったときだけ
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	delay := c.baseDelay
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			c.logger.ErrorContext(ctx, "event dropped",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			return nil
		}

		c.logger.WarnContext(ctx, "event handling failed, retrying",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset,
			"attempt", attempt, "retry_in", delay, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
