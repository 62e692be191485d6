package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"interntrack/pkg/metrics"
	"interntrack/pkg/otel"
	"interntrack/pkg/trace"
	"interntrack/pkg/util"
)

type MessageHandler func(ctx context.Context, routingKey string, data json.RawMessage) error

// RetryTracker counts delivery attempts per message id.
type RetryTracker interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger

	dlq        *Publisher
	retries    RetryTracker
	maxRetries int64
	tag        string
}

// NewConsumer creates a consumer for a specific routing key (topic patterns allowed).
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url, ConsumerName)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		ch.Close()
		conn.Close()
	}

	if err := DeclareExchange(ch); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := DeclareDLQExchange(ch); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare dlq exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if _, err := DeclareDLQQueue(ch, queueName); err != nil {
		closeAll()
		return nil, err
	}

	if err := ch.Qos(10, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
		maxRetries: 3,
		tag:        queueName + ".consumer",
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// WithDeadLetter routes messages that cannot be processed to the DLQ exchange
// once retries are exhausted.
func (c *Consumer) WithDeadLetter(dlq *Publisher, retries RetryTracker, maxRetries int64) *Consumer {
	c.dlq = dlq
	c.retries = retries
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// IsConnected reports whether the consumer connection is open.
func (c *Consumer) IsConnected() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// Stop cancels the subscription; StartConsuming returns once in-flight work is done.
func (c *Consumer) Stop() {
	if c.channel != nil {
		_ = c.channel.Cancel(c.tag, false)
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming starts consuming messages. This method blocks and should be called in a goroutine.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.tag,
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	// 保证每条消息都会被 ack 或 nack
	for msg := range deliveries {
		c.process(msg)
	}

	c.logger.Info("Consumer stopped", zap.String("queue", c.queue.Name))
	return nil
}

func (c *Consumer) process(msg amqp091.Delivery) {
	start := time.Now()
	ctx := context.Background()
	if traceID, ok := msg.Headers[trace.HeaderName()].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}
	ctx, span := otel.MQConsumeSpan(ctx, msg.RoutingKey, c.queue.Name, msg.Headers)
	defer span.End()

	log := c.logger.With(
		zap.String("routing_key", msg.RoutingKey),
		zap.String("queue", c.queue.Name),
		zap.String("message_id", msg.MessageId),
	)
	log.Debug("Received message", zap.Int("message_size", len(msg.Body)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panic recovered", zap.Any("panic", r))
			c.reject(ctx, log, msg, fmt.Errorf("panic: %v", r), false)
		}
	}()

	if err := c.handler(ctx, msg.RoutingKey, msg.Body); err != nil {
		span.RecordError(err)
		retryable, kind := util.IsRetryableError(err)
		log.Error("Handler error",
			zap.Error(err),
			zap.Bool("retryable", retryable),
			zap.String("error_type", kind),
		)
		c.reject(ctx, log, msg, err, retryable)
		return
	}

	if c.retries != nil && msg.MessageId != "" {
		_ = c.retries.Reset(ctx, util.FormatRetryKey(c.queue.Name, msg.MessageId))
	}
	if err := msg.Ack(false); err != nil {
		log.Error("Failed to ack message", zap.Error(err))
		return
	}
	metrics.RecordMQConsumeLatency(msg.RoutingKey, c.queue.Name, time.Since(start))
	log.Debug("Message processed successfully")
}

// reject requeues retryable failures until the retry budget is spent, then
// dead-letters the message. Without a DLQ publisher it always requeues.
func (c *Consumer) reject(ctx context.Context, log *zap.Logger, msg amqp091.Delivery, cause error, retryable bool) {
	if c.dlq == nil {
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	if retryable && c.retries != nil && msg.MessageId != "" {
		key := util.FormatRetryKey(c.queue.Name, msg.MessageId)
		count, err := c.retries.IncrementAndGet(ctx, key)
		if err == nil && util.ShouldRetry(count, c.maxRetries, true) {
			log.Warn("Requeueing message", zap.Int64("attempt", count))
			if err := msg.Nack(false, true); err != nil {
				log.Error("Failed to nack message", zap.Error(err))
			}
			return
		}
	}

	if err := c.dlq.PublishToDLQ(ctx, msg.RoutingKey, msg.Body, c.queue.Name, cause.Error()); err != nil {
		log.Error("Failed to publish to DLQ, requeueing", zap.Error(err))
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
		return
	}
	log.Warn("Message moved to DLQ")
	if err := msg.Ack(false); err != nil {
		log.Error("Failed to ack dead-lettered message", zap.Error(err))
	}
}
