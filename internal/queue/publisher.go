// Package queue publishes work notifications to a durable RabbitMQ queue.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/domain/model"
)

// PublisherOptions groups dependencies for Publisher.
type PublisherOptions struct {
	Conn      *amqp.Connection // Required: established broker connection
	QueueName string           // Required: durable queue to publish to
	Logger    *slog.Logger     // Optional: structured logger
}

// Publisher publishes job notifications on the default exchange, routed by
// queue name, with persistent delivery. Once Publish returns nil the message
// survives a broker restart. The publisher performs no retry of its own;
// failures surface to the caller.
type Publisher struct {
	conn      *amqp.Connection
	queueName string
	logger    *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

var _ core.QueuePublisher = (*Publisher)(nil)

// NewPublisher opens a channel and declares the durable queue.
func NewPublisher(opts PublisherOptions) (*Publisher, error) {
	if opts.Conn == nil {
		return nil, errors.New("broker connection is required")
	}
	if opts.QueueName == "" {
		return nil, errors.New("queue name is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "queue_publisher")
	}

	p := &Publisher{
		conn:      opts.Conn,
		queueName: opts.QueueName,
		logger:    logger,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannelLocked(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("queue declared", "queue", opts.QueueName)
	}
	return p, nil
}

// ensureChannelLocked opens (or reopens) the channel and declares the queue.
// Callers must hold p.mu.
func (p *Publisher) ensureChannelLocked() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	// Durable queue + persistent delivery mode is what makes the handoff
	// survive a broker restart.
	if _, err = ch.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		closeErr := ch.Close()
		return errors.Join(fmt.Errorf("declare queue %s: %w", p.queueName, err), closeErr)
	}

	p.ch = ch
	return nil
}

// Publish hands the message to the durable queue. The context bounds the
// publish; a stalled broker cannot hold the request handler past its deadline.
func (p *Publisher) Publish(ctx context.Context, msg model.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.ensureChannelLocked(); err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.RequestID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		// Drop the channel so the next publish reopens it; a closed channel
		// never recovers on its own.
		p.ch = nil
		return fmt.Errorf("publish to %s: %w", p.queueName, err)
	}

	if p.logger != nil {
		p.logger.DebugContext(ctx, "published job notification",
			"queue", p.queueName,
			"request_id", msg.RequestID,
		)
	}
	return nil
}

// Close releases the channel. The broker connection is owned by the caller.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
