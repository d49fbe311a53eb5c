package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/relayworks/jobrelay/config"
	"github.com/relayworks/jobrelay/internal/queue"
)

// QueueConnection bundles the broker connection with the publisher built on
// it. Close tears both down; the publisher does not own the connection.
type QueueConnection struct {
	Conn      *amqp.Connection
	Publisher *queue.Publisher
}

// ConnectQueue dials the broker and declares the durable job queue.
func ConnectQueue(cfg config.QueueConfig, logger *slog.Logger) (*QueueConnection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp broker: %w", err)
	}

	publisher, err := queue.NewPublisher(queue.PublisherOptions{
		Conn:      conn,
		QueueName: cfg.Name,
		Logger:    logger,
	})
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close amqp connection: %w", closeErr))
		}
		return nil, fmt.Errorf("create queue publisher: %w", err)
	}

	if logger != nil {
		logger.Info("queue connected", "queue", cfg.Name)
	}

	return &QueueConnection{Conn: conn, Publisher: publisher}, nil
}

// Close releases the publisher channel and the broker connection.
func (q *QueueConnection) Close() error {
	if q == nil {
		return nil
	}

	var errs []error
	if q.Publisher != nil {
		if err := q.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if q.Conn != nil && !q.Conn.IsClosed() {
		if err := q.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
