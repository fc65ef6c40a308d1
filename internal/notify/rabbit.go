package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mtlprog/finagent/internal/domain"
)

// DefaultLedgerQueue is the queue used when none is configured.
const DefaultLedgerQueue = "finagent.ledger"

// RabbitConfig describes the ledger event connection.
type RabbitConfig struct {
	URL   string
	Queue string
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitLedger publishes committed ledger receipts to a durable queue.
type RabbitLedger struct {
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
}

// NewRabbitLedger dials RabbitMQ and declares the queue.
func NewRabbitLedger(cfg RabbitConfig) (*RabbitLedger, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultLedgerQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &RabbitLedger{conn: conn, ch: ch, queue: queue}, nil
}

// PublishReceipt publishes receipt as a persistent JSON message.
func (l *RabbitLedger) PublishReceipt(ctx context.Context, receipt domain.Receipt) error {
	if l == nil || l.ch == nil {
		return errors.New("rabbitmq ledger is not initialised")
	}

	body, err := json.Marshal(NewReceiptMessage(receipt))
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	err = l.ch.PublishWithContext(ctx, "", l.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    receipt.TransactionID,
		Type:         string(receipt.Kind),
		Timestamp:    receipt.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish receipt %s: %w", receipt.TransactionID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (l *RabbitLedger) Close() error {
	if l == nil {
		return nil
	}
	if l.ch != nil {
		_ = l.ch.Close()
	}
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
