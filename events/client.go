/*
Package events carries ledger change notifications over AMQP.

PURPOSE:
  The API process publishes one message per committed mutation; the worker
  process consumes them and refreshes the Google Sheets mirror.

TOPOLOGY:
  exchange  AMQP_EXCHANGE (direct, durable)
  queue     AMQP_QUEUE (durable), bound with routing key = queue name

DELIVERY:
  Messages are persistent JSON (see message.go). Consumption uses manual
  acknowledgement: malformed messages are dropped, handler failures are
  requeued.

SEE ALSO:
  - ledger/service.go: Notifier interface
  - mirror/worker.go: Consumer side
*/
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/warp/fund-ledger/ledger"
)

const publishTimeout = 5 * time.Second

// Client is an AMQP connection with the ledger exchange and queue declared.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	log          logrus.FieldLogger
}

var _ ledger.Notifier = (*Client)(nil)

// NewClient dials url and declares the topology.
func NewClient(url, exchangeName, queueName string, log logrus.FieldLogger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		log:          log.WithField("component", "events"),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Notify publishes the change.
func (c *Client) Notify(ctx context.Context, change ledger.Change) error {
	msg := NewMessage(change)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.log.WithFields(logrus.Fields{"kind": msg.Kind, "id": msg.ID}).Debug("published ledger change")
	return nil
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, m Message) error

// Consume delivers messages to handle until ctx is cancelled or the
// channel closes.
func (c *Client) Consume(ctx context.Context, handle Handler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.WithField("queue", c.queueName).Info("consuming ledger changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			Dispatch(ctx, delivery, handle, c.log)
		}
	}
}

// Acknowledger is the subset of amqp091.Delivery used by Dispatch.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatch decodes one delivery body, runs handle and acknowledges it.
func Dispatch(ctx context.Context, d amqp091.Delivery, handle Handler, log logrus.FieldLogger) {
	dispatch(ctx, d.Body, d, handle, log)
}

func dispatch(ctx context.Context, body []byte, ack Acknowledger, handle Handler, log logrus.FieldLogger) {
	msg, err := MessageFromJSON(body)
	if err != nil {
		log.WithError(err).Error("dropping malformed ledger message")
		ack.Nack(false, false)
		return
	}

	entry := log.WithFields(logrus.Fields{"kind": msg.Kind, "id": msg.ID})
	if err := handle(ctx, msg); err != nil {
		entry.WithError(err).Error("failed to handle ledger message")
		ack.Nack(false, true)
		return
	}

	ack.Ack(false)
	entry.Debug("handled ledger message")
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
