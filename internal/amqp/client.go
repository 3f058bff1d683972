package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"rupeetrack/internal/core"
	applog "rupeetrack/internal/log"
)

// ErrNotConnected is returned when publishing without an open channel.
var ErrNotConnected = errors.New("amqp client not connected")

// dialBackOff is the retry policy for connecting to the broker.
var dialBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

// channel is the part of *amqp091.Channel the client publishes through.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	IsClosed() bool
	Close() error
}

// Client publishes transaction events to a durable direct exchange.
type Client struct {
	mu           sync.Mutex
	url          string
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string

	closed       bool
	reconnecting bool
	stop         context.CancelFunc
}

// NewClient connects to the broker, retrying with exponential backoff, and declares the
// exchange, queue and binding.
func NewClient(ctx context.Context, url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	conn, ch, err := client.dial(ctx)
	if err != nil {
		return nil, err
	}
	client.conn = conn
	client.channel = ch
	return client, nil
}

// dial opens a connection and a channel with the exchange and queue declared. It does not
// touch the client state, so callers may run it without holding mu.
func (c *Client) dial(ctx context.Context) (*amqp091.Connection, *amqp091.Channel, error) {
	var (
		conn    *amqp091.Connection
		ch      *amqp091.Channel
		attempt int
	)
	operation := func() error {
		attempt++
		var err error
		conn, err = amqp091.Dial(c.url)
		if err != nil {
			applog.FromContext(ctx).WithComponent(applog.ComponentAMQP).WarnContext(ctx, "AMQP dial failed", "attempt", attempt, "error", err)
			return fmt.Errorf("dial AMQP: %w", err)
		}

		ch, err = conn.Channel()
		if err != nil {
			conn.Close()
			return fmt.Errorf("open channel: %w", err)
		}

		if err := setup(ch, c.exchangeName, c.queueName); err != nil {
			ch.Close()
			conn.Close()
			return backoff.Permanent(fmt.Errorf("setup exchange and queue: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(dialBackOff(), ctx)); err != nil {
		return nil, nil, err
	}
	return conn, ch, nil
}

// reconnectLocked starts a background reconnect unless one is already running. It logs
// through logger rather than the caller's context, which ends with the request.
// c.mu must be held.
func (c *Client) reconnectLocked(logger *applog.Logger) {
	if c.reconnecting || c.closed {
		return
	}
	c.reconnecting = true
	ctx, cancel := context.WithCancel(applog.NewContext(context.Background(), logger))
	c.stop = cancel

	go func() {
		defer cancel()
		conn, ch, err := c.dial(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.reconnecting = false
		c.stop = nil

		if err != nil {
			if ctx.Err() == nil {
				logger.WithComponent(applog.ComponentAMQP).WarnContext(ctx, "AMQP reconnect failed", "error", err)
			}
			return
		}
		if c.closed {
			ch.Close()
			conn.Close()
			return
		}
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = conn
		c.channel = ch
		logger.WithComponent(applog.ComponentAMQP).InfoContext(ctx, "AMQP connection re-established")
	}()
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name for the direct exchange
	if err := channel.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionRecorded publishes a persistent TransactionRecordedMessage for tx.
// A closed channel returns ErrNotConnected at once and starts a reconnect in the
// background, so a broker outage never holds up the caller.
func (c *Client) PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewTransactionRecordedMessage(tx)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return ErrNotConnected
	}
	if c.channel.IsClosed() {
		c.reconnectLocked(applog.FromContext(ctx))
		return ErrNotConnected
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		pubCtx,
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
		if isConnectionError(err) {
			c.reconnectLocked(applog.FromContext(ctx))
		}
		return fmt.Errorf("publish message: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentAMQP).InfoContext(ctx, "Published transaction recorded message",
		"transaction_id", msg.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// isConnectionError reports whether err looks like a broken broker connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.stop != nil {
		c.stop()
	}
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		if err != nil && !isConnectionError(err) {
			return err
		}
	}
	return nil
}
