package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"use_tls"`
}

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation // publisher confirms
	mu   sync.Mutex               // serializes Publish while waiting for a confirm
}

func Dial(cfg Config) (*Client, error) {
	if cfg.Port == 0 {
		cfg.Port = 5672
	}
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	scheme := "amqp"
	if cfg.UseTLS {
		scheme = "amqps"
	}
	url := fmt.Sprintf("%s://%s:%s@%s:%d/%s",
		scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	var (
		conn *amqp.Connection
		err  error
	)
	if cfg.UseTLS {
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Ping is a light connection health check.
func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareTopic declares a durable topic exchange.
func (c *Client) DeclareTopic(name string) error {
	return c.ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Publish publishes a message and waits for the broker's ack/nack.
func (c *Client) Publish(ctx context.Context, exchange, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ch.PublishWithContext(
		ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Transient,
			ContentType:  "application/json",
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe binds a server-named exclusive queue to exchange/key and
// starts consuming. The returned cancel stops the consumer and deletes
// the queue with it.
func (c *Client) Subscribe(exchange, key string) (<-chan amqp.Delivery, func(), error) {
	q, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := c.ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	tag := "teaboard-" + q.Name
	deliveries, err := c.ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to consume: %w", err)
	}
	cancel := func() { _ = c.ch.Cancel(tag, false) }
	return deliveries, cancel, nil
}
