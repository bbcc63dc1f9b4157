package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
	"github.com/verticalstudies/coaching-api/config"
	"go.uber.org/fx"
)

const AttemptSubmitted = "attempt.submitted"

// AttemptSubmittedPayload is published after an attempt is stored and ranked.
type AttemptSubmittedPayload struct {
	AttemptID   string    `json:"attempt_id"`
	TestID      string    `json:"test_id"`
	StudentID   string    `json:"student_id"`
	Score       int       `json:"score"`
	Rank        int       `json:"rank"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close()
}

type envelope struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// ErrNotConnected is returned by Publish while the broker connection is down.
var ErrNotConnected = errors.New("rabbitmq not connected")

var errPublisherClosed = errors.New("publisher closed")

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type amqpConnection interface {
	Channel() (amqpChannel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type dialFunc func(url string) (amqpConnection, error)

type streadwayConn struct {
	*amqp.Connection
}

func (c streadwayConn) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return streadwayConn{conn}, nil
}

// amqpPublisher reconnects with exponential backoff whenever the broker closes
// its connection or channel. Publishes fail fast with ErrNotConnected meanwhile.
type amqpPublisher struct {
	url        string
	exchange   string
	dial       dialFunc
	backoff    time.Duration
	maxBackoff time.Duration

	mu        sync.Mutex
	conn      amqpConnection
	channel   amqpChannel
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewAMQPPublisher(amqpURL, exchange string) (Publisher, error) {
	return newAMQPPublisher(amqpURL, exchange, dialAMQP, time.Second, 30*time.Second)
}

func newAMQPPublisher(amqpURL, exchange string, dial dialFunc, backoff, maxBackoff time.Duration) (*amqpPublisher, error) {
	p := &amqpPublisher{
		url:        amqpURL,
		exchange:   exchange,
		dial:       dial,
		backoff:    backoff,
		maxBackoff: maxBackoff,
		done:       make(chan struct{}),
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *amqpPublisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		_ = ch.Close()
		_ = conn.Close()
		return errPublisherClosed
	default:
	}
	p.conn, p.channel, p.connected = conn, ch, true
	go p.monitor(conn, ch)
	return nil
}

func (p *amqpPublisher) monitor(conn amqpConnection, ch amqpChannel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-p.done:
		return
	case err := <-connClosed:
		log.Warn().Interface("reason", err).Msg("RabbitMQ connection closed, reconnecting")
	case err := <-chanClosed:
		log.Warn().Interface("reason", err).Msg("RabbitMQ channel closed, reconnecting")
	}

	p.mu.Lock()
	if p.conn == conn {
		p.connected = false
	}
	p.mu.Unlock()
	_ = conn.Close()

	p.reconnect()
}

func (p *amqpPublisher) reconnect() {
	backoff := p.backoff
	for {
		select {
		case <-p.done:
			return
		case <-time.After(backoff):
		}

		err := p.connect()
		if err == nil {
			log.Info().Msg("Reconnected to RabbitMQ")
			return
		}
		if errors.Is(err, errPublisherClosed) {
			return
		}
		log.Warn().Err(err).Dur("backoff", backoff).Msg("Failed to reconnect to RabbitMQ")

		backoff *= 2
		if backoff > p.maxBackoff {
			backoff = p.maxBackoff
		}
	}
}

func (p *amqpPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(envelope{Type: eventType, Payload: payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// amqp.Channel is not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return fmt.Errorf("publish %s: %w", eventType, ErrNotConnected)
	}

	// The event type is the routing key on the topic exchange.
	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *amqpPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.connected = false
		if p.channel != nil {
			_ = p.channel.Close()
		}
		if p.conn != nil {
			_ = p.conn.Close()
		}
	})
}

type noopPublisher struct{}

// NewNoopPublisher only logs events at debug level.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	log.Debug().Str("event", eventType).Interface("payload", payload).Msg("Event not published, RabbitMQ disabled")
	return nil
}

func (noopPublisher) Close() {}

// NewPublisher picks the RabbitMQ publisher when RABBITMQ_URL is set.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config) (Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		log.Info().Msg("RabbitMQ not configured, events will not be published")
		return NewNoopPublisher(), nil
	}
	p, err := NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})
	return p, nil
}
