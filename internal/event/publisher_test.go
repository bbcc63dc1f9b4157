package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verticalstudies/coaching-api/config"
	"go.uber.org/fx/fxtest"
)

func TestNewPublisher_NoopWithoutURL(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	p, err := NewPublisher(lc, &config.Config{})
	require.NoError(t, err)
	_, ok := p.(noopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), AttemptSubmitted, AttemptSubmittedPayload{AttemptID: "attempt_1"}))
	p.Close()
}

func TestEnvelopeShape(t *testing.T) {
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	body, err := json.Marshal(envelope{
		Type:       AttemptSubmitted,
		Payload:    AttemptSubmittedPayload{AttemptID: "attempt_1", TestID: "test_t", Score: 8, Rank: 1, CompletedAt: at},
		OccurredAt: at,
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "attempt.submitted", decoded["type"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "attempt_1", payload["attempt_id"])
	assert.EqualValues(t, 1, payload["rank"])
}

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	exchanges []string
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, name+"/"+kind)
	return nil
}

func (c *fakeChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error { return receiver }
func (c *fakeChannel) Close() error { return nil }

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.published)
}

type fakeConn struct {
	channel *fakeChannel
	closed  chan *amqp.Error
}

func (c *fakeConn) Channel() (amqpChannel, error) { return c.channel, nil }

func (c *fakeConn) NotifyClose(chan *amqp.Error) chan *amqp.Error { return c.closed }

func (c *fakeConn) Close() error { return nil }

// fakeBroker hands out a fresh connection per dial and can refuse dials.
type fakeBroker struct {
	mu     sync.Mutex
	conns  []*fakeConn
	refuse int
}

func (b *fakeBroker) dial(string) (amqpConnection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refuse > 0 {
		b.refuse--
		return nil, errors.New("connection refused")
	}
	c := &fakeConn{channel: &fakeChannel{}, closed: make(chan *amqp.Error, 1)}
	b.conns = append(b.conns, c)
	return c, nil
}

func (b *fakeBroker) last() *fakeConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns[len(b.conns)-1]
}

func (b *fakeBroker) dials() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func TestAMQPPublisher_PublishesToTopicExchange(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newAMQPPublisher("amqp://test", "vertical_studies", broker.dial, time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), AttemptSubmitted, AttemptSubmittedPayload{AttemptID: "attempt_1"}))

	ch := broker.last().channel
	assert.Equal(t, []string{"vertical_studies/topic"}, ch.exchanges)
	assert.Equal(t, []string{AttemptSubmitted}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
}

func TestAMQPPublisher_ReconnectsAfterBrokerDrop(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newAMQPPublisher("amqp://test", "vertical_studies", broker.dial, time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)
	defer p.Close()

	first := broker.last()
	broker.mu.Lock()
	broker.refuse = 2
	broker.mu.Unlock()
	first.closed <- &amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restart"}

	assert.Eventually(t, func() bool { return broker.dials() == 2 }, 2*time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return p.Publish(context.Background(), AttemptSubmitted, AttemptSubmittedPayload{AttemptID: "attempt_2"}) == nil
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 0, first.channel.count())
	assert.GreaterOrEqual(t, broker.last().channel.count(), 1)
}

func TestAMQPPublisher_NotConnectedAfterClose(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newAMQPPublisher("amqp://test", "vertical_studies", broker.dial, time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)

	p.Close()
	p.Close()
	err = p.Publish(context.Background(), AttemptSubmitted, AttemptSubmittedPayload{})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 1, broker.dials())
}

func TestNewAMQPPublisher_DialFailure(t *testing.T) {
	broker := &fakeBroker{refuse: 1}
	_, err := newAMQPPublisher("amqp://test", "vertical_studies", broker.dial, time.Millisecond, 5*time.Millisecond)
	assert.Error(t, err)
}
