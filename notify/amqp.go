package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/warp/folio-engine/folio"
)

// DefaultQueue is the queue notices are published to when none is configured.
const DefaultQueue = "folio.notices"

// Publisher is the part of *amqp.Channel the AMQP sink uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes notices as persistent JSON messages on the default exchange,
// routed to Queue.
type AMQP struct {
	Channel Publisher
	Queue   string
	Now     func() time.Time

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to the broker at url and declares a durable queue.
func DialAMQP(url, queue string) (*AMQP, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", queue, err)
	}
	return &AMQP{Channel: ch, Queue: queue, conn: conn, ch: ch}, nil
}

func (a *AMQP) Notify(ctx context.Context, n folio.Notice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now().UTC(),
		Type:         string(n.Level),
		Body:         body,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Channel.PublishWithContext(ctx, "", a.Queue, false, false, msg); err != nil {
		return fmt.Errorf("publish notice %q: %w", n.Subject, err)
	}
	return nil
}

// Close releases the channel and connection opened by DialAMQP.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.ch != nil {
		err = a.ch.Close()
		a.ch = nil
	}
	if a.conn != nil {
		if cerr := a.conn.Close(); err == nil {
			err = cerr
		}
		a.conn = nil
	}
	return err
}

var _ folio.Notifier = (*AMQP)(nil)
