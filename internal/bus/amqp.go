package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPRelay mirrors bus events between storefront replicas through a fanout
// exchange. Each replica binds its own exclusive queue, so every replica sees
// every event; events carrying the local origin are ignored on the way back.
type AMQPRelay struct {
	Conn     *amqp.Connection
	Channel  *amqp.Channel
	Exchange string

	bus   *Bus
	queue string
	mu    sync.Mutex
}

func DialRelay(url, exchange string, b *Bus) (*AMQPRelay, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := &AMQPRelay{Conn: conn, Channel: ch, Exchange: exchange, bus: b}
	if err := r.setup(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *AMQPRelay) setup() error {
	if err := r.Channel.ExchangeDeclare(
		r.Exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", r.Exchange, err)
	}

	q, err := r.Channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	r.queue = q.Name

	if err := r.Channel.QueueBind(r.queue, "", r.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Start begins consuming remote events and forwarding local ones. It returns
// once the consumer is registered; consumption stops when ctx ends or the
// connection closes.
func (r *AMQPRelay) Start(ctx context.Context) error {
	msgs, err := r.Channel.Consume(
		r.queue,
		"flowerseal-"+r.bus.Origin(), // consumer tag
		true,                         // auto-ack
		true,                         // exclusive
		false,                        // no-local
		false,                        // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.queue, err)
	}

	r.bus.Forward(func(e Event) {
		if err := r.publish(ctx, e); err != nil {
			slog.Warn("Failed to relay bus event", "topic", e.Topic, "error", err)
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("Bus relay consumer closed")
					return
				}
				r.handle(msg.Body)
			}
		}
	}()
	return nil
}

func (r *AMQPRelay) handle(body []byte) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		slog.Warn("Discarding malformed relayed event", "error", err)
		return
	}
	if e.Origin == r.bus.Origin() {
		return
	}
	r.bus.Deliver(e)
}

func (r *AMQPRelay) publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx,
		r.Exchange,
		"",
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   e.At,
			Body:        body,
		},
	)
}

func (r *AMQPRelay) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			slog.Debug("Closing relay channel", "error", err)
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			slog.Debug("Closing relay connection", "error", err)
		}
	}
}
