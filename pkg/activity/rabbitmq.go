package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"gathering/pkg/storage"

	amqp "github.com/rabbitmq/amqp091-go"
)

const Exchange = "gathering-activity"

type AMQPOptions struct {
	Addr     string `toml:"rabbitmq_address" yaml:"rabbitmq_address"`
	Port     int    `toml:"rabbitmq_port" yaml:"rabbitmq_port"`
	Username string `toml:"rabbitmq_username" yaml:"rabbitmq_username"`
	Password string `toml:"rabbitmq_password" yaml:"rabbitmq_password"`
}

// Enabled reports whether a broker address is configured.
func (o AMQPOptions) Enabled() bool {
	return o.Addr != ""
}

func (o AMQPOptions) dial() (*amqp.Channel, *amqp.Connection, error) {
	ch, conn, err := storage.RabbitMQClient(o.Username, o.Password, o.Addr, o.Port)
	if err != nil {
		return nil, nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("error declaring exchange for rabbitmq: %s", err.Error())
	}
	return ch, conn, nil
}

type AMQPPublisher struct {
	mu   sync.Mutex
	ch   *amqp.Channel
	conn *amqp.Connection
}

func NewAMQPPublisher(opts AMQPOptions) (*AMQPPublisher, error) {
	ch, conn, err := opts.dial()
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{ch: ch, conn: conn}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error converting activity event to json: %w", err)
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, Exchange, event.RoutingKey(), false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch.Close()
	return p.conn.Close()
}

// Consume binds a queue to every activity topic and calls handle for each
// message until ctx is done or the broker closes the delivery channel. An
// empty queue name declares a private queue that is removed on disconnect.
// Handler errors are logged and do not stop consumption.
func Consume(ctx context.Context, opts AMQPOptions, queue string, logger *slog.Logger, handle func(context.Context, Event) error) error {
	ch, conn, err := opts.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer ch.Close()

	exclusive := queue == ""
	q, err := ch.QueueDeclare(queue, !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		return fmt.Errorf("error declaring queue for rabbitmq: %s", err.Error())
	}
	err = ch.QueueBind(q.Name, "activity.#", Exchange, false, nil)
	if err != nil {
		return fmt.Errorf("error binding queue for rabbitmq: %s", err.Error())
	}
	msgs, err := ch.Consume(q.Name, "", true, exclusive, false, false, nil)
	if err != nil {
		return fmt.Errorf("error consuming queue: %s", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq closed the delivery channel")
			}
			var event Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				logger.Warn("error parsing json message", "msg", err.Error())
				continue
			}
			if err := handle(ctx, event); err != nil {
				logger.Warn("error handling activity event", "kind", event.Kind, "msg", err.Error())
			}
		}
	}
}
