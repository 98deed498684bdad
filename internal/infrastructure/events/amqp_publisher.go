package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

var _ ports.EventPublisher = (*AMQPPublisher)(nil)

// AMQPPublisher publica eventos de autenticación en un exchange topic de RabbitMQ.
// La routing key es el tipo de evento (auth.user_disabled, ...). Los mensajes son persistentes.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	log      *logger.Logger
}

// NewAMQPPublisher conecta y declara el exchange (idempotente).
func NewAMQPPublisher(url, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("events: AMQP_URL vacío")
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &AMQPPublisher{url: url, exchange: exchange, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("events: abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("events: declarar exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Publish envía el evento. Si el canal se cerró, reconecta una vez.
func (p *AMQPPublisher) Publish(ctx context.Context, event ports.AuthEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: serializar: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	if err != nil && errors.Is(err, amqp.ErrClosed) {
		p.log.Warn().Err(err).Msg("canal AMQP cerrado, reconectando")
		if err := p.connect(); err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("events: publicar %s: %w", event.Type, err)
	}
	return nil
}

// Close cierra canal y conexión.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
