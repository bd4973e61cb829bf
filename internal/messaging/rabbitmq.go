package messaging

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName    = "safelive.events"
	DLXExchangeName = "safelive.events.dlx"

	// Main queues
	QueueTicketStatus    = "queue.ticket_status"
	QueueTicketAssigned  = "queue.ticket_assigned"
	QueueTicketProgress  = "queue.ticket_progress"
	QueueTicketReopened  = "queue.ticket_reopened"
	QueueIncidentCreated = "queue.incident_created"

	// Routing keys, matching what the outbox enqueues
	RoutingKeyTicketStatus    = "ticket.status.updated"
	RoutingKeyTicketAssigned  = "ticket.assigned"
	RoutingKeyTicketProgress  = "ticket.progress.updated"
	RoutingKeyTicketReopened  = "ticket.reopened"
	RoutingKeyIncidentCreated = "incident.created"

	reconnectDelay = 5 * time.Second
	prefetchCount  = 10
	publishTimeout = 5 * time.Second
)

type QueueConfig struct {
	QueueName     string
	RoutingKey    string
	DLQName       string
	DLQRoutingKey string
}

var QueueConfigs = []QueueConfig{
	{
		QueueName:     QueueTicketStatus,
		RoutingKey:    RoutingKeyTicketStatus,
		DLQName:       QueueTicketStatus + ".dlq",
		DLQRoutingKey: "dlq.ticket_status",
	},
	{
		QueueName:     QueueTicketAssigned,
		RoutingKey:    RoutingKeyTicketAssigned,
		DLQName:       QueueTicketAssigned + ".dlq",
		DLQRoutingKey: "dlq.ticket_assigned",
	},
	{
		QueueName:     QueueTicketProgress,
		RoutingKey:    RoutingKeyTicketProgress,
		DLQName:       QueueTicketProgress + ".dlq",
		DLQRoutingKey: "dlq.ticket_progress",
	},
	{
		QueueName:     QueueTicketReopened,
		RoutingKey:    RoutingKeyTicketReopened,
		DLQName:       QueueTicketReopened + ".dlq",
		DLQRoutingKey: "dlq.ticket_reopened",
	},
	{
		QueueName:     QueueIncidentCreated,
		RoutingKey:    RoutingKeyIncidentCreated,
		DLQName:       QueueIncidentCreated + ".dlq",
		DLQRoutingKey: "dlq.incident_created",
	},
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	logger  *zap.Logger
	mu      sync.RWMutex
	done    chan struct{}
}

func NewRabbitMQ(host, port, user, password string, logger *zap.Logger) (*RabbitMQ, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port)

	rmq := &RabbitMQ{
		url:    url,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	go rmq.handleReconnect()

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	if err := r.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	err = r.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	err = r.channel.ExchangeDeclare(
		DLXExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("dlx exchange declare: %w", err)
	}

	for _, qc := range QueueConfigs {
		_, err = r.channel.QueueDeclare(
			qc.DLQName,
			true,
			false,
			false,
			false,
			amqp.Table{
				"x-message-ttl": int64(86400000), // 24h retention for dead letters
			},
		)
		if err != nil {
			return fmt.Errorf("dlq declare %s: %w", qc.DLQName, err)
		}

		err = r.channel.QueueBind(qc.DLQName, qc.DLQRoutingKey, DLXExchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("dlq bind %s: %w", qc.DLQName, err)
		}

		_, err = r.channel.QueueDeclare(
			qc.QueueName,
			true,
			false,
			false,
			false,
			amqp.Table{
				"x-dead-letter-exchange":    DLXExchangeName,
				"x-dead-letter-routing-key": qc.DLQRoutingKey,
			},
		)
		if err != nil {
			return fmt.Errorf("queue declare %s: %w", qc.QueueName, err)
		}

		err = r.channel.QueueBind(qc.QueueName, qc.RoutingKey, ExchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind %s->%s: %w", qc.QueueName, qc.RoutingKey, err)
		}
	}

	r.logger.Info("rabbitmq connected")
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		select {
		case <-r.done:
			return
		case err := <-r.conn.NotifyClose(make(chan *amqp.Error)):
			if err != nil {
				r.logger.Warn("rabbitmq disconnected", zap.Error(err))
			}

			r.mu.Lock()
			for {
				if err := r.connect(); err != nil {
					r.logger.Warn("rabbitmq reconnect failed", zap.Error(err))
					time.Sleep(reconnectDelay)
					continue
				}
				break
			}
			r.mu.Unlock()
		}
	}
}

func (r *RabbitMQ) ConsumeQueue(queueName string) (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	msgs, err := r.channel.Consume(
		queueName,
		"",    // consumer tag
		false, // manual ack for retry support
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queueName, err)
	}

	return msgs, nil
}

func (r *RabbitMQ) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
