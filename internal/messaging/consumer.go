package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
	"github.com/Sakshi-Mishra77/Smart-city-new/internal/repository"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 1 * time.Second
	maxDelay         = 30 * time.Second
)

// TicketEventMessage is the payload every ticket event carries through the
// broker.
type TicketEventMessage struct {
	MessageID       string   `json:"messageId"`
	TicketID        string   `json:"ticketId"`
	IncidentID      string   `json:"incidentId"`
	Title           string   `json:"title"`
	Status          string   `json:"status"`
	Action          string   `json:"action"`
	ActorID         string   `json:"actorId"`
	ActorName       string   `json:"actorName"`
	ReporterID      string   `json:"reporterId,omitempty"`
	PreviousStatus  string   `json:"previousStatus,omitempty"`
	WorkerIDs       []string `json:"workerIds,omitempty"`
	ProgressPercent int      `json:"progressPercent,omitempty"`
	OccurredAt      string   `json:"occurredAt"`
}

type IncidentEventMessage struct {
	MessageID  string `json:"messageId"`
	IncidentID string `json:"incidentId"`
	TicketID   string `json:"ticketId"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	ReporterID string `json:"reporterId"`
	OccurredAt string `json:"occurredAt"`
}

// EventConsumer turns broker events into stored notifications and live SSE
// pushes.
type EventConsumer struct {
	rmq              *RabbitMQ
	notificationRepo *repository.NotificationRepository
	sseHub           *SSEHub
	logger           *zap.Logger
	done             chan struct{}
	wg               sync.WaitGroup
}

func NewEventConsumer(rmq *RabbitMQ, notificationRepo *repository.NotificationRepository, sseHub *SSEHub, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{
		rmq:              rmq,
		notificationRepo: notificationRepo,
		sseHub:           sseHub,
		logger:           logger,
		done:             make(chan struct{}),
	}
}

func (c *EventConsumer) Start() {
	c.wg.Add(5)
	go c.consumeQueue(QueueTicketStatus, c.handleStatusUpdate)
	go c.consumeQueue(QueueTicketAssigned, c.handleAssigned)
	go c.consumeQueue(QueueTicketProgress, c.handleProgress)
	go c.consumeQueue(QueueTicketReopened, c.handleReopened)
	go c.consumeQueue(QueueIncidentCreated, c.handleIncidentCreated)
	c.logger.Info("event consumers started")
}

func (c *EventConsumer) consumeQueue(queueName string, handler func(amqp.Delivery) error) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
			msgs, err := c.rmq.ConsumeQueue(queueName)
			if err != nil {
				c.logger.Warn("consume failed, retrying",
					zap.String("queue", queueName), zap.Error(err))
				time.Sleep(5 * time.Second)
				continue
			}
			c.processQueue(queueName, msgs, handler)
		}
	}
}

func (c *EventConsumer) processQueue(queueName string, msgs <-chan amqp.Delivery, handler func(amqp.Delivery) error) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("consumer channel closed, reconnecting", zap.String("queue", queueName))
				return
			}
			c.processMessageWithRetry(queueName, msg, handler)
		}
	}
}

func (c *EventConsumer) processMessageWithRetry(queueName string, msg amqp.Delivery, handler func(amqp.Delivery) error) {
	messageID := msg.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("%x", msg.Body[:min(32, len(msg.Body))])
	}

	processed, err := c.notificationRepo.IsMessageProcessed(messageID)
	if err != nil {
		c.logger.Warn("idempotency check failed", zap.String("queue", queueName), zap.Error(err))
	}
	if processed {
		msg.Ack(false)
		return
	}

	err = retry.Do(
		func() error {
			return handler(msg)
		},
		retry.Attempts(maxRetryAttempts),
		retry.Delay(initialDelay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("handler retry",
				zap.String("queue", queueName), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)

	if err != nil {
		c.logger.Error("handler failed, dead-lettering",
			zap.String("queue", queueName), zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if err := c.notificationRepo.MarkMessageProcessed(messageID); err != nil {
		c.logger.Warn("mark processed failed", zap.String("queue", queueName), zap.Error(err))
	}

	msg.Ack(false)
}

func (c *EventConsumer) handleStatusUpdate(msg amqp.Delivery) error {
	var event TicketEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("status update: bad json", zap.Error(err))
		return nil
	}
	if event.ReporterID == "" {
		return nil
	}

	return c.notify(event.ReporterID, event.TicketID,
		"Ticket status updated",
		fmt.Sprintf("Your ticket %q is now %s", event.Title, event.Status))
}

func (c *EventConsumer) handleAssigned(msg amqp.Delivery) error {
	var event TicketEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("assigned: bad json", zap.Error(err))
		return nil
	}

	for _, workerID := range event.WorkerIDs {
		if err := c.notify(workerID, event.TicketID,
			"New ticket assigned",
			fmt.Sprintf("You have been assigned to ticket %q by %s", event.Title, event.ActorName)); err != nil {
			return err
		}
	}
	return nil
}

func (c *EventConsumer) handleProgress(msg amqp.Delivery) error {
	var event TicketEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("progress: bad json", zap.Error(err))
		return nil
	}
	if event.ReporterID == "" {
		return nil
	}

	return c.notify(event.ReporterID, event.TicketID,
		"Work progress update",
		fmt.Sprintf("Ticket %q is %d%% complete", event.Title, event.ProgressPercent))
}

func (c *EventConsumer) handleReopened(msg amqp.Delivery) error {
	var event TicketEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("reopened: bad json", zap.Error(err))
		return nil
	}
	if event.ReporterID == "" {
		return nil
	}

	return c.notify(event.ReporterID, event.TicketID,
		"Ticket reopened",
		fmt.Sprintf("Your ticket %q was reopened for further work", event.Title))
}

func (c *EventConsumer) handleIncidentCreated(msg amqp.Delivery) error {
	var event IncidentEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("incident created: bad json", zap.Error(err))
		return nil
	}

	c.logger.Info("incident reported",
		zap.String("incident_id", event.IncidentID),
		zap.String("category", event.Category),
	)
	return nil
}

// notify stores the notification and pushes it to any live streams.
func (c *EventConsumer) notify(userID, ticketID, title, message string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		c.logger.Warn("notify: bad user id", zap.String("user_id", userID))
		return nil
	}

	notification := &model.Notification{
		ID:        uuid.New(),
		UserID:    uid,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if tid, err := uuid.Parse(ticketID); err == nil {
		notification.TicketID = &tid
	}

	if err := c.notificationRepo.Create(notification); err != nil {
		return err
	}

	c.sseHub.SendToUser(notification)
	return nil
}

func (c *EventConsumer) Stop() {
	close(c.done)
	c.wg.Wait()
	c.logger.Info("event consumers stopped")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
