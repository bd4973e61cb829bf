package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/repository"
)

const (
	workerInterval     = 1 * time.Second
	batchSize          = 50
	cleanupInterval    = 1 * time.Hour
	publishedRetention = 24 * time.Hour
	statsInterval      = 30 * time.Second
)

var outboxMessages = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "outbox_messages",
	Help: "Outbox messages by status.",
}, []string{"status"})

// OutboxWorker drains the outbox table into RabbitMQ. State changes commit
// their events transactionally; this loop makes delivery eventually happen.
type OutboxWorker struct {
	outboxRepo *repository.OutboxRepository
	rmq        *RabbitMQ
	logger     *zap.Logger
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewOutboxWorker(outboxRepo *repository.OutboxRepository, rmq *RabbitMQ, logger *zap.Logger) *OutboxWorker {
	return &OutboxWorker{
		outboxRepo: outboxRepo,
		rmq:        rmq,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(3)
	go w.processLoop()
	go w.cleanupLoop()
	go w.statsLoop()
	w.logger.Info("outbox worker started")
}

func (w *OutboxWorker) processLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(workerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.processPendingMessages()
		}
	}
}

func (w *OutboxWorker) processPendingMessages() {
	messages, err := w.outboxRepo.GetPendingMessages(batchSize)
	if err != nil {
		w.logger.Error("outbox fetch failed", zap.Error(err))
		return
	}

	for _, msg := range messages {
		if err := w.publishMessage(msg.ID.String(), msg.RoutingKey, msg.Payload); err != nil {
			w.logger.Warn("outbox publish failed",
				zap.String("message_id", msg.ID.String()),
				zap.String("routing_key", msg.RoutingKey),
				zap.Error(err),
			)
			w.outboxRepo.MarkAsFailed(msg.ID, err.Error())
			continue
		}

		if err := w.outboxRepo.MarkAsPublished(msg.ID); err != nil {
			w.logger.Error("outbox mark published failed",
				zap.String("message_id", msg.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// publishMessage carries the outbox row id as the broker MessageId so
// consumers can deduplicate redeliveries.
func (w *OutboxWorker) publishMessage(messageID, routingKey string, payload json.RawMessage) error {
	w.rmq.mu.RLock()
	defer w.rmq.mu.RUnlock()

	if w.rmq.channel == nil {
		return fmt.Errorf("channel not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := w.rmq.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         payload,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

func (w *OutboxWorker) cleanupLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			deleted, err := w.outboxRepo.DeletePublished(publishedRetention)
			if err != nil {
				w.logger.Warn("outbox cleanup failed", zap.Error(err))
			} else if deleted > 0 {
				w.logger.Info("outbox cleanup", zap.Int64("deleted", deleted))
			}
		}
	}
}

// statsLoop exports the outbox backlog so a stuck publisher shows up on the
// dashboard before the dead-letter queue does.
func (w *OutboxWorker) statsLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			stats, err := w.outboxRepo.GetStats()
			if err != nil {
				w.logger.Warn("outbox stats failed", zap.Error(err))
				continue
			}
			for _, status := range []string{"pending", "published", "failed"} {
				outboxMessages.WithLabelValues(status).Set(float64(stats[status]))
			}
		}
	}
}

func (w *OutboxWorker) Stop() {
	close(w.done)
	w.wg.Wait()
	w.logger.Info("outbox worker stopped")
}
