package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"market-alert-service/internal/batch"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

// Trigger is the run entry point messages are delivered to.
type Trigger interface {
	HandleTrigger(ctx context.Context, event batch.TriggerEvent) batch.Response
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  messageReader
	trigger Trigger
	logger  *logging.Logger
}

func NewConsumer(brokers []string, topic, groupID string, trigger Trigger, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, trigger: trigger, logger: logger.WithField("topic", topic)}
}

// Start consumes until ctx is cancelled. Each message triggers one run; the offset is
// committed once the run has finished, whatever its outcome.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					c.logger.Infof("Kafka consumer stopped")
					return
				}
				c.logger.WithError(err).Errorf("Read message failed")
				continue
			}
			c.handle(ctx, msg)
			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.logger.WithError(err).Errorf("Commit failed at offset %d", msg.Offset)
			}
		}
	}()
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	event, err := decodeTrigger(msg.Value)
	if err != nil {
		c.logger.WithField("offset", msg.Offset).WithError(err).Errorf("Skipping malformed trigger message")
		return
	}
	if event.Source == "" {
		event.Source = "kafka"
	}
	resp := c.trigger.HandleTrigger(ctx, event)
	c.logger.WithFields(map[string]interface{}{
		"offset": msg.Offset,
		"status": resp.StatusCode,
		"run_id": resp.Body.RunID,
	}).Infof("Processed trigger for %s", resp.Body.Frequency)
}

// decodeTrigger accepts {"frequency": "...", "source": "..."}. An empty frequency is
// passed through so the handler's default applies.
func decodeTrigger(value []byte) (batch.TriggerEvent, error) {
	var event batch.TriggerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return batch.TriggerEvent{}, fmt.Errorf("failed to unmarshal trigger: %w", err)
	}
	event.Frequency = models.Frequency(strings.ToUpper(strings.TrimSpace(string(event.Frequency))))
	for _, r := range event.Frequency {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return batch.TriggerEvent{}, fmt.Errorf("invalid frequency %q", event.Frequency)
		}
	}
	return event, nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close kafka reader: %w", err)
	}
	return nil
}
