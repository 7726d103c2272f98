package services

import (
	"context"
	"encoding/json"
	"time"

	"marketplace-service/kafka"
	"marketplace-service/models"
	aws_pkg "marketplace-service/pkg/aws"

	"go.uber.org/zap"
)

// EventPublisher emits domain events after the corresponding write has
// committed. Publishing is best effort: failures are logged, never returned,
// and never undo the write.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.Event)
}

type busPublisher struct {
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewEventPublisher fans events out to Kafka and SNS. Either sink may be nil.
func NewEventPublisher(producer kafka.ProducerAPI, snsClient aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) EventPublisher {
	return &busPublisher{
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		timeout:     5 * time.Second,
		logger:      logger,
	}
}

func (p *busPublisher) Publish(ctx context.Context, evt models.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", evt.EventType), zap.Error(err))
		return
	}

	// The request may already be finishing; the write it reports on has
	// committed, so publishing gets its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if p.producer != nil {
		if err := p.producer.Publish(pubCtx, evt.Key, payload); err != nil {
			p.logger.Warn("Kafka event publish failed",
				zap.String("event_type", evt.EventType),
				zap.String("key", evt.Key),
				zap.Error(err),
			)
		}
	}

	if p.snsClient != nil && p.snsTopicArn != "" {
		attrs := map[string]string{"event_type": evt.EventType}
		if err := p.snsClient.Publish(pubCtx, p.snsTopicArn, payload, attrs); err != nil {
			p.logger.Warn("SNS event publish failed",
				zap.String("event_type", evt.EventType),
				zap.String("key", evt.Key),
				zap.Error(err),
			)
		}
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.Event) {}

// NoopPublisher discards every event.
func NoopPublisher() EventPublisher { return noopPublisher{} }
