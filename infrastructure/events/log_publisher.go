package events

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chains/application/ports"
	domainevents "chains/domain/events"
)

// LogPublisher publishes domain events to a structured log
type LogPublisher struct {
	logger *zap.Logger
	level  zapcore.Level
}

var _ ports.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a publisher writing events at debug level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{
		logger: logger.Named("events"),
		level:  zapcore.DebugLevel,
	}
}

// WithLevel changes the level events are written at
func (p *LogPublisher) WithLevel(level zapcore.Level) *LogPublisher {
	p.level = level
	return p
}

// Publish writes a single event
func (p *LogPublisher) Publish(ctx context.Context, event domainevents.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ce := p.logger.Check(p.level, "Domain event"); ce != nil {
		ce.Write(
			zap.String("type", event.GetEventType()),
			zap.String("chainID", event.GetAggregateID()),
			zap.Int("version", event.GetVersion()),
			zap.Time("timestamp", event.GetTimestamp()),
			zap.Any("event", event),
		)
	}
	return nil
}

// PublishBatch writes events in order
func (p *LogPublisher) PublishBatch(ctx context.Context, events []domainevents.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
