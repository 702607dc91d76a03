package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"buildcheck/internal/domain"

	"github.com/wb-go/wbf/retry"
)

var ErrEncode = errors.New("failed to encode event")

type Producer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

// EventPublisher turns analysis events into keyed messages. The request id
// is the key so every event of one batch lands on the same partition.
type EventPublisher struct {
	producer Producer
	strategy retry.Strategy
}

func NewEventPublisher(producer Producer, strategy retry.Strategy) *EventPublisher {
	return &EventPublisher{producer: producer, strategy: strategy}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.AnalysisEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	if err := p.producer.Send(ctx, p.strategy, []byte(event.RequestID), value); err != nil {
		return fmt.Errorf("failed to send analysis event: %w", err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
