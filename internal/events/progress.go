// Package events publishes generation job progress over Redis pub/sub and
// keeps the latest event per job for late subscribers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imagecompare/internal/models"
)

const lastEventTTL = 24 * time.Hour

var ErrJobNotFound = errors.New("job not found")

type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) channel(jobID string) string {
	return p.prefix + jobID
}

func (p *Publisher) lastKey(jobID string) string {
	return p.prefix + jobID + ":last"
}

func (p *Publisher) Publish(ctx context.Context, event models.JobEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.lastKey(event.JobID), data, lastEventTTL)
	pipe.Publish(ctx, p.channel(event.JobID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Last returns the most recent event published for jobID.
func (p *Publisher) Last(ctx context.Context, jobID string) (models.JobEvent, error) {
	data, err := p.client.Get(ctx, p.lastKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.JobEvent{}, ErrJobNotFound
	}
	if err != nil {
		return models.JobEvent{}, err
	}
	return Decode(data)
}

// Subscribe opens a subscription to jobID's events. The caller closes it.
func (p *Publisher) Subscribe(ctx context.Context, jobID string) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel(jobID))
}

func Decode(data []byte) (models.JobEvent, error) {
	var event models.JobEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return models.JobEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// Terminal reports whether no further events follow stage.
func Terminal(stage models.JobStage) bool {
	return stage == models.JobStageCompleted || stage == models.JobStageFailed
}
