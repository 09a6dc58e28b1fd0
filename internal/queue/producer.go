package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"imagecompare/internal/models"
)

const TaskGenerate = "generate"

// Producer appends generation jobs to the job stream.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, job models.GenerationJob) (string, error) {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":      TaskGenerate,
			"jobId":     job.ID,
			"adminId":   strconv.FormatInt(job.AdminID, 10),
			"requestId": job.RequestID,
			"queuedAt":  job.QueuedAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
