package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/internal/models"
)

const testPrefix = "comparison:jobs:"

func newPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPublisher(client, testPrefix), mr
}

func TestPublishKeepsLastEvent(t *testing.T) {
	ctx := context.Background()
	p, mr := newPublisher(t)

	require.NoError(t, p.Publish(ctx, models.JobEvent{JobID: "job-1", Stage: models.JobStageQueued}))
	dirname := "folder_a"
	require.NoError(t, p.Publish(ctx, models.JobEvent{
		JobID:       "job-1",
		Stage:       models.JobStageCategory,
		Dirname:     &dirname,
		Comparisons: 6,
	}))

	last, err := p.Last(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStageCategory, last.Stage)
	require.NotNil(t, last.Dirname)
	assert.Equal(t, "folder_a", *last.Dirname)
	assert.Equal(t, 6, last.Comparisons)
	assert.False(t, last.At.IsZero())

	assert.Equal(t, lastEventTTL, mr.TTL(testPrefix+"job-1:last"))
}

func TestLastUnknownJob(t *testing.T) {
	p, _ := newPublisher(t)

	_, err := p.Last(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, _ := newPublisher(t)

	sub := p.Subscribe(ctx, "job-1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, models.JobEvent{JobID: "job-2", Stage: models.JobStageStarted}))
	require.NoError(t, p.Publish(ctx, models.JobEvent{JobID: "job-1", Stage: models.JobStageCompleted, Comparisons: 10}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	event, err := Decode([]byte(msg.Payload))
	require.NoError(t, err)
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, models.JobStageCompleted, event.Stage)
	assert.Equal(t, 10, event.Comparisons)
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(models.JobStageCompleted))
	assert.True(t, Terminal(models.JobStageFailed))
	assert.False(t, Terminal(models.JobStageQueued))
	assert.False(t, Terminal(models.JobStageStarted))
	assert.False(t, Terminal(models.JobStageCategory))
}
