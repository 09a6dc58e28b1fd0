package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"imagecompare/internal/models"
	"imagecompare/internal/queue"
	"imagecompare/internal/reqctx"
	"imagecompare/internal/service"
)

type Generator interface {
	GenerateAllReporting(ctx context.Context, actor int64, onCategory func(service.CategoryResult)) ([]models.Comparison, error)
}

type ProgressPublisher interface {
	Publish(ctx context.Context, event models.JobEvent) error
}

type Processor struct {
	generator Generator
	progress  ProgressPublisher
	logger    zerolog.Logger
}

type TaskPayload struct {
	Type      string `json:"type"`
	JobID     string `json:"jobId"`
	AdminID   string `json:"adminId"`
	RequestID string `json:"requestId"`
}

func NewProcessor(generator Generator, progress ProgressPublisher, logger zerolog.Logger) *Processor {
	return &Processor{
		generator: generator,
		progress:  progress,
		logger:    logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskGenerate:
		return p.handleGenerate(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// handleGenerate runs a generation job. Generation failures are reported as
// a failed event and the message is still acknowledged; only progress
// publishing failures cause a redelivery.
func (p *Processor) handleGenerate(ctx context.Context, payload TaskPayload) error {
	adminID, err := strconv.ParseInt(payload.AdminID, 10, 64)
	if err != nil {
		p.logger.Error().Str("job_id", payload.JobID).Str("admin_id", payload.AdminID).Msg("invalid admin id, dropping job")
		return nil
	}

	ctx = reqctx.WithRequestID(ctx, payload.RequestID)
	log := p.logger.With().Str("job_id", payload.JobID).Str("request_id", payload.RequestID).Logger()

	if err := p.publish(ctx, models.JobEvent{JobID: payload.JobID, Stage: models.JobStageStarted}); err != nil {
		return err
	}

	total := 0
	comparisons, genErr := p.generator.GenerateAllReporting(ctx, adminID, func(result service.CategoryResult) {
		total += len(result.Comparisons)
		dirname := result.Dirname
		if err := p.publish(ctx, models.JobEvent{
			JobID:       payload.JobID,
			Stage:       models.JobStageCategory,
			Dirname:     &dirname,
			Comparisons: len(result.Comparisons),
		}); err != nil {
			log.Warn().Err(err).Str("dirname", dirname).Msg("publish category progress failed")
		}
	})

	if genErr != nil {
		log.Error().Err(genErr).Int("comparisons", len(comparisons)).Msg("generation job failed")
		return p.publish(ctx, models.JobEvent{
			JobID:       payload.JobID,
			Stage:       models.JobStageFailed,
			Comparisons: len(comparisons),
			Error:       genErr.Error(),
		})
	}

	log.Info().Int("comparisons", total).Msg("generation job completed")
	return p.publish(ctx, models.JobEvent{
		JobID:       payload.JobID,
		Stage:       models.JobStageCompleted,
		Comparisons: len(comparisons),
	})
}

func (p *Processor) publish(ctx context.Context, event models.JobEvent) error {
	if p.progress == nil {
		return nil
	}
	return p.progress.Publish(ctx, event)
}
