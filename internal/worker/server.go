package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"investment-service/internal/consumers"
)

type Worker struct {
	Processor *consumers.NotificationProcessor
}

func NewWorker(processor *consumers.NotificationProcessor) *Worker {
	return &Worker{
		Processor: processor,
	}
}

func (w *Worker) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var p consumers.EmailDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return skipIfDisabled(w.Processor.ProcessEmail(p))
}

func (w *Worker) HandleSendTelegram(ctx context.Context, t *asynq.Task) error {
	var p consumers.TelegramDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return skipIfDisabled(w.Processor.ProcessTelegram(p))
}

// A disabled channel will not recover by retrying.
func skipIfDisabled(err error) error {
	if errors.Is(err, consumers.ErrChannelDisabled) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func NewServeMux(w *Worker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSendEmail, w.HandleSendEmail)
	mux.HandleFunc(TypeSendTelegram, w.HandleSendTelegram)
	return mux
}

func StartWorker(redisOpt asynq.RedisClientOpt, concurrency int, processor *consumers.NotificationProcessor) error {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueNotifications: 6,
				"default":          3,
				"low":              1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Msg("Task failed")
			}),
		},
	)

	log.Info().Int("concurrency", concurrency).Msg("Starting notification worker")
	if err := srv.Run(NewServeMux(NewWorker(processor))); err != nil {
		return fmt.Errorf("could not run worker server: %w", err)
	}
	return nil
}
