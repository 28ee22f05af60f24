// Package notify hands user and admin notifications to the task queue. Delivery
// happens in the worker; callers never see enqueue failures.
package notify

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"investment-service/internal/consumers"
	"investment-service/internal/metrics"
	"investment-service/internal/worker"
)

// Notifier is what the services depend on.
type Notifier interface {
	EmailAdmin(ctx context.Context, subject, body string)
	MessageUser(ctx context.Context, telegramID int64, text string)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type QueueNotifier struct {
	queue      Enqueuer
	adminEmail string
}

func NewQueueNotifier(queue Enqueuer, adminEmail string) *QueueNotifier {
	return &QueueNotifier{queue: queue, adminEmail: adminEmail}
}

func (n *QueueNotifier) EmailAdmin(ctx context.Context, subject, body string) {
	if n.adminEmail == "" {
		log.Debug().Str("subject", subject).Msg("ADMIN_EMAIL not set, skipping admin email")
		return
	}
	task, err := worker.NewSendEmailTask(consumers.EmailDTO{To: n.adminEmail, Subject: subject, Body: body})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build email task")
		return
	}
	n.enqueue(ctx, "email", task)
}

func (n *QueueNotifier) MessageUser(ctx context.Context, telegramID int64, text string) {
	task, err := worker.NewSendTelegramTask(consumers.TelegramDTO{ChatID: telegramID, Text: text})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build telegram task")
		return
	}
	n.enqueue(ctx, "telegram", task)
}

func (n *QueueNotifier) enqueue(ctx context.Context, channel string, task *asynq.Task) {
	info, err := n.queue.EnqueueContext(ctx, task)
	metrics.NotificationsEnqueued.WithLabelValues(channel, metrics.Result(err)).Inc()
	if err != nil {
		log.Error().Err(err).Str("type", task.Type()).Msg("Failed to enqueue notification")
		return
	}
	log.Debug().Str("type", task.Type()).Str("task_id", info.ID).Msg("Notification enqueued")
}

// Discard drops every notification.
type Discard struct{}

func (Discard) EmailAdmin(context.Context, string, string)  {}
func (Discard) MessageUser(context.Context, int64, string) {}
