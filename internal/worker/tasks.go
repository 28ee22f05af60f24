package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"investment-service/internal/consumers"
)

// Task Types
const (
	TypeSendEmail    = "notify:email"
	TypeSendTelegram = "notify:telegram"
)

const QueueNotifications = "notifications"

// Task Creators

func NewSendEmailTask(payload consumers.EmailDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendEmail, data, asynq.Queue(QueueNotifications), asynq.MaxRetry(5)), nil
}

func NewSendTelegramTask(payload consumers.TelegramDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendTelegram, data, asynq.Queue(QueueNotifications), asynq.MaxRetry(5)), nil
}
