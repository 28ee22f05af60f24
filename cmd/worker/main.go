package main

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"investment-service/internal/config"
	"investment-service/internal/consumers"
	"investment-service/internal/logging"
	"investment-service/internal/worker"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Component: "worker"})

	// Senders stay nil when their channel is not configured.
	var mailer consumers.Mailer
	if m := consumers.NewSMTPMailer(consumers.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.MailSender,
	}); m != nil {
		mailer = m
	}

	var chat consumers.ChatSender
	sender, err := consumers.NewTelegramSender(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create telegram sender")
	}
	if sender != nil {
		chat = sender
	}

	processor := consumers.NewNotificationProcessor(mailer, chat)
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisURL, Password: cfg.RedisPassword}

	if err := worker.StartWorker(redisOpt, cfg.WorkerQueueSize, processor); err != nil {
		log.Fatal().Err(err).Msg("Worker stopped")
	}
}
