package consumers

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"investment-service/internal/metrics"
)

// --- DTOs ---

type EmailDTO struct {
	To      string
	Subject string
	Body    string
}

type TelegramDTO struct {
	ChatID int64
	Text   string
}

// Mailer delivers a single email.
type Mailer interface {
	Send(to, subject, body string) error
}

// ChatSender delivers a single chat message.
type ChatSender interface {
	SendMessage(chatID int64, text string) error
}

var ErrChannelDisabled = errors.New("notification channel is not configured")

type NotificationProcessor struct {
	Mailer Mailer
	Chat   ChatSender
}

func NewNotificationProcessor(mailer Mailer, chat ChatSender) *NotificationProcessor {
	return &NotificationProcessor{
		Mailer: mailer,
		Chat:   chat,
	}
}

func (p *NotificationProcessor) ProcessEmail(data EmailDTO) error {
	if p.Mailer == nil {
		log.Warn().Str("to", data.To).Str("subject", data.Subject).Msg("Dropping email, SMTP is not configured")
		return ErrChannelDisabled
	}
	if strings.TrimSpace(data.To) == "" {
		return fmt.Errorf("email has no recipient")
	}

	err := p.Mailer.Send(data.To, data.Subject, data.Body)
	metrics.NotificationsDelivered.WithLabelValues("email", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("send email to %s: %w", data.To, err)
	}
	log.Info().Str("to", data.To).Str("subject", data.Subject).Msg("Email sent")
	return nil
}

func (p *NotificationProcessor) ProcessTelegram(data TelegramDTO) error {
	if p.Chat == nil {
		log.Warn().Int64("chat_id", data.ChatID).Msg("Dropping telegram message, bot is not configured")
		return ErrChannelDisabled
	}
	if data.ChatID == 0 {
		return fmt.Errorf("telegram message has no chat id")
	}

	err := p.Chat.SendMessage(data.ChatID, data.Text)
	metrics.NotificationsDelivered.WithLabelValues("telegram", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("send telegram message to %d: %w", data.ChatID, err)
	}
	log.Info().Int64("chat_id", data.ChatID).Msg("Telegram message sent")
	return nil
}

// --- Senders ---

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// SMTPMailer sends emails via SMTP.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns nil when no SMTP host is configured.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Sender == "" {
		cfg.Sender = "no-reply@localhost"
		log.Warn().Str("sender", cfg.Sender).Msg("MAIL_DEFAULT_SENDER not set, using default sender")
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	return m.send(addr, auth, m.cfg.Sender, []string{to}, BuildMessage(m.cfg.Sender, to, subject, body))
}

// BuildMessage renders a plain text RFC 5322 message.
func BuildMessage(from, to, subject, body string) []byte {
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body,
	)
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts messages through the bot API.
type TelegramSender struct {
	api botAPI
}

// NewTelegramSender returns nil when no bot token is configured.
func NewTelegramSender(token string) (*TelegramSender, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info().Str("bot", api.Self.UserName).Msg("Telegram bot authorized")
	return &TelegramSender{api: api}, nil
}

func (s *TelegramSender) SendMessage(chatID int64, text string) error {
	_, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
