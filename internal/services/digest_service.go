package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/models"
	"investment-service/internal/notify"
)

// DigestService emails admins a daily summary of work waiting for review.
type DigestService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

func NewDigestService(db *gorm.DB, notifier notify.Notifier) *DigestService {
	return &DigestService{DB: db, Notifier: notifier}
}

type Digest struct {
	PendingPayments    int64
	PendingWithdrawals int64
}

func (s *DigestService) Build(ctx context.Context) (Digest, error) {
	db := s.DB.WithContext(ctx)
	var d Digest

	if err := db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionPending).
		Where("payment_proof_url IS NOT NULL OR depositor_name IS NOT NULL").
		Count(&d.PendingPayments).Error; err != nil {
		return d, dbFailure(err)
	}
	if err := db.Model(&models.WithdrawalRequest{}).
		Where("status = ?", models.WithdrawalPending).
		Count(&d.PendingWithdrawals).Error; err != nil {
		return d, dbFailure(err)
	}
	return d, nil
}

// SendDigest emails the digest. Nothing is sent when there is nothing to review.
func (s *DigestService) SendDigest(ctx context.Context) {
	d, err := s.Build(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error building review digest")
		return
	}
	if d.PendingPayments == 0 && d.PendingWithdrawals == 0 {
		log.Info().Msg("No pending reviews, skipping digest")
		return
	}

	s.Notifier.EmailAdmin(ctx, "Daily review digest",
		fmt.Sprintf("Payments awaiting approval: %d\nWithdrawals awaiting approval: %d\n",
			d.PendingPayments, d.PendingWithdrawals))
	log.Info().Int64("pending_payments", d.PendingPayments).Int64("pending_withdrawals", d.PendingWithdrawals).Msg("Review digest sent")
}

// StartScheduler runs SendDigest on spec. The caller stops the returned cron.
func (s *DigestService) StartScheduler(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Info().Msg("Running scheduled review digest task...")
		s.SendDigest(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("error scheduling digest task: %w", err)
	}
	c.Start()
	log.Info().Str("spec", spec).Msg("Review digest scheduler started")
	return c, nil
}
