package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/lifecycle"
	"investment-service/internal/metrics"
	"investment-service/internal/models"
	"investment-service/internal/notify"
	"investment-service/pkg/common"
)

const defaultHistoryLimit = 20

type AdminService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Now      Clock
}

func NewAdminService(db *gorm.DB, notifier notify.Notifier) *AdminService {
	return &AdminService{DB: db, Notifier: notifier, Now: SystemClock}
}

// PendingPayments lists pending subscriptions that carry payment evidence, oldest first.
func (s *AdminService) PendingPayments(ctx context.Context) ([]PendingPaymentView, error) {
	var subs []models.Subscription
	err := s.DB.WithContext(ctx).
		Preload("User").Preload("Package").
		Where("status = ?", models.SubscriptionPending).
		Where("payment_proof_url IS NOT NULL OR depositor_name IS NOT NULL").
		Order("purchase_date asc").Order("id asc").
		Find(&subs).Error
	if err != nil {
		return nil, dbFailure(err)
	}

	views := make([]PendingPaymentView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, newPendingPaymentView(sub))
	}
	return views, nil
}

// History pages through reviewed subscriptions, newest first.
func (s *AdminService) History(ctx context.Context, page, limit int) (common.PaginationResult, error) {
	page, limit, offset := common.NormalizePage(page, limit, defaultHistoryLimit)
	statuses := []models.SubscriptionStatus{
		models.SubscriptionPaid,
		models.SubscriptionRejected,
		models.SubscriptionExpired,
		models.SubscriptionWithdrawn,
	}

	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Subscription{}).Where("status IN ?", statuses).Count(&total).Error; err != nil {
		return common.PaginationResult{}, dbFailure(err)
	}

	var subs []models.Subscription
	err := db.Preload("User").Preload("Package").
		Where("status IN ?", statuses).
		Order("purchase_date desc").Order("id desc").
		Limit(limit).Offset(offset).
		Find(&subs).Error
	if err != nil {
		return common.PaginationResult{}, dbFailure(err)
	}

	items := make([]AdminHistoryItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, newAdminHistoryItem(sub))
	}
	return common.PaginateResponse(items, total, page, limit, "Review history fetched"), nil
}

// Approve activates a pending subscription.
func (s *AdminService) Approve(ctx context.Context, subscriptionID int) (*models.Subscription, error) {
	now := s.Now()
	var sub models.Subscription

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Package").Preload("User").First(&sub, subscriptionID).Error; err != nil {
			return lookupErr(err, "Package not found")
		}
		if sub.Package == nil {
			return common.NotFound("Package not found")
		}
		if err := lifecycle.Approve(&sub, sub.Package, now); err != nil {
			metrics.RecordConflict("approve")
			return err
		}
		return guardedUpdate(tx, &models.Subscription{}, sub.ID, string(models.SubscriptionPending), map[string]interface{}{
			"status":          sub.Status,
			"activation_date": sub.ActivationDate,
			"expiry_date":     sub.ExpiryDate,
			"approved_at":     sub.ApprovedAt,
		}, "approve")
	})
	if err != nil {
		return nil, dbFailure(err)
	}

	metrics.RecordTransition("subscription", string(models.SubscriptionPending), string(models.SubscriptionPaid))
	log.Info().Int("subscription_id", sub.ID).Time("expiry_date", *sub.ExpiryDate).Msg("Payment approved")
	if sub.User != nil {
		s.Notifier.MessageUser(ctx, sub.User.TelegramId,
			fmt.Sprintf("Your payment of %s for %s has been approved. Your package is active until %s.",
				lifecycle.FormatAmount(sub.InvestmentAmount), sub.Package.Name, sub.ExpiryDate.Format("2006-01-02")))
	}
	return &sub, nil
}

// Reject closes a pending subscription with a reason shown to the user.
func (s *AdminService) Reject(ctx context.Context, subscriptionID int, reason string) (*models.Subscription, error) {
	var sub models.Subscription

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Package").Preload("User").First(&sub, subscriptionID).Error; err != nil {
			return lookupErr(err, "Package not found")
		}
		if err := lifecycle.Reject(&sub, reason); err != nil {
			return err
		}
		return guardedUpdate(tx, &models.Subscription{}, sub.ID, string(models.SubscriptionPending), map[string]interface{}{
			"status":           sub.Status,
			"rejection_reason": sub.RejectionReason,
		}, "reject")
	})
	if err != nil {
		return nil, dbFailure(err)
	}

	metrics.RecordTransition("subscription", string(models.SubscriptionPending), string(models.SubscriptionRejected))
	log.Info().Int("subscription_id", sub.ID).Msg("Payment rejected")
	if sub.User != nil {
		s.Notifier.MessageUser(ctx, sub.User.TelegramId,
			fmt.Sprintf("Your payment for subscription #%d was rejected: %s", sub.ID, *sub.RejectionReason))
	}
	return &sub, nil
}
