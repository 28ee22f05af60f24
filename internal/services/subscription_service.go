package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/lifecycle"
	"investment-service/internal/models"
	"investment-service/internal/notify"
	"investment-service/internal/storage"
	"investment-service/pkg/common"
)

type SubscriptionService struct {
	DB       *gorm.DB
	Store    storage.ObjectStore
	Notifier notify.Notifier
	Now      Clock
}

func NewSubscriptionService(db *gorm.DB, store storage.ObjectStore, notifier notify.Notifier) *SubscriptionService {
	return &SubscriptionService{DB: db, Store: store, Notifier: notifier, Now: SystemClock}
}

type PurchaseInput struct {
	PackageId        int     `json:"package_id" binding:"required"`
	InvestmentAmount float64 `json:"investment_amount" binding:"required"`
}

type PurchaseResult struct {
	SubscriptionId int    `json:"user_package_id"`
	PackageName    string `json:"package_name"`
}

type BankDetailsInput struct {
	DepositorName   string  `json:"depositor_name" binding:"required,max=120"`
	DepositorBank   string  `json:"depositor_bank" binding:"required,max=120"`
	DepositedAmount float64 `json:"deposited_amount" binding:"required,gt=0"`
}

// Purchase creates a pending subscription for userID.
func (s *SubscriptionService) Purchase(ctx context.Context, userID int, in PurchaseInput) (PurchaseResult, error) {
	db := s.DB.WithContext(ctx)

	var pkg models.Package
	if err := db.First(&pkg, in.PackageId).Error; err != nil {
		return PurchaseResult{}, lookupErr(err, "Package not found")
	}
	if err := lifecycle.ValidateInvestment(&pkg, in.InvestmentAmount); err != nil {
		return PurchaseResult{}, err
	}

	sub := models.Subscription{
		UserId:           userID,
		PackageId:        pkg.ID,
		InvestmentAmount: common.RoundMoney(in.InvestmentAmount),
		Status:           models.SubscriptionPending,
		PurchaseDate:     s.Now(),
	}
	if err := db.Create(&sub).Error; err != nil {
		return PurchaseResult{}, dbFailure(err)
	}

	log.Info().Int("subscription_id", sub.ID).Int("user_id", userID).Int("package_id", pkg.ID).Msg("Package selected")
	return PurchaseResult{SubscriptionId: sub.ID, PackageName: pkg.Name}, nil
}

// Cancel deletes a pending selection that has no payment evidence yet.
func (s *SubscriptionService) Cancel(ctx context.Context, userID, subscriptionID int) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := ownedSubscription(tx, userID, subscriptionID)
		if err != nil {
			return err
		}
		if err := lifecycle.CanCancel(sub); err != nil {
			return err
		}

		if err := tx.Where("subscription_id = ?", sub.ID).Delete(&models.WithdrawalRequest{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND status = ? AND payment_method = ? AND payment_proof_url IS NULL AND depositor_name IS NULL",
			sub.ID, models.SubscriptionPending, models.PaymentMethodNone).
			Delete(&models.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.StateConflict("Cannot cancel this package. It may have already been processed or paid for.")
		}
		return nil
	})
	if err != nil {
		return dbFailure(err)
	}

	log.Info().Int("subscription_id", subscriptionID).Int("user_id", userID).Msg("Selection cancelled")
	return nil
}

// AttachProof uploads a crypto payment proof for a pending subscription.
func (s *SubscriptionService) AttachProof(ctx context.Context, userID, subscriptionID int, file storage.File) error {
	sub, err := ownedSubscription(s.DB.WithContext(ctx), userID, subscriptionID)
	if err != nil {
		return err
	}
	if err := lifecycle.CanAttachEvidence(sub); err != nil {
		return err
	}
	if s.Store == nil {
		return common.DependencyFailure("object storage is not configured", nil)
	}

	url, err := s.Store.Upload(ctx, storage.FolderPaymentProofs, file)
	if err != nil {
		log.Error().Err(err).Int("subscription_id", sub.ID).Msg("Payment proof upload failed")
		return common.DependencyFailure("proof upload failed", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return guardedUpdate(tx, &models.Subscription{}, sub.ID, string(models.SubscriptionPending), map[string]interface{}{
			"payment_proof_url": url,
			"payment_method":    models.PaymentMethodCrypto,
		}, "attach_proof")
	})
	if err != nil {
		return dbFailure(err)
	}

	log.Info().Int("subscription_id", sub.ID).Str("url", url).Msg("Payment proof submitted")
	s.Notifier.EmailAdmin(ctx, "New crypto payment proof",
		fmt.Sprintf("Subscription #%d (%s) has a new payment proof awaiting review: %s",
			sub.ID, lifecycle.FormatAmount(sub.InvestmentAmount), url))
	return nil
}

// SubmitBankDetails records the depositor details of a bank transfer.
func (s *SubscriptionService) SubmitBankDetails(ctx context.Context, userID, subscriptionID int, in BankDetailsInput) error {
	name := strings.TrimSpace(in.DepositorName)
	bank := strings.TrimSpace(in.DepositorBank)
	if name == "" || bank == "" {
		return common.ValidationError("Depositor name and bank are required")
	}
	if in.DepositedAmount <= 0 {
		return common.ValidationError("Invalid deposited amount")
	}

	var sub *models.Subscription
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = ownedSubscription(tx, userID, subscriptionID)
		if err != nil {
			return err
		}
		if err := lifecycle.CanAttachEvidence(sub); err != nil {
			return err
		}
		return guardedUpdate(tx, &models.Subscription{}, sub.ID, string(models.SubscriptionPending), map[string]interface{}{
			"depositor_name":   name,
			"depositor_bank":   bank,
			"deposited_amount": common.RoundMoney(in.DepositedAmount),
			"payment_method":   models.PaymentMethodBankTransfer,
		}, "submit_bank_details")
	})
	if err != nil {
		return dbFailure(err)
	}

	log.Info().Int("subscription_id", sub.ID).Msg("Bank transfer details submitted")
	s.Notifier.EmailAdmin(ctx, "New bank transfer submitted",
		fmt.Sprintf("Subscription #%d: %s paid %s from %s. Awaiting review.",
			sub.ID, name, lifecycle.FormatAmount(in.DepositedAmount), bank))
	return nil
}

// dashboardStatuses covers every lifecycle state so closed subscriptions
// stay visible next to the active ones.
var dashboardStatuses = []models.SubscriptionStatus{
	models.SubscriptionPending,
	models.SubscriptionPaid,
	models.SubscriptionExpired,
	models.SubscriptionRejected,
	models.SubscriptionWithdrawn,
}

// Dashboard lists the user's subscriptions in any lifecycle state, newest first.
func (s *SubscriptionService) Dashboard(ctx context.Context, userID int) ([]SubscriptionView, error) {
	return s.list(ctx, userID, dashboardStatuses)
}

// History lists every subscription of the user, newest first.
func (s *SubscriptionService) History(ctx context.Context, userID int) ([]SubscriptionView, error) {
	return s.list(ctx, userID, nil)
}

func (s *SubscriptionService) list(ctx context.Context, userID int, statuses []models.SubscriptionStatus) ([]SubscriptionView, error) {
	query := s.DB.WithContext(ctx).Preload("Package").Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var subs []models.Subscription
	if err := query.Order("purchase_date desc").Order("id desc").Find(&subs).Error; err != nil {
		return nil, dbFailure(err)
	}

	views := make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, newSubscriptionView(sub))
	}
	return views, nil
}

// ownedSubscription loads a subscription of userID. Other users' rows are reported as missing.
func ownedSubscription(db *gorm.DB, userID, subscriptionID int) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.Where("id = ? AND user_id = ?", subscriptionID, userID).First(&sub).Error; err != nil {
		return nil, lookupErr(err, "Package not found")
	}
	return &sub, nil
}
