package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/lifecycle"
	"investment-service/internal/metrics"
	"investment-service/internal/models"
	"investment-service/internal/notify"
	"investment-service/pkg/common"
)

type WithdrawalService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	Now      Clock
}

func NewWithdrawalService(db *gorm.DB, notifier notify.Notifier) *WithdrawalService {
	return &WithdrawalService{DB: db, Notifier: notifier, Now: SystemClock}
}

type WithdrawRequestDTO struct {
	SubscriptionId   int                  `json:"user_package_id" binding:"required"`
	Amount           float64              `json:"amount"`
	WithdrawalMethod models.PaymentMethod `json:"withdrawal_method"`
	AccountName      string               `json:"account_name"`
	AccountNumber    string               `json:"account_number"`
	BankName         string               `json:"bank_name"`
	WalletAddress    string               `json:"wallet_address"`
	CryptoNetwork    string               `json:"crypto_network"`
}

type ApproveWithdrawalResult struct {
	WithdrawalId       int                       `json:"withdrawal_id"`
	SubscriptionStatus models.SubscriptionStatus `json:"package_status"`
	TotalWithdrawn     float64                   `json:"total_withdrawn"`
}

// payoutDetails validates the method specific fields and copies them onto w.
func payoutDetails(data WithdrawRequestDTO, w *models.WithdrawalRequest) error {
	trim := strings.TrimSpace
	switch data.WithdrawalMethod {
	case models.PaymentMethodBankTransfer:
		if trim(data.AccountName) == "" || trim(data.AccountNumber) == "" || trim(data.BankName) == "" {
			return common.ValidationError("Bank details are required.")
		}
		w.AccountName = common.StringPtr(trim(data.AccountName))
		w.AccountNumber = common.StringPtr(trim(data.AccountNumber))
		w.BankName = common.StringPtr(trim(data.BankName))
	case models.PaymentMethodCrypto:
		if trim(data.WalletAddress) == "" || trim(data.CryptoNetwork) == "" {
			return common.ValidationError("Wallet address and network are required.")
		}
		w.WalletAddress = common.StringPtr(trim(data.WalletAddress))
		w.CryptoNetwork = common.StringPtr(trim(data.CryptoNetwork))
	default:
		return common.ValidationError("Invalid withdrawal method.")
	}
	w.WithdrawalMethod = data.WithdrawalMethod
	return nil
}

// RequestWithdrawal moves a matured subscription to expired and files a
// pending withdrawal for it in the same transaction.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID int, data WithdrawRequestDTO) (*models.WithdrawalRequest, error) {
	now := s.Now()
	var withdrawal models.WithdrawalRequest
	var sub *models.Subscription

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = ownedSubscription(tx.Preload("Package"), userID, data.SubscriptionId)
		if err != nil {
			return err
		}
		if sub.Package == nil {
			return common.NotFound("Package not found")
		}
		if err := lifecycle.CheckMatured(sub, now); err != nil {
			return err
		}
		amount := common.RoundMoney(data.Amount)
		if err := lifecycle.ValidateWithdrawalAmount(sub, sub.Package, amount); err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("subscription_id = ? AND status = ?", sub.ID, models.WithdrawalPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return common.StateConflict("A pending withdrawal request for this package already exists.")
		}

		withdrawal = models.WithdrawalRequest{
			UserId:         sub.UserId,
			SubscriptionId: sub.ID,
			Amount:         amount,
			Status:         models.WithdrawalPending,
			RequestDate:    now,
		}
		if err := payoutDetails(data, &withdrawal); err != nil {
			return err
		}

		from := sub.Status
		if err := lifecycle.BeginWithdrawal(sub, now); err != nil {
			return err
		}
		if err := guardedUpdate(tx, &models.Subscription{}, sub.ID, string(from), map[string]interface{}{
			"status": sub.Status,
		}, "request_withdrawal"); err != nil {
			return err
		}
		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		return nil, dbFailure(err)
	}

	metrics.RecordTransition("subscription", string(models.SubscriptionPaid), string(models.SubscriptionExpired))
	log.Info().Int("withdrawal_id", withdrawal.ID).Int("subscription_id", sub.ID).Float64("amount", withdrawal.Amount).Msg("Withdrawal requested")
	s.Notifier.EmailAdmin(ctx, "New withdrawal request",
		fmt.Sprintf("Withdrawal #%d of %s for subscription #%d via %s is awaiting approval.",
			withdrawal.ID, lifecycle.FormatAmount(withdrawal.Amount), sub.ID, withdrawal.WithdrawalMethod))
	return &withdrawal, nil
}

// ApproveWithdrawal settles a pending withdrawal. The subscription is closed
// once the investment is paid out and reactivated for another cycle otherwise.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID int) (ApproveWithdrawalResult, error) {
	now := s.Now()
	var result ApproveWithdrawalResult
	var sub models.Subscription
	orphaned := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.WithdrawalRequest
		if err := tx.First(&w, withdrawalID).Error; err != nil {
			return lookupErr(err, "Withdrawal request not found")
		}
		if w.Status != models.WithdrawalPending {
			return common.StateConflict("This withdrawal request is not pending.")
		}

		err := tx.Preload("Package").Preload("User").First(&sub, w.SubscriptionId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			orphaned = true
			return guardedUpdate(tx, &models.WithdrawalRequest{}, w.ID, string(models.WithdrawalPending), map[string]interface{}{
				"status":       models.WithdrawalRejected,
				"processed_at": now,
			}, "approve_withdrawal")
		}
		if err != nil {
			return err
		}
		if sub.Package == nil {
			return common.NotFound("Package not found")
		}

		if err := lifecycle.Settle(&sub, sub.Package, w.Amount, now); err != nil {
			return err
		}
		if err := guardedUpdate(tx, &models.Subscription{}, sub.ID, string(models.SubscriptionExpired), map[string]interface{}{
			"status":          sub.Status,
			"total_withdrawn": sub.TotalWithdrawn,
			"activation_date": sub.ActivationDate,
			"expiry_date":     sub.ExpiryDate,
		}, "approve_withdrawal"); err != nil {
			return err
		}
		if err := guardedUpdate(tx, &models.WithdrawalRequest{}, w.ID, string(models.WithdrawalPending), map[string]interface{}{
			"status":       models.WithdrawalApproved,
			"processed_at": now,
		}, "approve_withdrawal"); err != nil {
			return err
		}

		result = ApproveWithdrawalResult{
			WithdrawalId:       w.ID,
			SubscriptionStatus: sub.Status,
			TotalWithdrawn:     sub.TotalWithdrawn,
		}
		return nil
	})
	if err != nil {
		return ApproveWithdrawalResult{}, dbFailure(err)
	}

	if orphaned {
		metrics.RecordTransition("withdrawal", string(models.WithdrawalPending), string(models.WithdrawalRejected))
		log.Warn().Int("withdrawal_id", withdrawalID).Msg("Rejected withdrawal for missing subscription")
		return ApproveWithdrawalResult{}, common.NotFound("Associated user package not found. Request rejected.")
	}

	metrics.RecordTransition("withdrawal", string(models.WithdrawalPending), string(models.WithdrawalApproved))
	metrics.RecordTransition("subscription", string(models.SubscriptionExpired), string(sub.Status))
	log.Info().Int("withdrawal_id", withdrawalID).Int("subscription_id", sub.ID).Str("status", string(sub.Status)).Msg("Withdrawal approved")

	if sub.User != nil {
		text := fmt.Sprintf("Your withdrawal has been approved. Total withdrawn so far: %s.", lifecycle.FormatAmount(sub.TotalWithdrawn))
		if sub.Status == models.SubscriptionPaid && sub.ExpiryDate != nil {
			text += fmt.Sprintf(" Your package is active again until %s.", sub.ExpiryDate.Format("2006-01-02"))
		}
		s.Notifier.MessageUser(ctx, sub.User.TelegramId, text)
	}
	return result, nil
}

// ListPending returns pending withdrawals, oldest first.
func (s *WithdrawalService) ListPending(ctx context.Context) ([]WithdrawalView, error) {
	return s.list(s.DB.WithContext(ctx).
		Where("status = ?", models.WithdrawalPending).
		Order("request_date asc").Order("id asc"))
}

// ListForUser returns every withdrawal of userID, newest first.
func (s *WithdrawalService) ListForUser(ctx context.Context, userID int) ([]WithdrawalView, error) {
	return s.list(s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("request_date desc").Order("id desc"))
}

func (s *WithdrawalService) list(query *gorm.DB) ([]WithdrawalView, error) {
	var withdrawals []models.WithdrawalRequest
	if err := query.Preload("User").Preload("Subscription.Package").Find(&withdrawals).Error; err != nil {
		return nil, dbFailure(err)
	}
	views := make([]WithdrawalView, 0, len(withdrawals))
	for _, w := range withdrawals {
		views = append(views, newWithdrawalView(w))
	}
	return views, nil
}
