package services

import (
	"context"

	"gorm.io/gorm"

	"investment-service/internal/lifecycle"
	"investment-service/internal/models"
)

type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

type ReferralView struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
}

type ReferralSummary struct {
	ReferralCode     string         `json:"referral_code"`
	Referrals        []ReferralView `json:"referrals"`
	CommissionEarned float64        `json:"commission_earned"`
}

// Summary lists the users referred by userID and the commission earned on
// the first approved subscription of each.
func (s *ReferralService) Summary(ctx context.Context, userID int) (ReferralSummary, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return ReferralSummary{}, lookupErr(err, "User not found")
	}

	var referred []models.User
	if err := db.Where("referred_by_id = ?", user.ID).Order("id asc").Find(&referred).Error; err != nil {
		return ReferralSummary{}, dbFailure(err)
	}

	summary := ReferralSummary{
		ReferralCode: user.ReferralCode,
		Referrals:    make([]ReferralView, 0, len(referred)),
	}
	if len(referred) == 0 {
		return summary, nil
	}

	ids := make([]int, 0, len(referred))
	for _, r := range referred {
		ids = append(ids, r.ID)
		summary.Referrals = append(summary.Referrals, ReferralView{ID: r.ID, FirstName: r.FirstName})
	}

	var subs []models.Subscription
	if err := db.Where("user_id IN ? AND approved_at IS NOT NULL", ids).Find(&subs).Error; err != nil {
		return ReferralSummary{}, dbFailure(err)
	}
	summary.CommissionEarned = lifecycle.ReferralCommission(subs)
	return summary, nil
}
