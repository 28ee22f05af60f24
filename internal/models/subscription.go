package models

import (
	"time"
)

// Subscription is one purchase of a package by a user.
type Subscription struct {
	ID               int                `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId           int                `gorm:"column:user_id;not null;index:idx_subscription_user" json:"user_id"`
	PackageId        int                `gorm:"column:package_id;not null;index" json:"package_id"`
	InvestmentAmount float64            `gorm:"column:investment_amount;type:decimal(20,2);not null" json:"investment_amount"`
	Status           SubscriptionStatus `gorm:"column:status;size:20;not null;default:pending;index:idx_subscription_status" json:"status"`
	PurchaseDate     time.Time          `gorm:"column:purchase_date;not null" json:"purchase_date"`
	ActivationDate   *time.Time         `gorm:"column:activation_date" json:"activation_date"`
	ExpiryDate       *time.Time         `gorm:"column:expiry_date" json:"expiry_date"`
	ApprovedAt       *time.Time         `gorm:"column:approved_at;index" json:"-"`
	RejectionReason  *string            `gorm:"column:rejection_reason;size:255" json:"rejection_reason"`
	TotalWithdrawn   float64            `gorm:"column:total_withdrawn;type:decimal(20,2);not null;default:0" json:"total_withdrawn"`
	PaymentMethod    PaymentMethod      `gorm:"column:payment_method;size:50;not null;default:''" json:"payment_method"`
	PaymentProofUrl  *string            `gorm:"column:payment_proof_url;size:255" json:"payment_proof_url,omitempty"`
	DepositorName    *string            `gorm:"column:depositor_name;size:120" json:"depositor_name,omitempty"`
	DepositorBank    *string            `gorm:"column:depositor_bank;size:120" json:"depositor_bank,omitempty"`
	DepositedAmount  *float64           `gorm:"column:deposited_amount;type:decimal(20,2)" json:"deposited_amount,omitempty"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"-"`

	User    *User    `gorm:"foreignKey:UserId" json:"-"`
	Package *Package `gorm:"foreignKey:PackageId" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// HasPaymentEvidence reports whether proof or bank details were attached.
func (s *Subscription) HasPaymentEvidence() bool {
	return s.PaymentMethod != PaymentMethodNone || s.PaymentProofUrl != nil || s.DepositorName != nil
}
