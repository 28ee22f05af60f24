package models

import (
	"time"
)

type WithdrawalRequest struct {
	ID               int              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId           int              `gorm:"column:user_id;not null;index:idx_withdrawal_user" json:"user_id"`
	SubscriptionId   int              `gorm:"column:subscription_id;not null;index:idx_withdrawal_subscription" json:"subscription_id"`
	Amount           float64          `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Status           WithdrawalStatus `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	RequestDate      time.Time        `gorm:"column:request_date;not null" json:"request_date"`
	ProcessedAt      *time.Time       `gorm:"column:processed_at" json:"processed_at"`
	WithdrawalMethod PaymentMethod    `gorm:"column:withdrawal_method;size:50;not null" json:"withdrawal_method"`
	AccountName      *string          `gorm:"column:account_name;size:120" json:"account_name,omitempty"`
	AccountNumber    *string          `gorm:"column:account_number;size:50" json:"account_number,omitempty"`
	BankName         *string          `gorm:"column:bank_name;size:120" json:"bank_name,omitempty"`
	WalletAddress    *string          `gorm:"column:wallet_address;size:255" json:"wallet_address,omitempty"`
	CryptoNetwork    *string          `gorm:"column:crypto_network;size:50" json:"crypto_network,omitempty"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"-"`

	User         *User         `gorm:"foreignKey:UserId" json:"-"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionId" json:"-"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
