package models

import (
	"time"
)

type User struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramId   int64     `gorm:"column:telegram_id;not null;uniqueIndex" json:"telegram_id"`
	Username     *string   `gorm:"column:username;size:80" json:"username"`
	FirstName    string    `gorm:"column:first_name;size:80;not null" json:"first_name"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	ReferralCode string    `gorm:"column:referral_code;size:10;not null;uniqueIndex" json:"referral_code"`
	ReferredById *int      `gorm:"column:referred_by_id;index" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}
