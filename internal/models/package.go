package models

import (
	"time"
)

// Package is an admin-defined investment offering.
// A nil MaxPrice means the band is open-ended.
type Package struct {
	ID                 int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string    `gorm:"column:name;size:120;not null" json:"name"`
	MinPrice           float64   `gorm:"column:min_price;type:decimal(20,2);not null" json:"min_price"`
	MaxPrice           *float64  `gorm:"column:max_price;type:decimal(20,2)" json:"max_price"`
	MinPriceUsd        float64   `gorm:"column:min_price_usd;type:decimal(20,2);not null" json:"min_price_usd"`
	MaxPriceUsd        *float64  `gorm:"column:max_price_usd;type:decimal(20,2)" json:"max_price_usd"`
	DurationDays       int       `gorm:"column:duration_days;not null" json:"duration_days"`
	DividendPercentage float64   `gorm:"column:dividend_percentage;type:decimal(6,2);not null;default:10" json:"dividend_percentage"`
	ImageUrl           string    `gorm:"column:image_url;size:255" json:"image_url"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Package) TableName() string {
	return "packages"
}
