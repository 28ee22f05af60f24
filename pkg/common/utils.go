package common

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

// GenerateReferralCode returns 10 lowercase hex characters.
func GenerateReferralCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RoundMoney rounds to two decimal places, matching the decimal(20,2) columns.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func StringPtr(s string) *string {
	return &s
}

func Float64Ptr(f float64) *float64 {
	return &f
}
