// Package lifecycle holds the subscription and withdrawal state machine.
// Functions here mutate in-memory models only; callers persist the result
// with a status-guarded update so concurrent requests cannot both succeed.
package lifecycle

import (
	"strings"
	"time"

	"investment-service/internal/models"
	"investment-service/pkg/common"
)

// ReferralCommissionRate is paid on the first approved subscription of each referred user.
const ReferralCommissionRate = 0.02

// ExpiryDate adds businessDays weekdays to start. Counting begins on the day after
// start and Saturdays and Sundays are skipped. The time of day is kept.
func ExpiryDate(start time.Time, businessDays int) time.Time {
	current := start
	added := 0
	for added < businessDays {
		current = current.AddDate(0, 0, 1)
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return current
}

// DividendBound is the largest amount that may be requested in one withdrawal.
func DividendBound(investmentAmount, dividendPercentage float64) float64 {
	return common.RoundMoney(investmentAmount * (dividendPercentage / 100))
}

// ValidateInvestment checks amount against the package price band.
func ValidateInvestment(pkg *models.Package, amount float64) error {
	if amount <= 0 {
		return common.ValidationError("Invalid investment amount")
	}
	if amount < pkg.MinPrice {
		return common.ValidationError("Investment must be at least %s", FormatAmount(pkg.MinPrice))
	}
	if pkg.MaxPrice != nil && *pkg.MaxPrice > 0 && amount > *pkg.MaxPrice {
		return common.ValidationError("Investment cannot exceed %s", FormatAmount(*pkg.MaxPrice))
	}
	return nil
}

func conflictUnless(sub *models.Subscription, target models.SubscriptionStatus, message string) error {
	if !sub.Status.CanTransitionTo(target) {
		return common.StateConflict("%s", message)
	}
	return nil
}

// Approve moves a pending subscription to paid and starts its first earning cycle.
func Approve(sub *models.Subscription, pkg *models.Package, now time.Time) error {
	if sub.Status != models.SubscriptionPending {
		return common.StateConflict("Package is not in a 'pending' state")
	}
	activate(sub, pkg, now)
	if sub.ApprovedAt == nil {
		approvedAt := now
		sub.ApprovedAt = &approvedAt
	}
	return nil
}

// Reject moves a pending subscription to rejected. reason must not be blank.
func Reject(sub *models.Subscription, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return common.ValidationError("A rejection reason is required")
	}
	if len(reason) > 255 {
		return common.ValidationError("Rejection reason must be at most 255 characters")
	}
	if sub.Status != models.SubscriptionPending {
		return common.StateConflict("Package is not in a 'pending' state")
	}
	sub.Status = models.SubscriptionRejected
	sub.RejectionReason = &reason
	return nil
}

// CanCancel reports whether the owner may still delete the selection.
func CanCancel(sub *models.Subscription) error {
	if sub.Status != models.SubscriptionPending || sub.HasPaymentEvidence() {
		return common.StateConflict("Cannot cancel this package. It may have already been processed or paid for.")
	}
	return nil
}

// CanAttachEvidence reports whether payment evidence may be attached.
func CanAttachEvidence(sub *models.Subscription) error {
	if sub.Status != models.SubscriptionPending {
		return common.StateConflict("Payment details can only be submitted for a pending package")
	}
	return nil
}

// CheckMatured fails unless the subscription is paid and its expiry date has passed.
func CheckMatured(sub *models.Subscription, now time.Time) error {
	if sub.Status != models.SubscriptionPaid || sub.ExpiryDate == nil || sub.ExpiryDate.After(now) {
		return common.StateConflict("Withdrawal is not yet available for this package.")
	}
	return nil
}

// ValidateWithdrawalAmount enforces the dividend bound and keeps
// total_withdrawn from exceeding the investment.
func ValidateWithdrawalAmount(sub *models.Subscription, pkg *models.Package, amount float64) error {
	if amount <= 0 {
		return common.ValidationError("Invalid withdrawal amount provided.")
	}
	bound := DividendBound(sub.InvestmentAmount, pkg.DividendPercentage)
	if amount > bound {
		return common.ValidationError("Withdrawal amount cannot exceed the earned dividend of %s.", FormatAmount(bound))
	}
	remaining := common.RoundMoney(sub.InvestmentAmount - sub.TotalWithdrawn)
	if amount > remaining {
		return common.ValidationError("Withdrawal amount cannot exceed the remaining balance of %s.", FormatAmount(remaining))
	}
	return nil
}

// BeginWithdrawal moves a matured paid subscription to expired.
func BeginWithdrawal(sub *models.Subscription, now time.Time) error {
	if err := CheckMatured(sub, now); err != nil {
		return err
	}
	if err := conflictUnless(sub, models.SubscriptionExpired, "Withdrawal is not yet available for this package."); err != nil {
		return err
	}
	sub.Status = models.SubscriptionExpired
	return nil
}

// Settle applies an approved withdrawal of amount. The subscription ends as
// withdrawn once the investment has been paid out, otherwise it is reactivated
// for another cycle.
func Settle(sub *models.Subscription, pkg *models.Package, amount float64, now time.Time) error {
	if sub.Status != models.SubscriptionExpired {
		return common.StateConflict("Package is not awaiting a withdrawal")
	}
	total := common.RoundMoney(sub.TotalWithdrawn + amount)
	if total > sub.InvestmentAmount {
		return common.ValidationError("Withdrawal would exceed the investment amount")
	}
	sub.TotalWithdrawn = total
	if total >= sub.InvestmentAmount {
		sub.Status = models.SubscriptionWithdrawn
		return nil
	}
	activate(sub, pkg, now)
	return nil
}

func activate(sub *models.Subscription, pkg *models.Package, now time.Time) {
	activation := now
	expiry := ExpiryDate(now, pkg.DurationDays)
	sub.Status = models.SubscriptionPaid
	sub.ActivationDate = &activation
	sub.ExpiryDate = &expiry
}

// ReferralCommission sums the commission over the first approved subscription
// of every referred user. Subscriptions never approved are ignored.
func ReferralCommission(subs []models.Subscription) float64 {
	first := make(map[int]models.Subscription)
	for _, sub := range subs {
		if sub.ApprovedAt == nil {
			continue
		}
		current, ok := first[sub.UserId]
		if !ok || sub.ApprovedAt.Before(*current.ApprovedAt) ||
			(sub.ApprovedAt.Equal(*current.ApprovedAt) && sub.ID < current.ID) {
			first[sub.UserId] = sub
		}
	}

	var commission float64
	for _, sub := range first {
		commission += sub.InvestmentAmount * ReferralCommissionRate
	}
	return common.RoundMoney(commission)
}
