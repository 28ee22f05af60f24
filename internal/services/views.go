package services

import (
	"time"

	"investment-service/internal/models"
)

// SubscriptionView is the user facing shape of a subscription.
type SubscriptionView struct {
	SubscriptionId            int                       `json:"user_package_id"`
	PackageName               string                    `json:"package_name"`
	InvestmentAmount          float64                   `json:"investment_amount"`
	TotalWithdrawn            float64                   `json:"total_withdrawn"`
	PackageDividendPercentage float64                   `json:"package_dividend_percentage"`
	Status                    models.SubscriptionStatus `json:"status"`
	PurchaseDate              time.Time                 `json:"purchase_date"`
	ActivationDate            *time.Time                `json:"activation_date"`
	ExpiryDate                *time.Time                `json:"expiry_date"`
	RejectionReason           *string                   `json:"rejection_reason"`
	PaymentMethod             models.PaymentMethod      `json:"payment_method"`
}

func newSubscriptionView(sub models.Subscription) SubscriptionView {
	view := SubscriptionView{
		SubscriptionId:   sub.ID,
		InvestmentAmount: sub.InvestmentAmount,
		TotalWithdrawn:   sub.TotalWithdrawn,
		Status:           sub.Status,
		PurchaseDate:     sub.PurchaseDate,
		ActivationDate:   sub.ActivationDate,
		ExpiryDate:       sub.ExpiryDate,
		RejectionReason:  sub.RejectionReason,
		PaymentMethod:    sub.PaymentMethod,
	}
	if sub.Package != nil {
		view.PackageName = sub.Package.Name
		view.PackageDividendPercentage = sub.Package.DividendPercentage
	}
	return view
}

// PendingPaymentView is a subscription awaiting admin review.
type PendingPaymentView struct {
	SubscriptionId   int                  `json:"user_package_id"`
	UserName         string               `json:"user_name"`
	TelegramId       int64                `json:"telegram_id"`
	PackageName      string               `json:"package_name"`
	InvestmentAmount float64              `json:"investment_amount"`
	PurchaseDate     time.Time            `json:"purchase_date"`
	PaymentMethod    models.PaymentMethod `json:"payment_method"`
	PaymentProofUrl  *string              `json:"payment_proof_url,omitempty"`
	DepositorName    *string              `json:"depositor_name,omitempty"`
	DepositorBank    *string              `json:"depositor_bank,omitempty"`
	DepositedAmount  *float64             `json:"deposited_amount,omitempty"`
}

func newPendingPaymentView(sub models.Subscription) PendingPaymentView {
	view := PendingPaymentView{
		SubscriptionId:   sub.ID,
		InvestmentAmount: sub.InvestmentAmount,
		PurchaseDate:     sub.PurchaseDate,
		PaymentMethod:    sub.PaymentMethod,
	}
	if sub.User != nil {
		view.UserName = sub.User.FirstName
		view.TelegramId = sub.User.TelegramId
	}
	if sub.Package != nil {
		view.PackageName = sub.Package.Name
	}
	switch sub.PaymentMethod {
	case models.PaymentMethodCrypto:
		view.PaymentProofUrl = sub.PaymentProofUrl
	case models.PaymentMethodBankTransfer:
		view.DepositorName = sub.DepositorName
		view.DepositorBank = sub.DepositorBank
		view.DepositedAmount = sub.DepositedAmount
	}
	return view
}

// AdminHistoryItem is one row of the admin review history.
type AdminHistoryItem struct {
	SubscriptionId int                       `json:"user_package_id"`
	UserName       string                    `json:"user_name"`
	PackageName    string                    `json:"package_name"`
	Status         models.SubscriptionStatus `json:"status"`
	Date           time.Time                 `json:"date"`
	Reason         *string                   `json:"reason"`
}

func newAdminHistoryItem(sub models.Subscription) AdminHistoryItem {
	item := AdminHistoryItem{
		SubscriptionId: sub.ID,
		Status:         sub.Status,
		Date:           sub.PurchaseDate,
		Reason:         sub.RejectionReason,
	}
	if sub.ActivationDate != nil {
		item.Date = *sub.ActivationDate
	}
	if sub.User != nil {
		item.UserName = sub.User.FirstName
	}
	if sub.Package != nil {
		item.PackageName = sub.Package.Name
	}
	return item
}

// WithdrawalView is the shape of a withdrawal request shown to users and admins.
type WithdrawalView struct {
	WithdrawalId     int                     `json:"withdrawal_id"`
	SubscriptionId   int                     `json:"user_package_id"`
	UserName         string                  `json:"user_name"`
	PackageName      string                  `json:"package_name"`
	Amount           float64                 `json:"amount"`
	Status           models.WithdrawalStatus `json:"status"`
	RequestDate      time.Time               `json:"request_date"`
	ProcessedAt      *time.Time              `json:"processed_at,omitempty"`
	WithdrawalMethod models.PaymentMethod    `json:"withdrawal_method"`
	AccountName      *string                 `json:"account_name,omitempty"`
	AccountNumber    *string                 `json:"account_number,omitempty"`
	BankName         *string                 `json:"bank_name,omitempty"`
	WalletAddress    *string                 `json:"wallet_address,omitempty"`
	CryptoNetwork    *string                 `json:"crypto_network,omitempty"`
}

func newWithdrawalView(w models.WithdrawalRequest) WithdrawalView {
	view := WithdrawalView{
		WithdrawalId:     w.ID,
		SubscriptionId:   w.SubscriptionId,
		Amount:           w.Amount,
		Status:           w.Status,
		RequestDate:      w.RequestDate,
		ProcessedAt:      w.ProcessedAt,
		WithdrawalMethod: w.WithdrawalMethod,
	}
	if w.User != nil {
		view.UserName = w.User.FirstName
	}
	if w.Subscription != nil && w.Subscription.Package != nil {
		view.PackageName = w.Subscription.Package.Name
	}
	switch w.WithdrawalMethod {
	case models.PaymentMethodBankTransfer:
		view.AccountName = w.AccountName
		view.AccountNumber = w.AccountNumber
		view.BankName = w.BankName
	case models.PaymentMethodCrypto:
		view.WalletAddress = w.WalletAddress
		view.CryptoNetwork = w.CryptoNetwork
	}
	return view
}
