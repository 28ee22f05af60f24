package models

// SubscriptionStatus is the lifecycle state of a user's package subscription.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionPaid      SubscriptionStatus = "paid"
	SubscriptionRejected  SubscriptionStatus = "rejected"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionWithdrawn SubscriptionStatus = "withdrawn"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionPending:   {SubscriptionPaid, SubscriptionRejected},
	SubscriptionPaid:      {SubscriptionExpired},
	SubscriptionExpired:   {SubscriptionWithdrawn, SubscriptionPaid},
	SubscriptionRejected:  {},
	SubscriptionWithdrawn: {},
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Valid() bool {
	_, ok := subscriptionTransitions[s]
	return ok
}

// Terminal reports whether no further transitions apply.
func (s SubscriptionStatus) Terminal() bool {
	return len(subscriptionTransitions[s]) == 0 && s.Valid()
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) String() string {
	return string(s)
}

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected:
		return true
	}
	return false
}

func (s WithdrawalStatus) CanTransitionTo(target WithdrawalStatus) bool {
	return s == WithdrawalPending && (target == WithdrawalApproved || target == WithdrawalRejected)
}

// PaymentMethod tags the kind of payment evidence attached to a subscription.
type PaymentMethod string

const (
	PaymentMethodNone         PaymentMethod = ""
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCrypto || m == PaymentMethodBankTransfer
}
