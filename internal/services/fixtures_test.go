package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"investment-service/internal/models"
	"investment-service/internal/storage"
	"investment-service/internal/testutil"
	"investment-service/pkg/common"
)

// Friday 2024-05-03 10:00 UTC
var friday = time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)

type sentMessage struct {
	TelegramID int64
	Text       string
}

type recordingNotifier struct {
	mu       sync.Mutex
	emails   []string
	messages []sentMessage
}

func (n *recordingNotifier) EmailAdmin(ctx context.Context, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, subject)
}

func (n *recordingNotifier) MessageUser(ctx context.Context, telegramID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, sentMessage{TelegramID: telegramID, Text: text})
}

type fakeStore struct {
	uploads []string
	err     error
}

func (f *fakeStore) Upload(ctx context.Context, folder string, file storage.File) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file.Body); err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://cdn.example.com/%s/%d.png", folder, len(f.uploads)+1)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func pngFile() storage.File {
	return storage.File{Filename: "proof.png", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte{1, 2, 3, 4})}
}

// testClock is a settable clock shared by the services under test.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type fixture struct {
	db       *gorm.DB
	clock    *testClock
	notifier *recordingNotifier
	store    *fakeStore

	subs        *SubscriptionService
	withdrawals *WithdrawalService
	admin       *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		clock:    &testClock{now: friday},
		notifier: &recordingNotifier{},
		store:    &fakeStore{},
	}
	f.subs = NewSubscriptionService(db, f.store, f.notifier)
	f.subs.Now = f.clock.Now
	f.withdrawals = NewWithdrawalService(db, f.notifier)
	f.withdrawals.Now = f.clock.Now
	f.admin = NewAdminService(db, f.notifier)
	f.admin.Now = f.clock.Now
	return f
}

func (f *fixture) user(t *testing.T, telegramID int64, referredBy *int) models.User {
	t.Helper()
	u := models.User{
		TelegramId:   telegramID,
		FirstName:    fmt.Sprintf("user%d", telegramID),
		ReferralCode: fmt.Sprintf("code%06d", telegramID),
		ReferredById: referredBy,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) pkg(t *testing.T, durationDays int, dividend float64) models.Package {
	t.Helper()
	p := models.Package{
		Name:               fmt.Sprintf("Plan %d/%.0f", durationDays, dividend),
		MinPrice:           1000,
		MaxPrice:           common.Float64Ptr(100000),
		MinPriceUsd:        1,
		MaxPriceUsd:        common.Float64Ptr(100),
		DurationDays:       durationDays,
		DividendPercentage: dividend,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) subscription(t *testing.T, u models.User, p models.Package, amount float64) models.Subscription {
	t.Helper()
	res, err := f.subs.Purchase(context.Background(), u.ID, PurchaseInput{PackageId: p.ID, InvestmentAmount: amount})
	require.NoError(t, err)
	return f.reload(t, res.SubscriptionId)
}

// paidSubscription buys, submits bank details and approves a subscription.
func (f *fixture) paidSubscription(t *testing.T, u models.User, p models.Package, amount float64) models.Subscription {
	t.Helper()
	sub := f.subscription(t, u, p, amount)
	require.NoError(t, f.subs.SubmitBankDetails(context.Background(), u.ID, sub.ID, BankDetailsInput{
		DepositorName: u.FirstName, DepositorBank: "First Bank", DepositedAmount: amount,
	}))
	_, err := f.admin.Approve(context.Background(), sub.ID)
	require.NoError(t, err)
	return f.reload(t, sub.ID)
}

func (f *fixture) reload(t *testing.T, id int) models.Subscription {
	t.Helper()
	var sub models.Subscription
	require.NoError(t, f.db.First(&sub, id).Error)
	return sub
}

func bankWithdrawal(subID int, amount float64) WithdrawRequestDTO {
	return WithdrawRequestDTO{
		SubscriptionId:   subID,
		Amount:           amount,
		WithdrawalMethod: models.PaymentMethodBankTransfer,
		AccountName:      "Ada",
		AccountNumber:    "0123456789",
		BankName:         "First Bank",
	}
}
