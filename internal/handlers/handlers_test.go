package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"investment-service/internal/identity"
	"investment-service/internal/models"
	"investment-service/internal/notify"
	"investment-service/internal/services"
	"investment-service/internal/storage"
	"investment-service/internal/testutil"
)

const adminTelegramID = 1000

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type memoryStore struct{}

func (memoryStore) Upload(ctx context.Context, folder string, file storage.File) (string, error) {
	if _, err := io.ReadAll(file.Body); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	store := memoryStore{}
	discard := notify.Discard{}

	h := &Handler{
		Verifier:      identity.NewVerifier(""),
		Users:         services.NewUserService(db, map[int64]bool{adminTelegramID: true}),
		Packages:      services.NewPackageService(db, store, nil),
		Subscriptions: services.NewSubscriptionService(db, store, discard),
		Withdrawals:   services.NewWithdrawalService(db, discard),
		Referrals:     services.NewReferralService(db),
		Admin:         services.NewAdminService(db, discard),
	}
	return &testServer{db: db, router: NewRouter(h)}
}

func authHeader(telegramID int64) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":"User %d"}`, telegramID, telegramID))
	return identity.AuthScheme + " " + values.Encode()
}

func (s *testServer) do(t *testing.T, method, path string, telegramID int64, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if telegramID != 0 {
		req.Header.Set("Authorization", authHeader(telegramID))
	}
	return s.serve(t, req)
}

func (s *testServer) multipart(t *testing.T, path string, telegramID int64, fields map[string]string, fileField, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authHeader(telegramID))
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) register(t *testing.T, telegramID int64) models.User {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth", telegramID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.User
}

func (s *testServer) seedPackage(t *testing.T) models.Package {
	t.Helper()
	p := models.Package{Name: "Conservative", MinPrice: 1000, MinPriceUsd: 1, DurationDays: 5, DividendPercentage: 10}
	require.NoError(t, s.db.Create(&p).Error)
	return p
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/user/dashboard", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusUnauthorized, env.Status)

	// verified but never registered
	w, _ = s.do(t, http.MethodGet, "/api/user/dashboard", 55, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateWithReferral(t *testing.T) {
	s := newTestServer(t)
	referrer := s.register(t, 1)

	w, env := s.do(t, http.MethodPost, "/api/auth", 2, AuthRequest{ReferralCode: referrer.ReferralCode})
	require.Equal(t, http.StatusOK, w.Code)
	var res services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.IsNewUser)

	w, env = s.do(t, http.MethodGet, "/api/user/referrals", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary services.ReferralSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, referrer.ReferralCode, summary.ReferralCode)
	require.Len(t, summary.Referrals, 1)
	assert.Equal(t, res.User.ID, summary.Referrals[0].ID)
}

func TestPurchaseFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, 7)
	p := s.seedPackage(t)

	w, env := s.do(t, http.MethodPost, "/api/user/packages", 7, services.PurchaseInput{PackageId: p.ID, InvestmentAmount: 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "at least")

	w, env = s.do(t, http.MethodPost, "/api/user/packages", 7, services.PurchaseInput{PackageId: p.ID, InvestmentAmount: 2500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var purchase services.PurchaseResult
	require.NoError(t, json.Unmarshal(env.Data, &purchase))
	assert.Equal(t, "Conservative", purchase.PackageName)

	w, env = s.do(t, http.MethodGet, "/api/user/dashboard", 7, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []services.SubscriptionView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, models.SubscriptionPending, views[0].Status)

	path := fmt.Sprintf("/api/user/package/%d/upload_proof", purchase.SubscriptionId)
	w, env = s.multipart(t, path, 7, nil, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No proof file provided", env.Message)

	w, _ = s.multipart(t, path, 7, nil, "proof", "proof.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.multipart(t, path, 7, nil, "proof", "proof.png", pngBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/user/package/%d", purchase.SubscriptionId), 7, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/user/package/abc", 7, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, 7)

	w, env := s.do(t, http.MethodGet, "/api/admin/pending", 7, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", env.Message)
}

func TestAdminReviewFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, adminTelegramID)
	require.True(t, admin.IsAdmin)
	s.register(t, 7)

	w, env := s.multipart(t, "/api/admin/packages", adminTelegramID, map[string]string{
		"name":                "Growth",
		"min_price":           "1000",
		"min_price_usd":       "1",
		"max_price":           "",
		"duration_days":       "1",
		"dividend_percentage": "20",
	}, "image", "growth.png", pngBytes)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pkg models.Package
	require.NoError(t, json.Unmarshal(env.Data, &pkg))
	assert.Nil(t, pkg.MaxPrice)
	assert.Equal(t, "https://cdn.example.com/package_images/growth.png", pkg.ImageUrl)

	w, _ = s.multipart(t, "/api/admin/packages", adminTelegramID, map[string]string{"name": "No image"}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/user/packages", 7, services.PurchaseInput{PackageId: pkg.ID, InvestmentAmount: 5000})
	require.Equal(t, http.StatusCreated, w.Code)
	var purchase services.PurchaseResult
	require.NoError(t, json.Unmarshal(env.Data, &purchase))

	bankPath := fmt.Sprintf("/api/user/package/%d/submit_bank_details", purchase.SubscriptionId)
	w, _ = s.do(t, http.MethodPost, bankPath, 7, services.BankDetailsInput{DepositorName: "Ada", DepositorBank: "GTB", DepositedAmount: 5000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/admin/pending", adminTelegramID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []services.PendingPaymentView
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, purchase.SubscriptionId, pending[0].SubscriptionId)

	rejectPath := fmt.Sprintf("/api/admin/reject/%d", purchase.SubscriptionId)
	w, _ = s.do(t, http.MethodPost, rejectPath, adminTelegramID, RejectRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	approvePath := fmt.Sprintf("/api/admin/approve/%d", purchase.SubscriptionId)
	w, _ = s.do(t, http.MethodPost, approvePath, adminTelegramID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodPost, approvePath, adminTelegramID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Package is not in a 'pending' state", env.Message)

	w, _ = s.do(t, http.MethodPost, rejectPath, adminTelegramID, RejectRequest{Reason: "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/admin/history?page=1&limit=10", adminTelegramID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Count int64                       `json:"count"`
		Data  []services.AdminHistoryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, int64(1), history.Count)
	require.Len(t, history.Data, 1)
	assert.Equal(t, models.SubscriptionPaid, history.Data[0].Status)

	// not yet matured
	w, _ = s.do(t, http.MethodPost, "/api/user/withdrawals", 7, services.WithdrawRequestDTO{
		SubscriptionId:   purchase.SubscriptionId,
		Amount:           100,
		WithdrawalMethod: models.PaymentMethodCrypto,
		WalletAddress:    "TX1",
		CryptoNetwork:    "TRC20",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/admin/withdrawals", adminTelegramID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))

	w, _ = s.do(t, http.MethodPost, "/api/admin/withdrawals/999/approve", adminTelegramID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWithdrawalRoutes(t *testing.T) {
	s := newTestServer(t)
	s.register(t, adminTelegramID)
	user := s.register(t, 7)
	p := s.seedPackage(t)

	past := time.Now().UTC().Add(-30 * 24 * time.Hour)
	expiry := time.Now().UTC().Add(-time.Hour)
	sub := models.Subscription{
		UserId:           user.ID,
		PackageId:        p.ID,
		InvestmentAmount: 10000,
		Status:           models.SubscriptionPaid,
		PurchaseDate:     past,
		ActivationDate:   &past,
		ApprovedAt:       &past,
		ExpiryDate:       &expiry,
	}
	require.NoError(t, s.db.Create(&sub).Error)

	w, env := s.do(t, http.MethodPost, "/api/user/withdrawals", 7, services.WithdrawRequestDTO{
		SubscriptionId:   sub.ID,
		Amount:           1000,
		WithdrawalMethod: models.PaymentMethodBankTransfer,
		AccountName:      "Ada",
		AccountNumber:    "0123456789",
		BankName:         "GTB",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		WithdrawalId int `json:"withdrawal_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env = s.do(t, http.MethodGet, "/api/user/withdrawals", 7, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []services.WithdrawalView
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, models.WithdrawalPending, mine[0].Status)

	w, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%d/approve", created.WithdrawalId), adminTelegramID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.ApproveWithdrawalResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.SubscriptionPaid, res.SubscriptionStatus)
	assert.Equal(t, 1000.0, res.TotalWithdrawn)
}
