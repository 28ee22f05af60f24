// Package identity verifies Telegram WebApp initData and extracts the caller.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	AuthScheme = "tma"
	MaxAge     = 24 * time.Hour
)

var (
	ErrMissingHash = errors.New("initData has no hash")
	ErrInvalidHash = errors.New("invalid initData hash")
	ErrExpired     = errors.New("initData auth date too old")
	ErrNoUser      = errors.New("initData has no user")
)

// TelegramUser is the subset of the WebApp user object the service stores.
type TelegramUser struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	Username  *string `json:"username,omitempty"`
}

type Verifier struct {
	BotToken string
	Now      func() time.Time
}

func NewVerifier(botToken string) *Verifier {
	return &Verifier{BotToken: botToken, Now: time.Now}
}

// FromAuthorization parses an "Authorization: tma <initData>" header value.
func (v *Verifier) FromAuthorization(header string) (TelegramUser, error) {
	scheme, initData, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, AuthScheme) || strings.TrimSpace(initData) == "" {
		return TelegramUser{}, fmt.Errorf("authorization header must use the %q scheme", AuthScheme)
	}
	return v.Verify(strings.TrimSpace(initData))
}

// Verify checks the initData signature and freshness. The signature check is
// skipped when no bot token is configured.
func (v *Verifier) Verify(initData string) (TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return TelegramUser{}, err
	}

	if v.BotToken != "" {
		hash := values.Get("hash")
		if hash == "" {
			return TelegramUser{}, ErrMissingHash
		}
		expected := Sign(values, v.BotToken)
		if !hmac.Equal([]byte(expected), []byte(hash)) {
			return TelegramUser{}, ErrInvalidHash
		}
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return TelegramUser{}, fmt.Errorf("invalid auth_date: %w", err)
	}
	if v.now().Sub(time.Unix(authDate, 0)) > MaxAge {
		return TelegramUser{}, ErrExpired
	}

	userStr := values.Get("user")
	if userStr == "" {
		return TelegramUser{}, ErrNoUser
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userStr), &user); err != nil {
		return TelegramUser{}, fmt.Errorf("invalid initData user: %w", err)
	}
	if user.ID == 0 {
		return TelegramUser{}, ErrNoUser
	}
	return user, nil
}

func (v *Verifier) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

// Sign computes the hex hash Telegram attaches to initData. The hash field
// itself is excluded from the check string.
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, k := range keys {
		for _, v := range values[k] {
			dataCheck = append(dataCheck, fmt.Sprintf("%s=%s", k, v))
		}
	}
	dataCheckString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	h := hmac.New(sha256.New, secretKey)
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}
