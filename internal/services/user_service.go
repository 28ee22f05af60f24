package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"investment-service/internal/identity"
	"investment-service/internal/models"
	"investment-service/pkg/common"
)

const referralCodeAttempts = 5

type UserService struct {
	DB       *gorm.DB
	AdminIDs map[int64]bool
}

func NewUserService(db *gorm.DB, adminIDs map[int64]bool) *UserService {
	return &UserService{DB: db, AdminIDs: adminIDs}
}

type AuthResult struct {
	User      models.User `json:"user"`
	IsNewUser bool        `json:"is_new_user"`
}

// Authenticate finds the user for a verified Telegram identity, creating it on
// first contact. referralCode is honoured only at creation; unknown codes are ignored.
func (s *UserService) Authenticate(ctx context.Context, tg identity.TelegramUser, referralCode string) (AuthResult, error) {
	if tg.ID == 0 {
		return AuthResult{}, common.ValidationError("User data not provided")
	}
	db := s.DB.WithContext(ctx)

	var user models.User
	err := db.Where("telegram_id = ?", tg.ID).First(&user).Error
	if err == nil {
		if err := s.promote(db, &user); err != nil {
			return AuthResult{}, err
		}
		return AuthResult{User: user}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthResult{}, dbFailure(err)
	}

	user = models.User{
		TelegramId: tg.ID,
		Username:   tg.Username,
		FirstName:  strings.TrimSpace(tg.FirstName),
		IsAdmin:    s.AdminIDs[tg.ID],
	}
	if user.FirstName == "" {
		user.FirstName = "N/A"
	}

	if code := strings.TrimSpace(referralCode); code != "" {
		var referrer models.User
		err := db.Where("referral_code = ?", code).First(&referrer).Error
		switch {
		case err == nil:
			user.ReferredById = &referrer.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Info().Int64("telegram_id", tg.ID).Str("referral_code", code).Msg("Ignoring unknown referral code")
		default:
			return AuthResult{}, dbFailure(err)
		}
	}

	if err := s.create(db, &user); err != nil {
		// A concurrent first login may have created the row already.
		var existing models.User
		if findErr := db.Where("telegram_id = ?", tg.ID).First(&existing).Error; findErr == nil {
			return AuthResult{User: existing}, nil
		}
		return AuthResult{}, err
	}

	log.Info().Int("user_id", user.ID).Int64("telegram_id", tg.ID).Msg("Registered new user")
	return AuthResult{User: user, IsNewUser: true}, nil
}

func (s *UserService) create(db *gorm.DB, user *models.User) error {
	var lastErr error
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := common.GenerateReferralCode()
		if err != nil {
			return common.DependencyFailure("failed to generate referral code", err)
		}

		var taken int64
		if err := db.Model(&models.User{}).Where("referral_code = ?", code).Count(&taken).Error; err != nil {
			return dbFailure(err)
		}
		if taken > 0 {
			continue
		}

		user.ReferralCode = code
		if lastErr = db.Create(user).Error; lastErr == nil {
			return nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no free referral code")
	}
	return dbFailure(lastErr)
}

// promote grants admin rights to configured admins. It never revokes them.
func (s *UserService) promote(db *gorm.DB, user *models.User) error {
	if user.IsAdmin || !s.AdminIDs[user.TelegramId] {
		return nil
	}
	if err := db.Model(user).Update("is_admin", true).Error; err != nil {
		return dbFailure(err)
	}
	user.IsAdmin = true
	log.Info().Int("user_id", user.ID).Msg("Promoted user to admin")
	return nil
}

// ByTelegramID resolves an authenticated caller to a registered user.
func (s *UserService) ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Unauthorized("User is not registered")
		}
		return nil, dbFailure(err)
	}
	return &user, nil
}
