package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investment-service/internal/identity"
	"investment-service/internal/testutil"
	"investment-service/pkg/common"
)

func TestAuthenticateCreatesThenFinds(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()
	handle := "ada"

	res, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 500, FirstName: "Ada", Username: &handle}, "")
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, int64(500), res.User.TelegramId)
	assert.Len(t, res.User.ReferralCode, 10)
	assert.Nil(t, res.User.ReferredById)
	assert.False(t, res.User.IsAdmin)

	again, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 500, FirstName: "Renamed"}, "")
	require.NoError(t, err)
	assert.False(t, again.IsNewUser)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Equal(t, "Ada", again.User.FirstName)
}

func TestAuthenticateWithReferralCode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, nil)
	ctx := context.Background()

	referrer, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 1, FirstName: "Ref"}, "")
	require.NoError(t, err)

	referred, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 2}, referrer.User.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, referred.User.ReferredById)
	assert.Equal(t, referrer.User.ID, *referred.User.ReferredById)
	assert.Equal(t, "N/A", referred.User.FirstName)

	unknown, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 3, FirstName: "X"}, "ffffffffff")
	require.NoError(t, err)
	assert.True(t, unknown.IsNewUser)
	assert.Nil(t, unknown.User.ReferredById)

	// the referrer is fixed at creation
	again, err := svc.Authenticate(ctx, identity.TelegramUser{ID: 3}, referrer.User.ReferralCode)
	require.NoError(t, err)
	assert.Nil(t, again.User.ReferredById)
}

func TestAuthenticatePromotesConfiguredAdmins(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	plain := NewUserService(db, nil)
	res, err := plain.Authenticate(ctx, identity.TelegramUser{ID: 900, FirstName: "Boss"}, "")
	require.NoError(t, err)
	assert.False(t, res.User.IsAdmin)

	withAdmins := NewUserService(db, map[int64]bool{900: true, 901: true})
	res, err = withAdmins.Authenticate(ctx, identity.TelegramUser{ID: 900}, "")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)

	fresh, err := withAdmins.Authenticate(ctx, identity.TelegramUser{ID: 901, FirstName: "Ops"}, "")
	require.NoError(t, err)
	assert.True(t, fresh.User.IsAdmin)

	stored, err := plain.ByTelegramID(ctx, 900)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestAuthenticateRequiresIdentity(t *testing.T) {
	svc := NewUserService(testutil.NewDB(t), nil)
	_, err := svc.Authenticate(context.Background(), identity.TelegramUser{}, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestByTelegramIDUnknown(t *testing.T) {
	svc := NewUserService(testutil.NewDB(t), nil)
	_, err := svc.ByTelegramID(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
