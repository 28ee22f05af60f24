package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"investment-service/internal/identity"
	"investment-service/internal/logging"
	"investment-service/pkg/common"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

// RequireIdentity verifies the Telegram initData sent as "Authorization: tma <initData>".
func (h *Handler) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		tg, err := h.Verifier.FromAuthorization(c.GetHeader("Authorization"))
		if err != nil {
			respondError(c, common.Unauthorized("Invalid or missing Telegram authorization"))
			return
		}
		c.Set(identityKey, tg)
		c.Next()
	}
}

// RequireUser resolves the verified identity to a registered user.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		tg := c.MustGet(identityKey).(identity.TelegramUser)
		user, err := h.Users.ByTelegramID(c.Request.Context(), tg.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			respondError(c, common.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logging.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
