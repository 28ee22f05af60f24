package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"investment-service/internal/identity"
	"investment-service/internal/models"
	"investment-service/internal/services"
	"investment-service/pkg/common"
)

type Handler struct {
	Verifier      *identity.Verifier
	Users         *services.UserService
	Packages      *services.PackageService
	Subscriptions *services.SubscriptionService
	Withdrawals   *services.WithdrawalService
	Referrals     *services.ReferralService
	Admin         *services.AdminService
}

func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(http.StatusOK, data, message))
}

func respondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, common.NewSuccessResponse(http.StatusCreated, data, message))
}

func respondError(c *gin.Context, err error) {
	status := common.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, common.ErrorResponseFor(err))
}

func bindError(c *gin.Context, err error) {
	respondError(c, common.ValidationError("Invalid request: %s", err.Error()))
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, common.ValidationError("Invalid %s", name))
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}
