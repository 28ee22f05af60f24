package handlers

import (
	"github.com/gin-gonic/gin"

	"investment-service/internal/logging"
	"investment-service/internal/metrics"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), logging.GinLogger(), metrics.GinMiddleware())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome To the Investment service",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/packages", h.ListPackages)

	authed := api.Group("", h.RequireIdentity())
	authed.POST("/auth", h.Authenticate)

	user := authed.Group("/user", h.RequireUser())
	user.POST("/packages", h.PurchasePackage)
	user.DELETE("/package/:id", h.CancelPackage)
	user.POST("/package/:id/upload_proof", h.UploadProof)
	user.POST("/package/:id/submit_bank_details", h.SubmitBankDetails)
	user.GET("/dashboard", h.Dashboard)
	user.GET("/history", h.History)
	user.GET("/referrals", h.ReferralSummary)
	user.POST("/withdrawals", h.RequestWithdrawal)
	user.GET("/withdrawals", h.ListWithdrawals)

	admin := authed.Group("/admin", h.RequireUser(), h.RequireAdmin())
	admin.POST("/packages", h.CreatePackage)
	admin.GET("/pending", h.PendingPayments)
	admin.GET("/history", h.AdminHistory)
	admin.POST("/approve/:id", h.ApprovePayment)
	admin.POST("/reject/:id", h.RejectPayment)
	admin.GET("/withdrawals", h.PendingWithdrawals)
	admin.POST("/withdrawals/:id/approve", h.ApproveWithdrawal)

	return r
}
