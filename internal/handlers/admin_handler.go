package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"investment-service/internal/services"
	"investment-service/pkg/common"
)

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CreatePackage(c *gin.Context) {
	in, err := packageForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	image, closer, ok := uploadedFile(c, "image", "No image file provided")
	if !ok {
		return
	}
	defer closer.Close()

	pkg, err := h.Packages.Create(c.Request.Context(), in, &image)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, pkg, "Package created")
}

func (h *Handler) PendingPayments(c *gin.Context) {
	views, err := h.Admin.PendingPayments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views, "Pending payments fetched")
}

func (h *Handler) AdminHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.Admin.History(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, res)
}

func (h *Handler) ApprovePayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.Admin.Approve(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Payment approved. Package activated.")
}

func (h *Handler) RejectPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if _, err := h.Admin.Reject(c.Request.Context(), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Payment rejected.")
}

func (h *Handler) PendingWithdrawals(c *gin.Context) {
	views, err := h.Withdrawals.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views, "Pending withdrawals fetched")
}

func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Withdrawals.ApproveWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res, "Withdrawal approved and package status updated.")
}

// packageForm reads the multipart package fields. Empty optional prices mean unlimited.
func packageForm(c *gin.Context) (services.CreatePackageInput, error) {
	var in services.CreatePackageInput
	for _, field := range []string{"name", "min_price", "min_price_usd", "duration_days", "dividend_percentage"} {
		if strings.TrimSpace(c.PostForm(field)) == "" {
			return in, common.ValidationError("Missing required form data")
		}
	}

	var err error
	in.Name = c.PostForm("name")
	if in.MinPrice, err = formFloat(c, "min_price"); err != nil {
		return in, err
	}
	if in.MinPriceUsd, err = formFloat(c, "min_price_usd"); err != nil {
		return in, err
	}
	if in.DividendPercentage, err = formFloat(c, "dividend_percentage"); err != nil {
		return in, err
	}
	if in.MaxPrice, err = optionalFormFloat(c, "max_price"); err != nil {
		return in, err
	}
	if in.MaxPriceUsd, err = optionalFormFloat(c, "max_price_usd"); err != nil {
		return in, err
	}
	if in.DurationDays, err = strconv.Atoi(strings.TrimSpace(c.PostForm("duration_days"))); err != nil {
		return in, common.ValidationError("Invalid duration_days")
	}
	return in, nil
}

func formFloat(c *gin.Context, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(field)), 64)
	if err != nil {
		return 0, common.ValidationError("Invalid %s", field)
	}
	return v, nil
}

func optionalFormFloat(c *gin.Context, field string) (*float64, error) {
	if strings.TrimSpace(c.PostForm(field)) == "" {
		return nil, nil
	}
	v, err := formFloat(c, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
