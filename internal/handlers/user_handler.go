package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"investment-service/internal/identity"
	"investment-service/internal/services"
	"investment-service/internal/storage"
	"investment-service/pkg/common"
)

type AuthRequest struct {
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) Authenticate(c *gin.Context) {
	var req AuthRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	tg := c.MustGet(identityKey).(identity.TelegramUser)
	res, err := h.Users.Authenticate(c.Request.Context(), tg, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res, "Authenticated")
}

func (h *Handler) ListPackages(c *gin.Context) {
	pkgs, err := h.Packages.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pkgs, "Packages fetched")
}

func (h *Handler) PurchasePackage(c *gin.Context) {
	var req services.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.Subscriptions.Purchase(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, res, "Package selected. Please make your payment.")
}

func (h *Handler) CancelPackage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Subscriptions.Cancel(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Selection cancelled successfully.")
}

func (h *Handler) UploadProof(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	file, closer, ok := uploadedFile(c, "proof", "No proof file provided")
	if !ok {
		return
	}
	defer closer.Close()

	if err := h.Subscriptions.AttachProof(c.Request.Context(), currentUser(c).ID, id, file); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Payment proof submitted. Awaiting admin confirmation.")
}

func (h *Handler) SubmitBankDetails(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.BankDetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.Subscriptions.SubmitBankDetails(c.Request.Context(), currentUser(c).ID, id, req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Payment details submitted. Awaiting admin confirmation.")
}

// Dashboard returns every subscription of the caller, closed ones included.
func (h *Handler) Dashboard(c *gin.Context) {
	views, err := h.Subscriptions.Dashboard(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views, "Dashboard fetched")
}

func (h *Handler) History(c *gin.Context) {
	views, err := h.Subscriptions.History(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views, "History fetched")
}

func (h *Handler) ReferralSummary(c *gin.Context) {
	summary, err := h.Referrals.Summary(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary, "Referrals fetched")
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req services.WithdrawRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	w, err := h.Withdrawals.RequestWithdrawal(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"withdrawal_id": w.ID}, "Withdrawal will be processed within 0-5 working days.")
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	views, err := h.Withdrawals.ListForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views, "Withdrawals fetched")
}

// uploadedFile reads and validates the multipart file field. The caller
// closes the returned file once the upload is done.
func uploadedFile(c *gin.Context, field, missing string) (storage.File, io.Closer, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		respondError(c, common.ValidationError("%s", missing))
		return storage.File{}, nil, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, common.ValidationError("%s", missing))
		return storage.File{}, nil, false
	}

	file, err := storage.Prepare(header.Filename, header.Size, f)
	if err != nil {
		f.Close()
		respondError(c, common.ValidationError("%s", err.Error()))
		return storage.File{}, nil, false
	}
	return file, f, true
}
