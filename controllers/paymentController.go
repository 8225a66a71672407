package controllers

import (
	"io"
	"net/http"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody matches the payload cap Stripe documents for webhooks.
const maxWebhookBody = 65536

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var input struct {
		Purpose string `json:"purpose" binding:"required,purpose"`
		Plan    string `json:"plan" binding:"max=50"`
		IssueID string `json:"issueId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	session, err := h.Payments.CreateCheckout(c.Request.Context(), utils.EmailFrom(c), services.CheckoutInput{
		Purpose: models.Purpose(input.Purpose),
		Plan:    input.Plan,
		IssueID: input.IssueID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL, "id": session.ID})
}

// ConfirmPayment reconciles a finished checkout. Amounts and emails in the
// body are ignored; the session is re-read from the provider.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var input struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	rec, err := h.Payments.Reconcile(c.Request.Context(), input.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"payment": rec})
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, errs.Wrap(err, errs.InvalidInput, "Unreadable webhook body"))
		return
	}

	rec, err := h.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "payment": rec})
}
