package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

func PaymentRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	r.POST("/create-checkout-session", g.Auth, g.Active, h.CreateCheckoutSession)
	r.POST("/payment-success", g.Auth, h.ConfirmPayment)
	r.POST("/subscribe", g.Auth, h.ConfirmPayment)
	r.POST("/stripe/webhook", h.StripeWebhook)
}

func UploadRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	r.POST("/uploads/image", g.Auth, h.PresignImage)
}
