// Package controllers adapts HTTP requests to service calls.
package controllers

import (
	"context"

	"cityfix-be/identity"
	"cityfix-be/services"
	"cityfix-be/uploads"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImagePresigner hands out direct-upload URLs.
type ImagePresigner interface {
	PresignImage(ctx context.Context, contentType string) (*uploads.Upload, error)
}

// Handler carries the dependencies every controller needs. Payments and
// Uploads are nil when their integrations are not configured.
type Handler struct {
	Identity identity.Provider
	Users    *services.Users
	Issues   *services.Issues
	Payments *services.Payments
	Stats    *services.Stats
	Uploads  ImagePresigner
	Log      *zap.Logger
}

func (h *Handler) fail(c *gin.Context, err error) {
	utils.Fail(c, h.Log, err)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	utils.BadRequest(c, h.Log, err)
}
