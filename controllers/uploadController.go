package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresignImage returns a short-lived URL the client PUTs the image to.
func (h *Handler) PresignImage(c *gin.Context) {
	var input struct {
		ContentType string `json:"contentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	upload, err := h.Uploads.PresignImage(c.Request.Context(), input.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
