package controllers

import (
	"net/http"

	"cityfix-be/errs"
	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterUser creates the credential account and the user profile, then
// logs the new user in.
func (h *Handler) RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		PhotoURL string `json:"photoURL" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	uid, err := h.Identity.CreateAccount(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, _, err := h.Users.Register(ctx, services.Registration{
		UID:         uid,
		Email:       input.Email,
		DisplayName: input.Name,
		PhotoURL:    input.PhotoURL,
	})
	if err != nil {
		if rbErr := h.Identity.DeleteAccount(ctx, uid); rbErr != nil {
			h.Log.Error("account rollback failed", zap.String("uid", uid), zap.Error(rbErr))
		}
		h.fail(c, err)
		return
	}

	token, err := h.Identity.Login(ctx, input.Email, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	utils.OK(c, http.StatusCreated, gin.H{"token": token, "user": user})
}

// LoginUser exchanges credentials for a token.
func (h *Handler) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	token, err := h.Identity.Login(ctx, input.Email, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.Users.GetByEmail(ctx, input.Email)
	if err != nil && !errs.Is(err, errs.NotFound) {
		h.fail(c, err)
		return
	}

	utils.OK(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// GetMe returns the caller's profile.
func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.Users.GetByEmail(c.Request.Context(), utils.EmailFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
