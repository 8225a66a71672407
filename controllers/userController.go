package controllers

import (
	"net/http"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
)

// SaveUser registers the caller's profile. Repeat calls are no-ops.
func (h *Handler) SaveUser(c *gin.Context) {
	var input struct {
		DisplayName string `json:"displayName" binding:"max=50"`
		PhotoURL    string `json:"photoURL" binding:"omitempty,url"`
		Phone       string `json:"phone" binding:"max=30"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	id := utils.IdentityFrom(c)
	user, created, err := h.Users.Register(c.Request.Context(), services.Registration{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: input.DisplayName,
		PhotoURL:    input.PhotoURL,
		Phone:       input.Phone,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.OK(c, status, gin.H{"created": created, "user": user})
}

func (h *Handler) GetUserByEmail(c *gin.Context) {
	user, err := h.Users.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), c.Query("searchText"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUserRole reports the stored role, citizen when there is no profile.
func (h *Handler) GetUserRole(c *gin.Context) {
	role, err := h.Users.ResolveRole(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *Handler) SetUserRole(c *gin.Context) {
	var input struct {
		Role string `json:"role" binding:"required,role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	role, err := models.ParseRole(input.Role)
	if err != nil {
		h.fail(c, errs.Wrap(err, errs.InvalidInput, "Invalid role"))
		return
	}

	if err := h.Users.SetRole(c.Request.Context(), c.Param("id"), role); err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"role": role})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var input services.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), utils.IdentityFrom(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"user": user})
}
