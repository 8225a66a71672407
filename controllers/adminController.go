package controllers

import (
	"net/http"

	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Stats.Admin(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListPayments returns the ledger, optionally for one purpose and month.
func (h *Handler) ListPayments(c *gin.Context) {
	list, err := h.Stats.Payments(c.Request.Context(), c.Query("purpose"), c.Query("month"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AddStaff(c *gin.Context) {
	var input struct {
		DisplayName string `json:"displayName" binding:"required,max=50"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		Phone       string `json:"phone" binding:"max=30"`
		PhotoURL    string `json:"photoURL" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	staff, err := h.Users.AddStaff(c.Request.Context(), services.NewStaff{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		PhotoURL:    input.PhotoURL,
		Phone:       input.Phone,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusCreated, gin.H{"message": "Staff created successfully", "user": staff})
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	var input services.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.Users.UpdateStaff(c.Request.Context(), c.Param("id"), input); err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"message": "Staff updated successfully"})
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	if err := h.Users.DeleteStaff(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"message": "Staff deleted successfully"})
}

func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.Users.ListStaff(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (h *Handler) BlockUser(c *gin.Context) {
	var input struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.Users.SetBlocked(c.Request.Context(), c.Param("id"), *input.Blocked); err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"blocked": *input.Blocked})
}

func (h *Handler) AssignStaff(c *gin.Context) {
	var input struct {
		StaffEmail string `json:"staffEmail"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	issue, err := h.Issues.AssignStaff(c.Request.Context(), utils.EmailFrom(c), c.Param("id"), input.StaffEmail)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"message": "Staff assigned successfully", "issue": issue})
}

func (h *Handler) RejectIssue(c *gin.Context) {
	issue, err := h.Issues.Reject(c.Request.Context(), utils.EmailFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"message": "Issue rejected", "issue": issue})
}
