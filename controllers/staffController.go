package controllers

import (
	"net/http"

	"cityfix-be/models"
	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AssignedIssues(c *gin.Context) {
	issues, err := h.Issues.List(c.Request.Context(), services.IssueQuery{
		AssignedStaffEmail: utils.EmailFrom(c),
		Status:             c.Query("status"),
		Search:             c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *Handler) StaffStats(c *gin.Context) {
	stats, err := h.Stats.Staff(c.Request.Context(), utils.EmailFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateProgress moves an assigned issue along with a progress note.
func (h *Handler) UpdateProgress(c *gin.Context) {
	var input struct {
		Status       string `json:"status" binding:"required,issuestatus"`
		ProgressNote string `json:"progressNote" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	issue, err := h.Issues.UpdateProgress(c.Request.Context(), utils.EmailFrom(c), c.Param("id"),
		models.IssueStatus(input.Status), input.ProgressNote)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"issue": issue})
}
