package controllers

import (
	"net/http"

	"cityfix-be/models"
	"cityfix-be/services"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
)

type issueInput struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Image       *string `json:"image" binding:"omitempty,max=1000"`
}

func (in issueInput) fields() models.IssueFields {
	return models.IssueFields{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Image:       in.Image,
	}
}

// CreateIssue files a new issue for the caller.
func (h *Handler) CreateIssue(c *gin.Context) {
	var input issueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	issue, err := h.Issues.Create(c.Request.Context(), utils.EmailFrom(c), input.fields())
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusCreated, gin.H{"issue": issue})
}

// GetAllIssues lists issues, boosted first then newest first.
func (h *Handler) GetAllIssues(c *gin.Context) {
	issues, err := h.Issues.List(c.Request.Context(), services.IssueQuery{
		Email:    c.Query("email"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *Handler) GetIssue(c *gin.Context) {
	issue, err := h.Issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateIssue edits a pending issue. Only the reporter or an admin may.
func (h *Handler) UpdateIssue(c *gin.Context) {
	var input issueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	issue, err := h.Issues.Edit(c.Request.Context(), utils.EmailFrom(c), c.Param("id"), input.fields())
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"issue": issue})
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	if err := h.Issues.Delete(c.Request.Context(), utils.EmailFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

func (h *Handler) UpvoteIssue(c *gin.Context) {
	issue, err := h.Issues.Upvote(c.Request.Context(), utils.EmailFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"upvote": issue.Upvote, "issue": issue})
}

func (h *Handler) BoostIssue(c *gin.Context) {
	issue, err := h.Issues.Boost(c.Request.Context(), utils.EmailFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"issue": issue})
}

func (h *Handler) ChangeIssueStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required,issuestatus"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	issue, err := h.Issues.ChangeStatus(c.Request.Context(), utils.EmailFrom(c), c.Param("id"), models.IssueStatus(input.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.OK(c, http.StatusOK, gin.H{"issue": issue})
}
