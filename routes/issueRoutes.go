package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	issue := r.Group("/issues")
	{
		issue.GET("", h.GetAllIssues)
		issue.GET("/:id", h.GetIssue)
		issue.POST("", chain(g.Auth, g.Active, g.IssueLimit, h.CreateIssue)...)
		issue.PATCH("/:id", g.Auth, h.UpdateIssue)
		issue.DELETE("/:id", g.Auth, h.DeleteIssue)
		issue.PATCH("/upvote/:id", g.Auth, g.Active, h.UpvoteIssue)
		issue.PATCH("/boost/:id", g.Auth, g.StaffOrAdmin, h.BoostIssue)
		issue.PATCH("/status/:id", g.Auth, g.StaffOrAdmin, h.ChangeIssueStatus)
	}
}
