package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

func StaffRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	staff := r.Group("/staff", g.Auth)
	{
		staff.GET("/list", g.Admin, h.ListStaff)
		staff.GET("/assigned-issues", g.Staff, h.AssignedIssues)
		staff.GET("/stats", g.Staff, h.StaffStats)
		staff.PATCH("/update-progress/:id", g.Staff, h.UpdateProgress)
	}
}
