package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	admin := r.Group("/admin", g.Auth, g.Admin)
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/payments", h.ListPayments)
		admin.POST("/add-staff", h.AddStaff)
		admin.PATCH("/update-staff/:id", h.UpdateStaff)
		admin.DELETE("/delete-staff/:id", h.DeleteStaff)
		admin.PATCH("/user-block/:id", h.BlockUser)
		admin.PATCH("/assign-staff/:id", h.AssignStaff)
		admin.PATCH("/reject-issue/:id", h.RejectIssue)
	}
}
