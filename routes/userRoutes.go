package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	users := r.Group("/users", g.Auth)
	{
		users.POST("", h.SaveUser)
		users.GET("", g.Admin, h.ListUsers)
		users.GET("/email/:email", h.GetUserByEmail)
		users.GET("/:email/role", h.GetUserRole)
		users.PATCH("/:id/role", g.Admin, h.SetUserRole)
		users.PATCH("/profile", h.UpdateProfile)
	}
}
