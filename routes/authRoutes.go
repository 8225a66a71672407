package routes

import (
	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, h *controllers.Handler, g Guards) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.LoginUser)
		auth.GET("/me", g.Auth, h.GetMe)
	}
}
