package routes

import (
	"net/http"

	"cityfix-be/controllers"

	"github.com/gin-gonic/gin"
)

// Guards are the middlewares routes compose. IssueLimit is nil when no
// Redis is configured.
type Guards struct {
	Auth         gin.HandlerFunc
	Active       gin.HandlerFunc
	Admin        gin.HandlerFunc
	Staff        gin.HandlerFunc
	StaffOrAdmin gin.HandlerFunc
	IssueLimit   gin.HandlerFunc
}

// Register mounts every route group on r.
func Register(r *gin.Engine, h *controllers.Handler, g Guards) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	AuthRoutes(r, h, g)
	IssueRoutes(r, h, g)
	UserRoutes(r, h, g)
	AdminRoutes(r, h, g)
	StaffRoutes(r, h, g)
	if h.Payments != nil {
		PaymentRoutes(r, h, g)
	}
	if h.Uploads != nil {
		UploadRoutes(r, h, g)
	}
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, fn := range handlers {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}
