package middlewares

import (
	"context"
	"slices"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallerLookup loads the user record behind a verified email.
type CallerLookup interface {
	Caller(ctx context.Context, email string) (*models.User, error)
}

// RequireRole must run after IdentityGate. The role is read from the store on
// every request so that role changes apply immediately.
func RequireRole(users CallerLookup, log *zap.Logger, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := utils.EmailFrom(c)
		if email == "" {
			utils.Fail(c, log, errs.New(errs.Unauthenticated, "Unauthorized access"))
			return
		}

		user, err := users.Caller(c.Request.Context(), email)
		if err != nil {
			utils.Fail(c, log, err)
			return
		}
		if !slices.Contains(roles, user.EffectiveRole()) {
			utils.Fail(c, log, errs.New(errs.Forbidden, "Forbidden access"))
			return
		}

		utils.SetUser(c, user)
		c.Next()
	}
}

func RequireAdmin(users CallerLookup, log *zap.Logger) gin.HandlerFunc {
	return RequireRole(users, log, models.Admin)
}

func RequireStaff(users CallerLookup, log *zap.Logger) gin.HandlerFunc {
	return RequireRole(users, log, models.Staff)
}

// RequireActive rejects callers whose account an admin has blocked.
func RequireActive(users CallerLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := utils.EmailFrom(c)
		if email == "" {
			utils.Fail(c, log, errs.New(errs.Unauthenticated, "Unauthorized access"))
			return
		}

		user, err := users.Caller(c.Request.Context(), email)
		if err != nil {
			utils.Fail(c, log, err)
			return
		}
		if user.Blocked {
			utils.Fail(c, log, errs.New(errs.Forbidden, "Your account has been blocked"))
			return
		}

		utils.SetUser(c, user)
		c.Next()
	}
}
