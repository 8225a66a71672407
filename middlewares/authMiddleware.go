package middlewares

import (
	"strings"

	"cityfix-be/errs"
	"cityfix-be/identity"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const bearerScheme = "Bearer"

// IdentityGate verifies the bearer token and stores the resolved identity on
// the context.
func IdentityGate(verifier identity.Verifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Fail(c, log, errs.New(errs.Unauthenticated, "No authorization token provided"))
			return
		}

		// Extracting token from "Bearer <token>" format; the scheme is case-insensitive
		scheme, tokenString, _ := strings.Cut(authHeader, " ")
		tokenString = strings.TrimSpace(tokenString)
		if !strings.EqualFold(scheme, bearerScheme) || tokenString == "" {
			utils.Fail(c, log, errs.New(errs.Unauthenticated, "Malformed authorization header"))
			return
		}

		id, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			if errs.KindOf(err) != errs.UpstreamFailure {
				err = errs.Wrap(err, errs.Unauthenticated, errs.Message(err))
			}
			utils.Fail(c, log, err)
			return
		}

		utils.SetIdentity(c, id)
		c.Next()
	}
}
