// Package utils carries the request-scoped helpers shared by middlewares and
// controllers.
package utils

import (
	"cityfix-be/identity"
	"cityfix-be/models"

	"github.com/gin-gonic/gin"
)

const (
	identityKey  = "identity"
	userKey      = "user"
	requestIDKey = "request_id"
)

func SetIdentity(c *gin.Context, id *identity.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity the gate verified, or nil.
func IdentityFrom(c *gin.Context) *identity.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*identity.Identity)
	return id
}

// EmailFrom returns the verified caller email, or "".
func EmailFrom(c *gin.Context) string {
	if id := IdentityFrom(c); id != nil {
		return id.Email
	}
	return ""
}

func SetUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
}

// UserFrom returns the user record loaded by a role check, or nil.
func UserFrom(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
