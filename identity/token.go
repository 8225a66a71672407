package identity

import (
	"time"

	"cityfix-be/models"

	"github.com/dgrijalva/jwt-go"
)

// GenerateToken signs a token for account valid for the provider's TTL.
func (l *Local) GenerateToken(account *models.Account) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   account.ID.Hex(),
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(l.ttl).Unix(),
	})

	tokenString, err := token.SignedString(l.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
