package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Account is a credential record owned by the identity provider. Profiles
// live in User; an Account only proves who a caller is.
type Account struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Password    string             `bson:"password,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a *Account) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

func (a *Account) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(candidate))
	return err == nil
}
