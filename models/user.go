package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	Citizen Role = "citizen"
	Staff   Role = "staff"
	Admin   Role = "admin"
)

// ParseRole accepts the legacy "user" value as citizen.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", string(Citizen), "user":
		return Citizen, nil
	case string(Staff):
		return Staff, nil
	case string(Admin):
		return Admin, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UID         string             `bson:"uid,omitempty" json:"uid,omitempty"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role        Role               `bson:"role" json:"role"`
	IsPremium   bool               `bson:"isPremium" json:"isPremium"`
	PremiumDate *time.Time         `bson:"premiumDate,omitempty" json:"premiumDate,omitempty"`
	Blocked     bool               `bson:"blocked,omitempty" json:"blocked,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`

	AppliedPayments []string `bson:"appliedPayments,omitempty" json:"-"`
}

// EffectiveRole treats a missing role as citizen.
func (u *User) EffectiveRole() Role {
	if u.Role == "" || u.Role == "user" {
		return Citizen
	}
	return u.Role
}
