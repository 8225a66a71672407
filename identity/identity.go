// Package identity verifies bearer credentials and manages the credential
// accounts behind them.
package identity

import "context"

// Identity is what a verified credential resolves to.
type Identity struct {
	UID    string
	Email  string
	Claims map[string]any
}

type AccountUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

//go:generate mockgen -destination=../mocks/identity_mock.go -package=mocks cityfix-be/identity Provider

type Provider interface {
	Verifier
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	DeleteAccount(ctx context.Context, providerID string) error
	UpdateAccount(ctx context.Context, providerID string, update AccountUpdate) error
	Login(ctx context.Context, email, password string) (string, error)
}
