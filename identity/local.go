package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/store"

	"github.com/dgrijalva/jwt-go"
)

const minPasswordLen = 6

// Local keeps accounts in the document store and issues HS256 tokens.
type Local struct {
	accounts store.AccountStore
	secret   []byte
	ttl      time.Duration
}

var _ Provider = (*Local)(nil)

func NewLocal(accounts store.AccountStore, secret string, ttl time.Duration) *Local {
	return &Local{accounts: accounts, secret: []byte(secret), ttl: ttl}
}

// Verify accepts a token signed by this provider whose account still exists.
func (l *Local) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.Unauthenticated, "Invalid or expired token")
	}
	if !token.Valid {
		return nil, errs.New(errs.Unauthenticated, "Invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.New(errs.Unauthenticated, "Invalid token claims")
	}
	email, _ := claims["email"].(string)
	uid, _ := claims["uid"].(string)
	if email == "" || uid == "" {
		return nil, errs.New(errs.Unauthenticated, "Invalid token claims")
	}

	account, err := l.accounts.FindAccount(ctx, uid)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return nil, errs.New(errs.Unauthenticated, "Account has been revoked")
	}
	if err != nil {
		return nil, errs.Upstream(err, "Failed to verify token")
	}
	if account.Email != email {
		return nil, errs.New(errs.Unauthenticated, "Invalid token claims")
	}

	return &Identity{UID: uid, Email: email, Claims: map[string]any(claims)}, nil
}

func (l *Local) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", errs.New(errs.InvalidInput, "A valid email is required")
	}
	if len(password) < minPasswordLen {
		return "", errs.Newf(errs.InvalidInput, "Password must be at least %d characters", minPasswordLen)
	}

	now := time.Now()
	account := models.Account{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := account.HashPassword(); err != nil {
		return "", errs.Upstream(err, "Failed to create account")
	}
	if err := l.accounts.InsertAccount(ctx, &account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", errs.New(errs.AlreadyDone, "Email already in use")
		}
		return "", errs.Upstream(err, "Failed to create account")
	}
	return account.ID.Hex(), nil
}

func (l *Local) DeleteAccount(ctx context.Context, providerID string) error {
	deleted, err := l.accounts.DeleteAccount(ctx, providerID)
	if errors.Is(err, store.ErrInvalidID) {
		return errs.New(errs.InvalidInput, "Invalid account ID")
	}
	if err != nil {
		return errs.Upstream(err, "Failed to delete account")
	}
	if !deleted {
		return errs.New(errs.NotFound, "Account not found")
	}
	return nil
}

func (l *Local) UpdateAccount(ctx context.Context, providerID string, update AccountUpdate) error {
	matched, err := l.accounts.UpdateAccount(ctx, providerID, store.AccountChange{
		DisplayName: update.DisplayName,
		PhotoURL:    update.PhotoURL,
	})
	if errors.Is(err, store.ErrInvalidID) {
		return errs.New(errs.InvalidInput, "Invalid account ID")
	}
	if err != nil {
		return errs.Upstream(err, "Failed to update account")
	}
	if !matched {
		return errs.New(errs.NotFound, "Account not found")
	}
	return nil
}

// Login checks the password and returns a signed token.
func (l *Local) Login(ctx context.Context, email, password string) (string, error) {
	account, err := l.accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", errs.New(errs.Unauthenticated, "Invalid credentials")
	}
	if err != nil {
		return "", errs.Upstream(err, "Failed to log in")
	}
	if !account.ComparePassword(password) {
		return "", errs.New(errs.Unauthenticated, "Invalid credentials")
	}
	return l.GenerateToken(account)
}
