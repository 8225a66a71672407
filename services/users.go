package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"cityfix-be/errs"
	"cityfix-be/identity"
	"cityfix-be/models"
	"cityfix-be/store"

	"go.uber.org/zap"
)

// RoleResolver looks a caller's role up by email on every call.
type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (models.Role, error)
}

type Users struct {
	users    store.UserStore
	identity identity.Provider
	log      *zap.Logger
	now      func() time.Time
}

var _ RoleResolver = (*Users)(nil)

func NewUsers(users store.UserStore, idp identity.Provider, log *zap.Logger) *Users {
	return &Users{users: users, identity: idp, log: log, now: time.Now}
}

type Registration struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Phone       string `json:"phone"`
}

type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Phone       *string `json:"phone"`
}

func (p ProfileUpdate) empty() bool {
	return p.DisplayName == nil && p.PhotoURL == nil && p.Phone == nil
}

type NewStaff struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Phone       string `json:"phone"`
}

// ResolveRole returns the stored role for email; an unknown email is a
// citizen.
func (s *Users) ResolveRole(ctx context.Context, email string) (models.Role, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.Citizen, nil
	}
	if err != nil {
		return "", errs.Upstream(err, "Failed to look up role")
	}
	return u.EffectiveRole(), nil
}

// Caller returns the user record behind a verified identity. A caller with no
// record is Forbidden: every privileged or mutating route requires one.
func (s *Users) Caller(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, errs.New(errs.Unauthenticated, "Unauthorized access")
	}
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.New(errs.Forbidden, "Forbidden access")
	}
	if err != nil {
		return nil, errs.Upstream(err, "Failed to look up user")
	}
	return u, nil
}

// Register creates the profile for email unless one exists. Repeat calls
// return the stored profile untouched.
func (s *Users) Register(ctx context.Context, r Registration) (*models.User, bool, error) {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return nil, false, errs.New(errs.InvalidInput, "Email is required")
	}
	u := &models.User{
		UID:         r.UID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		Phone:       r.Phone,
		Role:        models.Citizen,
		CreatedAt:   s.now(),
	}
	stored, created, err := s.users.RegisterUser(ctx, u)
	if err != nil {
		return nil, false, errs.Upstream(err, "Failed to register user")
	}
	return stored, created, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	return u, nil
}

func (s *Users) List(ctx context.Context, search string) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx, store.UserFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, errs.Upstream(err, "Failed to list users")
	}
	return users, nil
}

func (s *Users) SetRole(ctx context.Context, id string, role models.Role) error {
	matched, err := s.users.UpdateUser(ctx, store.UserMatch{ID: id}, store.UserChange{Role: role})
	if err != nil {
		return storeErr(err, "User")
	}
	if !matched {
		return errs.New(errs.NotFound, "User not found")
	}
	return nil
}

// UpdateProfile edits the caller's own profile and mirrors the display
// fields onto the identity account.
func (s *Users) UpdateProfile(ctx context.Context, caller *identity.Identity, p ProfileUpdate) (*models.User, error) {
	if p.empty() {
		return nil, errs.New(errs.InvalidInput, "No fields to update")
	}
	matched, err := s.users.UpdateUser(ctx, store.UserMatch{Email: caller.Email}, store.UserChange{
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		Phone:       p.Phone,
	})
	if err != nil {
		return nil, storeErr(err, "User")
	}
	if !matched {
		return nil, errs.New(errs.NotFound, "User not found")
	}

	if p.DisplayName != nil || p.PhotoURL != nil {
		err := s.identity.UpdateAccount(ctx, caller.UID, identity.AccountUpdate{
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
		})
		if err != nil {
			s.log.Warn("identity account update failed", zap.String("email", caller.Email), zap.Error(err))
		}
	}
	return s.GetByEmail(ctx, caller.Email)
}

func (s *Users) SetBlocked(ctx context.Context, id string, blocked bool) error {
	matched, err := s.users.UpdateUser(ctx, store.UserMatch{ID: id}, store.UserChange{Blocked: &blocked})
	if err != nil {
		return storeErr(err, "User")
	}
	if !matched {
		return errs.New(errs.NotFound, "User not found")
	}
	return nil
}

// AddStaff provisions an identity account and a staff profile. The account
// is removed again when the profile cannot be stored.
func (s *Users) AddStaff(ctx context.Context, in NewStaff) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.DisplayName == "" || in.Email == "" || in.Password == "" {
		return nil, errs.New(errs.InvalidInput, "Name, email and password are required")
	}

	uid, err := s.identity.CreateAccount(ctx, in.Email, in.Password, in.DisplayName)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		UID:         uid,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
		Phone:       in.Phone,
		Role:        models.Staff,
		CreatedAt:   s.now(),
	}
	stored, created, err := s.users.RegisterUser(ctx, u)
	if err == nil && !created {
		err = errs.New(errs.AlreadyDone, "A user with this email already exists")
	}
	if err != nil {
		if rbErr := s.identity.DeleteAccount(ctx, uid); rbErr != nil {
			s.log.Error("staff account rollback failed", zap.String("uid", uid), zap.Error(rbErr))
		}
		if errs.KindOf(err) == errs.AlreadyDone {
			return nil, err
		}
		return nil, errs.Upstream(err, "Failed to create staff")
	}
	return stored, nil
}

func (s *Users) UpdateStaff(ctx context.Context, id string, p ProfileUpdate) error {
	if p.empty() {
		return errs.New(errs.InvalidInput, "No fields to update")
	}
	match := store.UserMatch{ID: id, Role: models.Staff}
	staff, err := s.users.FindUser(ctx, match)
	if err != nil {
		return storeErr(err, "Staff")
	}
	matched, err := s.users.UpdateUser(ctx, match, store.UserChange{
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		Phone:       p.Phone,
	})
	if err != nil {
		return storeErr(err, "Staff")
	}
	if !matched {
		return errs.New(errs.NotFound, "Staff not found")
	}

	if staff.UID != "" && (p.DisplayName != nil || p.PhotoURL != nil) {
		err := s.identity.UpdateAccount(ctx, staff.UID, identity.AccountUpdate{
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
		})
		if err != nil {
			s.log.Warn("identity account update failed", zap.String("uid", staff.UID), zap.Error(err))
		}
	}
	return nil
}

// DeleteStaff removes a staff profile and revokes its identity account.
func (s *Users) DeleteStaff(ctx context.Context, id string) error {
	match := store.UserMatch{ID: id, Role: models.Staff}
	staff, err := s.users.FindUser(ctx, match)
	if err != nil {
		return storeErr(err, "Staff")
	}

	if staff.UID != "" {
		if err := s.identity.DeleteAccount(ctx, staff.UID); err != nil && !errs.Is(err, errs.NotFound) {
			return err
		}
	}

	deleted, err := s.users.DeleteUser(ctx, match)
	if err != nil {
		return storeErr(err, "Staff")
	}
	if !deleted {
		return errs.New(errs.NotFound, "Staff not found")
	}
	return nil
}

func (s *Users) ListStaff(ctx context.Context) ([]models.User, error) {
	staff, err := s.users.ListUsers(ctx, store.UserFilter{Role: models.Staff})
	if err != nil {
		return nil, errs.Upstream(err, "Failed to list staff")
	}
	return staff, nil
}
