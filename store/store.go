// Package store holds the repository contracts the services depend on and
// their MongoDB implementations. Every mutation is a single atomic
// single-document operation; preconditions travel in the filter.
package store

import (
	"context"
	"errors"
	"time"

	"cityfix-be/models"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id")
)

// IssueFilter selects issues. Zero fields do not constrain.
type IssueFilter struct {
	Email              string
	AssignedStaffEmail string
	Category           string
	Statuses           []models.IssueStatus
	Priority           models.IssuePriority
	Search             string
	CreatedSince       time.Time
}

// IssueCond are preconditions evaluated atomically with an issue update.
type IssueCond struct {
	StatusIn     []models.IssueStatus
	Unassigned   bool
	AssignedTo   string
	NotReporter  string
	NotUpvotedBy string
	PriorityNot  models.IssuePriority
	PaymentNotIn string
}

// IssueChange is the set of atomic operators applied to one issue.
type IssueChange struct {
	Fields        *models.IssueFields
	Status        models.IssueStatus
	Priority      models.IssuePriority
	AssignedStaff string
	BoostedAt     *time.Time
	Upvoter       string // $inc upvote and $addToSet upvotedUsers
	Push          *models.TimelineEntry
	AddPayment    string
}

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	ID    string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

type IssueStore interface {
	InsertIssue(ctx context.Context, issue *models.Issue) error
	FindIssue(ctx context.Context, id string) (*models.Issue, error)
	// ListIssues returns matches ordered by priority rank then newest first.
	ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, error)
	RecentIssues(ctx context.Context, limit int64) ([]models.Issue, error)
	// UpdateIssue applies ch when the issue exists and cond holds. It reports
	// whether a document matched.
	UpdateIssue(ctx context.Context, id string, cond IssueCond, ch IssueChange) (bool, error)
	DeleteIssue(ctx context.Context, id string) (bool, error)
	CountIssues(ctx context.Context, f IssueFilter) (int64, error)
	// CountIssuesBy groups matches on field ("status" or "priority").
	CountIssuesBy(ctx context.Context, field string, f IssueFilter) ([]GroupCount, error)
}

type UserFilter struct {
	Role   models.Role
	Search string
}

type UserMatch struct {
	ID           string
	Email        string
	Role         models.Role
	PaymentNotIn string
}

type UserChange struct {
	DisplayName *string
	PhotoURL    *string
	Phone       *string
	Role        models.Role
	Blocked     *bool
	PremiumDate *time.Time // sets isPremium as well
	AddPayment  string
}

type UserStore interface {
	// RegisterUser inserts u unless a user with the same email exists. It
	// returns the stored user and whether it was created.
	RegisterUser(ctx context.Context, u *models.User) (*models.User, bool, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUser(ctx context.Context, m UserMatch) (*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, error)
	RecentUsers(ctx context.Context, limit int64) ([]models.User, error)
	UpdateUser(ctx context.Context, m UserMatch, ch UserChange) (bool, error)
	DeleteUser(ctx context.Context, m UserMatch) (bool, error)
}

type PaymentFilter struct {
	Purpose models.Purpose
	From    time.Time
	To      time.Time
}

type PaymentStore interface {
	// InsertPayment fails with ErrDuplicate when the transaction id is taken.
	InsertPayment(ctx context.Context, p *models.Payment) error
	FindPayment(ctx context.Context, transactionID string) (*models.Payment, error)
	ListPayments(ctx context.Context, f PaymentFilter, limit int64) ([]models.Payment, error)
	SumPayments(ctx context.Context) (float64, error)
}

type AccountChange struct {
	DisplayName *string
	PhotoURL    *string
	Password    *string // already hashed
}

type AccountStore interface {
	InsertAccount(ctx context.Context, a *models.Account) error
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	FindAccount(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, ch AccountChange) (bool, error)
	DeleteAccount(ctx context.Context, id string) (bool, error)
}
