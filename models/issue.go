package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "pending"
	InProgress IssueStatus = "in-progress"
	Resolved   IssueStatus = "resolved"
	Rejected   IssueStatus = "rejected"
)

// Statuses lists every status in lifecycle order.
var Statuses = []IssueStatus{Pending, InProgress, Resolved, Rejected}

// ParseStatus rejects anything outside the closed status set.
func ParseStatus(s string) (IssueStatus, error) {
	switch IssueStatus(s) {
	case Pending, InProgress, Resolved, Rejected:
		return IssueStatus(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Terminal reports whether no further transition is defined from s.
func (s IssueStatus) Terminal() bool {
	switch s {
	case Resolved, Rejected:
		return true
	}
	return false
}

var transitions = map[IssueStatus][]IssueStatus{
	Pending:    {InProgress, Resolved, Rejected},
	InProgress: {Resolved, Rejected},
}

// CanTransition reports whether an issue in status from may move to status to.
func CanTransition(from, to IssueStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which to is reachable.
func SourcesFor(to IssueStatus) []IssueStatus {
	var from []IssueStatus
	for _, s := range Statuses {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// IssuePriority enum
type IssuePriority string

const (
	Normal IssuePriority = "Normal"
	High   IssuePriority = "High"
)

func ParsePriority(s string) (IssuePriority, error) {
	switch IssuePriority(s) {
	case Normal, High:
		return IssuePriority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

// Rank orders priorities for listing; higher surfaces first.
func (p IssuePriority) Rank() int {
	if p == High {
		return 1
	}
	return 0
}

// TimelineEntry is one line of an issue's audit trail.
type TimelineEntry struct {
	Text      string    `bson:"text" json:"text"`
	Date      time.Time `bson:"date" json:"date"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title              string             `bson:"title,omitempty" json:"title,omitempty"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Category           string             `bson:"category,omitempty" json:"category,omitempty"`
	Location           string             `bson:"location,omitempty" json:"location,omitempty"`
	Image              string             `bson:"image,omitempty" json:"image,omitempty"`
	Email              string             `bson:"email" json:"email"`
	Status             IssueStatus        `bson:"status" json:"status"`
	Priority           IssuePriority      `bson:"priority" json:"priority"`
	Upvote             int                `bson:"upvote" json:"upvote"`
	UpvotedUsers       []string           `bson:"upvotedUsers" json:"upvotedUsers"`
	AssignedStaffEmail string             `bson:"assignedStaffEmail,omitempty" json:"assignedStaffEmail,omitempty"`
	Timeline           []TimelineEntry    `bson:"timeline" json:"timeline"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	BoostedAt          *time.Time         `bson:"boostedAt,omitempty" json:"boostedAt,omitempty"`
	// AppliedPayments holds the transaction ids already credited to this issue.
	AppliedPayments []string `bson:"appliedPayments,omitempty" json:"-"`
}

// IssueFields are the citizen-editable parts of an issue.
type IssueFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// Empty reports whether no field was supplied.
func (f IssueFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Category == nil && f.Location == nil && f.Image == nil
}

// NewIssue builds a freshly reported issue.
func NewIssue(f IssueFields, email string, now time.Time) *Issue {
	issue := &Issue{
		Email:        email,
		Status:       Pending,
		Priority:     Normal,
		Upvote:       0,
		UpvotedUsers: []string{},
		Timeline:     []TimelineEntry{{Text: "Issue reported", Date: now}},
		CreatedAt:    now,
	}
	f.ApplyTo(issue)
	return issue
}

// ApplyTo copies the supplied fields onto issue.
func (f IssueFields) ApplyTo(issue *Issue) {
	if f.Title != nil {
		issue.Title = *f.Title
	}
	if f.Description != nil {
		issue.Description = *f.Description
	}
	if f.Category != nil {
		issue.Category = *f.Category
	}
	if f.Location != nil {
		issue.Location = *f.Location
	}
	if f.Image != nil {
		issue.Image = *f.Image
	}
}

// HasUpvoted reports whether email is already among the upvoters.
func (i *Issue) HasUpvoted(email string) bool {
	for _, u := range i.UpvotedUsers {
		if u == email {
			return true
		}
	}
	return false
}
