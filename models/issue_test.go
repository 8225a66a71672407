package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to IssueStatus
		want     bool
	}{
		{Pending, InProgress, true},
		{Pending, Resolved, true},
		{Pending, Rejected, true},
		{Pending, Pending, false},
		{InProgress, InProgress, false},
		{InProgress, Resolved, true},
		{InProgress, Rejected, true},
		{InProgress, Pending, false},
		{Resolved, Pending, false},
		{Resolved, InProgress, false},
		{Resolved, Resolved, false},
		{Rejected, Pending, false},
		{Rejected, Rejected, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(Resolved)
	if len(got) != 2 || got[0] != Pending || got[1] != InProgress {
		t.Errorf("SourcesFor(resolved) = %v", got)
	}
	if got := SourcesFor(Pending); len(got) != 0 {
		t.Errorf("SourcesFor(pending) = %v, want none", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "in-progress", "resolved", "rejected"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "Pending", "In Progress", "closed"} {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) accepted", s)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{"": Citizen, "user": Citizen, "citizen": Citizen, "staff": Staff, "admin": Admin}
	for in, want := range tests {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRole("root"); err == nil {
		t.Error("ParseRole(root) accepted")
	}
}

func TestPriorityRankOrdersHighFirst(t *testing.T) {
	if High.Rank() <= Normal.Rank() {
		t.Errorf("High rank %d not above Normal rank %d", High.Rank(), Normal.Rank())
	}
}

func TestNewIssue(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	title := "Pothole"
	issue := NewIssue(IssueFields{Title: &title}, "a@x.com", now)

	if issue.Status != Pending || issue.Priority != Normal || issue.Upvote != 0 {
		t.Errorf("new issue = %s/%s/%d", issue.Status, issue.Priority, issue.Upvote)
	}
	if issue.Title != "Pothole" || issue.Email != "a@x.com" {
		t.Errorf("fields not applied: %+v", issue)
	}
	if len(issue.UpvotedUsers) != 0 || issue.UpvotedUsers == nil {
		t.Errorf("upvotedUsers = %v, want empty non-nil", issue.UpvotedUsers)
	}
	if len(issue.Timeline) != 1 || issue.Timeline[0].Text != "Issue reported" || !issue.Timeline[0].Date.Equal(now) {
		t.Errorf("timeline = %+v", issue.Timeline)
	}
}

func TestPurposePricing(t *testing.T) {
	if PurposeSubscribe.PriceBDT() != 1000 || PurposeBoost.PriceBDT() != 100 {
		t.Errorf("prices = %d/%d", PurposeSubscribe.PriceBDT(), PurposeBoost.PriceBDT())
	}
	if _, err := ParsePurpose("donate"); err == nil {
		t.Error("ParsePurpose(donate) accepted")
	}
}
