package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"cityfix-be/models"
	"cityfix-be/store/memstore"

	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeNotifier) StaffAssigned(_ context.Context, staffEmail string, _ *models.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, staffEmail)
	return f.err
}

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

type fixture struct {
	st       *memstore.Store
	users    *Users
	issues   *Issues
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	log := zap.NewNop()
	users := NewUsers(st, nil, log)
	n := &fakeNotifier{}
	issues := NewIssues(st, st, users, n, log)
	issues.now = stepClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return &fixture{st: st, users: users, issues: issues, notifier: n}
}

func (f *fixture) seedUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u, _, err := f.st.RegisterUser(context.Background(), &models.User{Email: email, Role: role, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (f *fixture) report(t *testing.T, reporter, title string) *models.Issue {
	t.Helper()
	issue, err := f.issues.Create(context.Background(), reporter, models.IssueFields{Title: &title})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func (f *fixture) issue(t *testing.T, id string) *models.Issue {
	t.Helper()
	issue, err := f.issues.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get issue %s: %v", id, err)
	}
	return issue
}

func strPtr(s string) *string { return &s }
