// Package memstore is an in-process implementation of the store contracts,
// used by tests. It mirrors the Mongo filters and operators closely enough
// that services behave the same against both.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"cityfix-be/models"
	"cityfix-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu       sync.Mutex
	issues   map[primitive.ObjectID]*models.Issue
	users    map[primitive.ObjectID]*models.User
	payments []*models.Payment
	accounts map[primitive.ObjectID]*models.Account

	// Err, when set, is returned by every call.
	Err error
}

func New() *Store {
	return &Store{
		issues:   map[primitive.ObjectID]*models.Issue{},
		users:    map[primitive.ObjectID]*models.User{},
		accounts: map[primitive.ObjectID]*models.Account{},
	}
}

var (
	_ store.IssueStore   = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.PaymentStore = (*Store)(nil)
	_ store.AccountStore = (*Store)(nil)
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

func copyIssue(i *models.Issue) models.Issue {
	c := *i
	c.UpvotedUsers = slices.Clone(i.UpvotedUsers)
	c.Timeline = slices.Clone(i.Timeline)
	c.AppliedPayments = slices.Clone(i.AppliedPayments)
	if i.BoostedAt != nil {
		t := *i.BoostedAt
		c.BoostedAt = &t
	}
	return c
}

func copyUser(u *models.User) models.User {
	c := *u
	c.AppliedPayments = slices.Clone(u.AppliedPayments)
	if u.PremiumDate != nil {
		t := *u.PremiumDate
		c.PremiumDate = &t
	}
	return c
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchIssue(i *models.Issue, f store.IssueFilter) bool {
	if f.Email != "" && i.Email != f.Email {
		return false
	}
	if f.AssignedStaffEmail != "" && i.AssignedStaffEmail != f.AssignedStaffEmail {
		return false
	}
	if f.Category != "" && i.Category != f.Category {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, i.Status) {
		return false
	}
	if f.Priority != "" && i.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !containsFold(i.Title, f.Search) && !containsFold(i.Description, f.Search) {
		return false
	}
	if !f.CreatedSince.IsZero() && i.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	return true
}

func holds(i *models.Issue, c store.IssueCond) bool {
	if len(c.StatusIn) > 0 && !slices.Contains(c.StatusIn, i.Status) {
		return false
	}
	if c.Unassigned && i.AssignedStaffEmail != "" {
		return false
	}
	if c.AssignedTo != "" && i.AssignedStaffEmail != c.AssignedTo {
		return false
	}
	if c.NotReporter != "" && i.Email == c.NotReporter {
		return false
	}
	if c.NotUpvotedBy != "" && slices.Contains(i.UpvotedUsers, c.NotUpvotedBy) {
		return false
	}
	if c.PriorityNot != "" && i.Priority == c.PriorityNot {
		return false
	}
	if c.PaymentNotIn != "" && slices.Contains(i.AppliedPayments, c.PaymentNotIn) {
		return false
	}
	return true
}

func apply(i *models.Issue, ch store.IssueChange) {
	if ch.Fields != nil {
		ch.Fields.ApplyTo(i)
	}
	if ch.Status != "" {
		i.Status = ch.Status
	}
	if ch.Priority != "" {
		i.Priority = ch.Priority
	}
	if ch.AssignedStaff != "" {
		i.AssignedStaffEmail = ch.AssignedStaff
	}
	if ch.BoostedAt != nil {
		t := *ch.BoostedAt
		i.BoostedAt = &t
	}
	if ch.Upvoter != "" {
		i.Upvote++
		if !slices.Contains(i.UpvotedUsers, ch.Upvoter) {
			i.UpvotedUsers = append(i.UpvotedUsers, ch.Upvoter)
		}
	}
	if ch.AddPayment != "" && !slices.Contains(i.AppliedPayments, ch.AddPayment) {
		i.AppliedPayments = append(i.AppliedPayments, ch.AddPayment)
	}
	if ch.Push != nil {
		i.Timeline = append(i.Timeline, *ch.Push)
	}
}

func (s *Store) InsertIssue(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, ok := s.issues[issue.ID]; ok {
		return store.ErrDuplicate
	}
	c := copyIssue(issue)
	s.issues[issue.ID] = &c
	return nil
}

func (s *Store) FindIssue(_ context.Context, id string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	issue, ok := s.issues[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyIssue(issue)
	return &c, nil
}

func (s *Store) ListIssues(_ context.Context, f store.IssueFilter) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Issue{}
	for _, issue := range s.issues {
		if matchIssue(issue, f) {
			out = append(out, copyIssue(issue))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].Priority.Rank(), out[b].Priority.Rank()
		if ra != rb {
			return ra > rb
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *Store) RecentIssues(ctx context.Context, limit int64) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Issue{}
	for _, issue := range s.issues {
		out = append(out, copyIssue(issue))
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateIssue(_ context.Context, id string, cond store.IssueCond, ch store.IssueChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	issue, ok := s.issues[oid]
	if !ok || !holds(issue, cond) {
		return false, nil
	}
	apply(issue, ch)
	return true, nil
}

func (s *Store) DeleteIssue(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	if _, ok := s.issues[oid]; !ok {
		return false, nil
	}
	delete(s.issues, oid)
	return true, nil
}

func (s *Store) CountIssues(_ context.Context, f store.IssueFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, issue := range s.issues {
		if matchIssue(issue, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountIssuesBy(_ context.Context, field string, f store.IssueFilter) ([]store.GroupCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := map[string]int64{}
	for _, issue := range s.issues {
		if !matchIssue(issue, f) {
			continue
		}
		switch field {
		case "status":
			counts[string(issue.Status)]++
		case "priority":
			counts[string(issue.Priority)]++
		}
	}
	groups := []store.GroupCount{}
	for id, n := range counts {
		groups = append(groups, store.GroupCount{ID: id, Count: n})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].ID < groups[b].ID })
	return groups, nil
}

// Issues returns every stored issue, for assertions.
func (s *Store) Issues() []models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		out = append(out, copyIssue(issue))
	}
	return out
}

func matchUser(u *models.User, m store.UserMatch) bool {
	if m.ID != "" && u.ID.Hex() != m.ID {
		return false
	}
	if m.Email != "" && u.Email != m.Email {
		return false
	}
	if m.Role != "" && u.Role != m.Role {
		return false
	}
	if m.PaymentNotIn != "" && slices.Contains(u.AppliedPayments, m.PaymentNotIn) {
		return false
	}
	return true
}

func (s *Store) findUser(m store.UserMatch) (*models.User, error) {
	if m.ID != "" {
		if _, err := objectID(m.ID); err != nil {
			return nil, err
		}
	}
	for _, u := range s.users {
		if matchUser(u, m) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) RegisterUser(_ context.Context, u *models.User) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	if existing, err := s.findUser(store.UserMatch{Email: u.Email}); err == nil {
		c := copyUser(existing)
		return &c, false, nil
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	c := copyUser(u)
	s.users[u.ID] = &c
	out := copyUser(u)
	return &out, true, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.FindUser(ctx, store.UserMatch{Email: email})
}

func (s *Store) FindUser(_ context.Context, m store.UserMatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, err := s.findUser(m)
	if err != nil {
		return nil, err
	}
	c := copyUser(u)
	return &c, nil
}

func (s *Store) sortedUsers(keep func(*models.User) bool) []models.User {
	out := []models.User{}
	for _, u := range s.users {
		if keep(u) {
			out = append(out, copyUser(u))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

func (s *Store) ListUsers(_ context.Context, f store.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.sortedUsers(func(u *models.User) bool {
		if f.Role != "" && u.Role != f.Role {
			return false
		}
		if f.Search != "" && !containsFold(u.DisplayName, f.Search) && !containsFold(u.Email, f.Search) {
			return false
		}
		return true
	}), nil
}

func (s *Store) RecentUsers(_ context.Context, limit int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.sortedUsers(func(*models.User) bool { return true })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, m store.UserMatch, ch store.UserChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	u, err := s.findUser(m)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if ch.DisplayName != nil {
		u.DisplayName = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		u.PhotoURL = *ch.PhotoURL
	}
	if ch.Phone != nil {
		u.Phone = *ch.Phone
	}
	if ch.Role != "" {
		u.Role = ch.Role
	}
	if ch.Blocked != nil {
		u.Blocked = *ch.Blocked
	}
	if ch.PremiumDate != nil {
		t := *ch.PremiumDate
		u.IsPremium = true
		u.PremiumDate = &t
	}
	if ch.AddPayment != "" && !slices.Contains(u.AppliedPayments, ch.AddPayment) {
		u.AppliedPayments = append(u.AppliedPayments, ch.AddPayment)
	}
	return true, nil
}

func (s *Store) DeleteUser(_ context.Context, m store.UserMatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	u, err := s.findUser(m)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	delete(s.users, u.ID)
	return true, nil
}

func (s *Store) InsertPayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.payments {
		if existing.TransactionID == p.TransactionID {
			return store.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	c := *p
	s.payments = append(s.payments, &c)
	return nil
}

func (s *Store) FindPayment(_ context.Context, transactionID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			c := *p
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func (s *Store) ListPayments(_ context.Context, f store.PaymentFilter, limit int64) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Payment{}
	for _, p := range s.payments {
		if f.Purpose != "" && p.Purpose != f.Purpose {
			continue
		}
		if !inRange(p.CreatedAt, f.From, f.To) {
			continue
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SumPayments(_ context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var total float64
	for _, p := range s.payments {
		total += p.AmountBDT
	}
	return total, nil
}

// Payments returns the ledger, for assertions.
func (s *Store) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *p)
	}
	return out
}

func (s *Store) InsertAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return store.ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	c := *a
	s.accounts[a.ID] = &c
	return nil
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, a := range s.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	a, ok := s.accounts[oid]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *Store) UpdateAccount(_ context.Context, id string, ch store.AccountChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	a, ok := s.accounts[oid]
	if !ok {
		return false, nil
	}
	if ch.DisplayName != nil {
		a.DisplayName = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		a.PhotoURL = *ch.PhotoURL
	}
	if ch.Password != nil {
		a.Password = *ch.Password
	}
	a.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	if _, ok := s.accounts[oid]; !ok {
		return false, nil
	}
	delete(s.accounts, oid)
	return true, nil
}
