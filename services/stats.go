package services

import (
	"context"
	"time"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/store"
)

const recentLimit = 5

// Stats computes dashboard projections from current store state.
type Stats struct {
	issues store.IssueStore
	users  store.UserStore
	ledger store.PaymentStore
	now    func() time.Time
}

func NewStats(issues store.IssueStore, users store.UserStore, ledger store.PaymentStore) *Stats {
	return &Stats{issues: issues, users: users, ledger: ledger, now: time.Now}
}

type AdminStats struct {
	TotalIssues        int64              `json:"totalIssues"`
	ResolvedCount      int64              `json:"resolvedCount"`
	PendingCount       int64              `json:"pendingCount"`
	RejectedCount      int64              `json:"rejectedCount"`
	InProgressCount    int64              `json:"inProgressCount"`
	TotalPaymentAmount float64            `json:"totalPaymentAmount"`
	LatestIssues       []models.Issue     `json:"latestIssues"`
	LatestPayments     []models.Payment   `json:"latestPayments"`
	LatestUsers        []models.User      `json:"latestUsers"`
	StatusStats        []store.GroupCount `json:"statusStats"`
	PriorityStats      []store.GroupCount `json:"priorityStats"`
}

type StaffStats struct {
	AssignedCount int64              `json:"assignedCount"`
	ResolvedCount int64              `json:"resolvedCount"`
	TodaysTasks   []models.Issue     `json:"todaysTasks"`
	StatusStats   []store.GroupCount `json:"statusStats"`
	PriorityStats []store.GroupCount `json:"priorityStats"`
}

func (s *Stats) countStatus(ctx context.Context, f store.IssueFilter, status models.IssueStatus) (int64, error) {
	f.Statuses = []models.IssueStatus{status}
	return s.issues.CountIssues(ctx, f)
}

func (s *Stats) Admin(ctx context.Context) (*AdminStats, error) {
	var (
		out AdminStats
		err error
	)
	all := store.IssueFilter{}

	if out.TotalIssues, err = s.issues.CountIssues(ctx, all); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	counts := []struct {
		status models.IssueStatus
		dst    *int64
	}{
		{models.Resolved, &out.ResolvedCount},
		{models.Pending, &out.PendingCount},
		{models.Rejected, &out.RejectedCount},
		{models.InProgress, &out.InProgressCount},
	}
	for _, c := range counts {
		if *c.dst, err = s.countStatus(ctx, all, c.status); err != nil {
			return nil, errs.Upstream(err, "Failed to load stats")
		}
	}

	if out.TotalPaymentAmount, err = s.ledger.SumPayments(ctx); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.LatestIssues, err = s.issues.RecentIssues(ctx, recentLimit); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.LatestPayments, err = s.ledger.ListPayments(ctx, store.PaymentFilter{}, recentLimit); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.LatestUsers, err = s.users.RecentUsers(ctx, recentLimit); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.StatusStats, err = s.issues.CountIssuesBy(ctx, "status", all); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.PriorityStats, err = s.issues.CountIssuesBy(ctx, "priority", all); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	return &out, nil
}

// Staff scopes the projections to the issues assigned to email.
func (s *Stats) Staff(ctx context.Context, email string) (*StaffStats, error) {
	var (
		out StaffStats
		err error
	)
	mine := store.IssueFilter{AssignedStaffEmail: email}

	if out.AssignedCount, err = s.issues.CountIssues(ctx, mine); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.ResolvedCount, err = s.countStatus(ctx, mine, models.Resolved); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}

	today := mine
	today.CreatedSince = startOfDay(s.now())
	today.Statuses = []models.IssueStatus{models.Pending, models.InProgress}
	if out.TodaysTasks, err = s.issues.ListIssues(ctx, today); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}

	if out.StatusStats, err = s.issues.CountIssuesBy(ctx, "status", mine); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	if out.PriorityStats, err = s.issues.CountIssuesBy(ctx, "priority", mine); err != nil {
		return nil, errs.Upstream(err, "Failed to load stats")
	}
	return &out, nil
}

// Payments lists ledger records newest first. month is "2006-01" or empty.
func (s *Stats) Payments(ctx context.Context, purpose, month string) ([]models.Payment, error) {
	var f store.PaymentFilter
	if purpose != "" && purpose != "all" {
		p, err := models.ParsePurpose(purpose)
		if err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "Invalid purpose filter")
		}
		f.Purpose = p
	}
	if month != "" {
		start, err := time.ParseInLocation("2006-01", month, s.now().Location())
		if err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "month must look like 2006-01")
		}
		f.From = start
		f.To = start.AddDate(0, 1, 0)
	}

	list, err := s.ledger.ListPayments(ctx, f, 0)
	if err != nil {
		return nil, errs.Upstream(err, "Failed to load payments")
	}
	return list, nil
}
