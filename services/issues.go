package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/notify"
	"cityfix-be/store"

	"go.uber.org/zap"
)

// Issues is the issue lifecycle engine. Every mutation is one conditional
// update; when nothing matches, the issue is re-read to say why.
type Issues struct {
	issues   store.IssueStore
	users    store.UserStore
	roles    RoleResolver
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewIssues(issues store.IssueStore, users store.UserStore, roles RoleResolver, notifier notify.Notifier, log *zap.Logger) *Issues {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Issues{
		issues:   issues,
		users:    users,
		roles:    roles,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// IssueQuery filters List. Status, Priority and Category accept "" or "all"
// for any.
type IssueQuery struct {
	Email              string
	AssignedStaffEmail string
	Status             string
	Priority           string
	Category           string
	Search             string
}

func (s *Issues) Create(ctx context.Context, reporter string, f models.IssueFields) (*models.Issue, error) {
	if reporter == "" {
		return nil, errs.New(errs.InvalidInput, "Reporter email is required")
	}

	issue := models.NewIssue(f, reporter, s.now())
	if err := s.issues.InsertIssue(ctx, issue); err != nil {
		return nil, errs.Upstream(err, "Failed to create issue")
	}
	return issue, nil
}

func (s *Issues) List(ctx context.Context, q IssueQuery) ([]models.Issue, error) {
	f := store.IssueFilter{
		Email:              q.Email,
		AssignedStaffEmail: q.AssignedStaffEmail,
		Search:             strings.TrimSpace(q.Search),
	}
	if q.Category != "" && q.Category != "all" {
		f.Category = q.Category
	}
	if q.Status != "" && q.Status != "all" {
		status, err := models.ParseStatus(q.Status)
		if err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "Invalid status filter")
		}
		f.Statuses = []models.IssueStatus{status}
	}
	if q.Priority != "" && q.Priority != "all" {
		priority, err := models.ParsePriority(q.Priority)
		if err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "Invalid priority filter")
		}
		f.Priority = priority
	}

	issues, err := s.issues.ListIssues(ctx, f)
	if err != nil {
		return nil, errs.Upstream(err, "Failed to fetch issues")
	}
	return issues, nil
}

func (s *Issues) Get(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.issues.FindIssue(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Issue")
	}
	return issue, nil
}

// authorize allows the reporter and admins.
func (s *Issues) authorize(ctx context.Context, email string, issue *models.Issue) error {
	if email != "" && issue.Email == email {
		return nil
	}
	role, err := s.roles.ResolveRole(ctx, email)
	if err != nil {
		return err
	}
	if role != models.Admin {
		return errs.New(errs.Forbidden, "Only the reporter or an admin may change this issue")
	}
	return nil
}

// Edit merges citizen fields into a pending issue.
func (s *Issues) Edit(ctx context.Context, email, id string, f models.IssueFields) (*models.Issue, error) {
	if f.Empty() {
		return nil, errs.New(errs.InvalidInput, "No fields to update")
	}
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, email, issue); err != nil {
		return nil, err
	}

	cond := store.IssueCond{StatusIn: []models.IssueStatus{models.Pending}}
	ok, err := s.issues.UpdateIssue(ctx, id, cond, store.IssueChange{Fields: &f})
	if err != nil {
		return nil, storeErr(err, "Issue")
	}
	if !ok {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, errs.Newf(errs.InvalidState, "Only pending issues can be edited (status is %s)", current.Status)
	}
	return s.Get(ctx, id)
}

func (s *Issues) Delete(ctx context.Context, email, id string) error {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, email, issue); err != nil {
		return err
	}
	deleted, err := s.issues.DeleteIssue(ctx, id)
	if err != nil {
		return storeErr(err, "Issue")
	}
	if !deleted {
		return errs.New(errs.NotFound, "Issue not found")
	}
	return nil
}

// Upvote adds voter to the upvoters and bumps the counter in one update.
func (s *Issues) Upvote(ctx context.Context, voter, id string) (*models.Issue, error) {
	if voter == "" {
		return nil, errs.New(errs.InvalidInput, "Voter email is required")
	}
	cond := store.IssueCond{NotReporter: voter, NotUpvotedBy: voter}
	ok, err := s.issues.UpdateIssue(ctx, id, cond, store.IssueChange{Upvoter: voter})
	if err != nil {
		return nil, storeErr(err, "Issue")
	}

	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return issue, nil
	}
	switch {
	case issue.Email == voter:
		return nil, errs.New(errs.InvalidOperation, "You cannot upvote your own issue")
	case issue.HasUpvoted(voter):
		return nil, errs.New(errs.AlreadyDone, "You have already upvoted this issue")
	}
	return nil, errs.New(errs.InvalidState, "Issue changed during upvote, try again")
}

// Boost raises priority to High. Boosting a High issue is a no-op.
func (s *Issues) Boost(ctx context.Context, actor, id string) (*models.Issue, error) {
	now := s.now()
	cond := store.IssueCond{PriorityNot: models.High}
	ch := store.IssueChange{
		Priority: models.High,
		Push:     &models.TimelineEntry{Text: "Priority boosted", Date: now, UpdatedBy: actor},
	}
	if _, err := s.issues.UpdateIssue(ctx, id, cond, ch); err != nil {
		return nil, storeErr(err, "Issue")
	}
	return s.Get(ctx, id)
}

// applyPaidBoost credits one boost payment to an issue. A transaction that
// was already credited changes nothing.
func (s *Issues) applyPaidBoost(ctx context.Context, id, txID string, amountBDT float64) error {
	now := s.now()
	cond := store.IssueCond{PaymentNotIn: txID}
	ch := store.IssueChange{
		Priority:   models.High,
		BoostedAt:  &now,
		AddPayment: txID,
		Push:       &models.TimelineEntry{Text: fmt.Sprintf("Priority boosted (%g BDT payment)", amountBDT), Date: now},
	}
	ok, err := s.issues.UpdateIssue(ctx, id, cond, ch)
	if err != nil {
		return storeErr(err, "Issue")
	}
	if !ok {
		_, err := s.Get(ctx, id)
		return err
	}
	return nil
}

// transition is the single path by which an issue's status changes. The
// update only matches when the stored status may move to to, or is one of
// cond.StatusIn when the caller supplies them.
func (s *Issues) transition(ctx context.Context, id string, to models.IssueStatus, entry models.TimelineEntry, cond store.IssueCond) (*models.Issue, error) {
	if cond.StatusIn == nil {
		cond.StatusIn = models.SourcesFor(to)
	}
	if len(cond.StatusIn) == 0 {
		return nil, errs.Newf(errs.InvalidState, "No issue can move to %s", to)
	}
	entry.Date = s.now()
	if entry.Text == "" {
		entry.Text = fmt.Sprintf("Status changed to %s", to)
	}

	ok, err := s.issues.UpdateIssue(ctx, id, cond, store.IssueChange{Status: to, Push: &entry})
	if err != nil {
		return nil, storeErr(err, "Issue")
	}
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return issue, nil
	}
	if cond.AssignedTo != "" && issue.AssignedStaffEmail != cond.AssignedTo {
		return nil, errs.New(errs.Forbidden, "This issue is not assigned to you")
	}
	return nil, errs.Newf(errs.InvalidState, "Cannot change status from %s to %s", issue.Status, to)
}

func (s *Issues) ChangeStatus(ctx context.Context, actor, id string, to models.IssueStatus) (*models.Issue, error) {
	return s.transition(ctx, id, to, models.TimelineEntry{UpdatedBy: actor}, store.IssueCond{})
}

func (s *Issues) Reject(ctx context.Context, admin, id string) (*models.Issue, error) {
	return s.transition(ctx, id, models.Rejected, models.TimelineEntry{UpdatedBy: admin}, store.IssueCond{})
}

// UpdateProgress lets the assigned staff member move an issue along with a
// free-text note. A note alone may be logged against the current status
// while the issue is still open.
func (s *Issues) UpdateProgress(ctx context.Context, staff, id string, to models.IssueStatus, note string) (*models.Issue, error) {
	entry := models.TimelineEntry{Text: strings.TrimSpace(note), UpdatedBy: staff}
	cond := store.IssueCond{AssignedTo: staff}
	if entry.Text != "" && !to.Terminal() {
		cond.StatusIn = append(models.SourcesFor(to), to)
	}
	return s.transition(ctx, id, to, entry, cond)
}

// AssignStaff sets the assignee once. Concurrent assigns race on the same
// conditional update and exactly one wins.
func (s *Issues) AssignStaff(ctx context.Context, admin, id, staffEmail string) (*models.Issue, error) {
	staffEmail = strings.TrimSpace(staffEmail)
	if staffEmail == "" {
		return nil, errs.New(errs.InvalidInput, "Staff email is required")
	}
	_, err := s.users.FindUser(ctx, store.UserMatch{Email: staffEmail, Role: models.Staff})
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.New(errs.NotFound, "Staff not found")
	}
	if err != nil {
		return nil, errs.Upstream(err, "Failed to look up staff")
	}

	ch := store.IssueChange{
		AssignedStaff: staffEmail,
		Push: &models.TimelineEntry{
			Text:      fmt.Sprintf("Assigned to staff %s by %s", staffEmail, admin),
			Date:      s.now(),
			UpdatedBy: admin,
		},
	}
	ok, err := s.issues.UpdateIssue(ctx, id, store.IssueCond{Unassigned: true}, ch)
	if err != nil {
		return nil, storeErr(err, "Issue")
	}
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Newf(errs.AlreadyAssigned, "Issue is already assigned to %s", issue.AssignedStaffEmail)
	}

	if err := s.notifier.StaffAssigned(ctx, staffEmail, issue); err != nil {
		s.log.Warn("staff assignment notification failed",
			zap.String("issue", id), zap.String("staff", staffEmail), zap.Error(err))
	}
	return issue, nil
}
