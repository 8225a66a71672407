package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cityfix-be/errs"
	"cityfix-be/models"
)

func TestIssueScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "s@x.com", models.Staff)

	issue := f.report(t, "a@x.com", "Pothole")
	if issue.Status != models.Pending || issue.Priority != models.Normal || issue.Upvote != 0 {
		t.Fatalf("new issue = %s/%s/%d", issue.Status, issue.Priority, issue.Upvote)
	}
	id := issue.ID.Hex()

	got, err := f.issues.Upvote(ctx, "b@x.com", id)
	if err != nil {
		t.Fatalf("first upvote: %v", err)
	}
	if got.Upvote != 1 || len(got.UpvotedUsers) != 1 || got.UpvotedUsers[0] != "b@x.com" {
		t.Errorf("after upvote: %d %v", got.Upvote, got.UpvotedUsers)
	}

	if _, err := f.issues.Upvote(ctx, "b@x.com", id); !errs.Is(err, errs.AlreadyDone) {
		t.Errorf("second upvote err = %v, want AlreadyDone", err)
	}
	if _, err := f.issues.Upvote(ctx, "a@x.com", id); !errs.Is(err, errs.InvalidOperation) {
		t.Errorf("reporter upvote err = %v, want InvalidOperation", err)
	}
	if n := f.issue(t, id).Upvote; n != 1 {
		t.Errorf("upvote = %d after rejected votes, want 1", n)
	}

	before := len(f.issue(t, id).Timeline)
	boosted, err := f.issues.Boost(ctx, "s@x.com", id)
	if err != nil {
		t.Fatalf("boost: %v", err)
	}
	if boosted.Priority != models.High || len(boosted.Timeline) != before+1 {
		t.Errorf("after boost: %s, timeline %d (was %d)", boosted.Priority, len(boosted.Timeline), before)
	}

	assigned, err := f.issues.AssignStaff(ctx, "admin@x.com", id, "s@x.com")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssignedStaffEmail != "s@x.com" {
		t.Errorf("assignee = %q", assigned.AssignedStaffEmail)
	}

	f.seedUser(t, "t@x.com", models.Staff)
	if _, err := f.issues.AssignStaff(ctx, "admin@x.com", id, "t@x.com"); !errs.Is(err, errs.AlreadyAssigned) {
		t.Errorf("reassign err = %v, want AlreadyAssigned", err)
	}
	if got := f.issue(t, id).AssignedStaffEmail; got != "s@x.com" {
		t.Errorf("assignee changed to %q", got)
	}
}

func TestUpvoteCounterMatchesVoters(t *testing.T) {
	f := newFixture(t)
	id := f.report(t, "a@x.com", "Broken bench").ID.Hex()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := fmt.Sprintf("v%d@x.com", i%10)
			if i%7 == 0 {
				voter = "a@x.com"
			}
			_, _ = f.issues.Upvote(context.Background(), voter, id)
		}(i)
	}
	wg.Wait()

	issue := f.issue(t, id)
	if issue.Upvote != len(issue.UpvotedUsers) {
		t.Errorf("upvote = %d, voters = %d", issue.Upvote, len(issue.UpvotedUsers))
	}
	if issue.HasUpvoted("a@x.com") {
		t.Error("reporter is among the upvoters")
	}
}

func TestUpvoteMissingIssue(t *testing.T) {
	f := newFixture(t)
	_, err := f.issues.Upvote(context.Background(), "b@x.com", "000000000000000000000000")
	if !errs.Is(err, errs.NotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestEditOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "admin@x.com", models.Admin)

	pending := f.report(t, "a@x.com", "Leak").ID.Hex()
	edited, err := f.issues.Edit(ctx, "a@x.com", pending, models.IssueFields{Title: strPtr("Big leak"), Location: strPtr("Main St")})
	if err != nil {
		t.Fatalf("edit pending: %v", err)
	}
	if edited.Title != "Big leak" || edited.Location != "Main St" {
		t.Errorf("edit not persisted: %+v", edited)
	}

	for _, status := range []models.IssueStatus{models.InProgress, models.Resolved} {
		id := f.report(t, "a@x.com", "Leak").ID.Hex()
		if _, err := f.issues.ChangeStatus(ctx, "admin@x.com", id, status); err != nil {
			t.Fatalf("move to %s: %v", status, err)
		}
		_, err := f.issues.Edit(ctx, "a@x.com", id, models.IssueFields{Title: strPtr("changed")})
		if !errs.Is(err, errs.InvalidState) {
			t.Errorf("edit %s err = %v, want InvalidState", status, err)
		}
		if got := f.issue(t, id).Title; got != "Leak" {
			t.Errorf("%s issue title changed to %q", status, got)
		}
	}
}

func TestEditAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "admin@x.com", models.Admin)
	f.seedUser(t, "c@x.com", models.Citizen)
	id := f.report(t, "a@x.com", "Graffiti").ID.Hex()

	if _, err := f.issues.Edit(ctx, "c@x.com", id, models.IssueFields{Title: strPtr("x")}); !errs.Is(err, errs.Forbidden) {
		t.Errorf("stranger edit err = %v, want Forbidden", err)
	}
	if _, err := f.issues.Edit(ctx, "admin@x.com", id, models.IssueFields{Title: strPtr("Graffiti on wall")}); err != nil {
		t.Errorf("admin edit: %v", err)
	}
	if _, err := f.issues.Edit(ctx, "a@x.com", id, models.IssueFields{}); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("empty edit err = %v, want InvalidInput", err)
	}
	if err := f.issues.Delete(ctx, "c@x.com", id); !errs.Is(err, errs.Forbidden) {
		t.Errorf("stranger delete err = %v, want Forbidden", err)
	}
}

func TestDeleteIgnoresStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "admin@x.com", models.Admin)
	id := f.report(t, "a@x.com", "Fallen tree").ID.Hex()
	if _, err := f.issues.Reject(ctx, "admin@x.com", id); err != nil {
		t.Fatal(err)
	}

	if err := f.issues.Delete(ctx, "a@x.com", id); err != nil {
		t.Fatalf("delete rejected issue: %v", err)
	}
	if _, err := f.issues.Get(ctx, id); !errs.Is(err, errs.NotFound) {
		t.Errorf("get after delete err = %v, want NotFound", err)
	}
}

func TestListOrdersHighPriorityThenNewest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.report(t, "a@x.com", "first")
	_ = f.report(t, "a@x.com", "second")
	c := f.report(t, "b@x.com", "third")
	d := f.report(t, "b@x.com", "fourth")
	for _, issue := range []*models.Issue{a, c} {
		if _, err := f.issues.Boost(ctx, "s@x.com", issue.ID.Hex()); err != nil {
			t.Fatal(err)
		}
	}

	list, err := f.issues.List(ctx, IssueQuery{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, issue := range list {
		got = append(got, issue.Title)
	}
	want := []string{"third", "first", "fourth", "second"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	mine, err := f.issues.List(ctx, IssueQuery{Email: "b@x.com"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != c.ID || mine[1].ID != d.ID {
		t.Errorf("filtered list = %v", mine)
	}

	if _, err := f.issues.List(ctx, IssueQuery{Status: "Closed"}); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("bad status filter err = %v, want InvalidInput", err)
	}

	for priority, want := range map[string]string{
		"High":   "[third first]",
		"Normal": "[fourth second]",
		"all":    "[third first fourth second]",
	} {
		list, err := f.issues.List(ctx, IssueQuery{Priority: priority})
		if err != nil {
			t.Fatalf("priority %s: %v", priority, err)
		}
		var titles []string
		for _, issue := range list {
			titles = append(titles, issue.Title)
		}
		if fmt.Sprint(titles) != want {
			t.Errorf("priority %s = %v, want %s", priority, titles, want)
		}
	}
	if _, err := f.issues.List(ctx, IssueQuery{Priority: "urgent"}); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("bad priority filter err = %v, want InvalidInput", err)
	}
}

func TestBoostTwiceAddsOneEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.report(t, "a@x.com", "Open manhole").ID.Hex()

	first, err := f.issues.Boost(ctx, "s@x.com", id)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.issues.Boost(ctx, "s@x.com", id)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Timeline) != len(first.Timeline) {
		t.Errorf("timeline grew from %d to %d on repeat boost", len(first.Timeline), len(second.Timeline))
	}
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.report(t, "a@x.com", "Flooded road").ID.Hex()

	resolved, err := f.issues.ChangeStatus(ctx, "s@x.com", id, models.Resolved)
	if err != nil {
		t.Fatalf("pending -> resolved: %v", err)
	}
	last := resolved.Timeline[len(resolved.Timeline)-1]
	if last.Text != "Status changed to resolved" || last.UpdatedBy != "s@x.com" {
		t.Errorf("timeline entry = %+v", last)
	}

	for _, to := range []models.IssueStatus{models.Pending, models.InProgress, models.Rejected} {
		if _, err := f.issues.ChangeStatus(ctx, "s@x.com", id, to); !errs.Is(err, errs.InvalidState) {
			t.Errorf("resolved -> %s err = %v, want InvalidState", to, err)
		}
	}
	if got := f.issue(t, id); got.Status != models.Resolved || len(got.Timeline) != len(resolved.Timeline) {
		t.Errorf("rejected transition changed the issue: %s, %d entries", got.Status, len(got.Timeline))
	}
}

func TestChangeStatusToSameStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.report(t, "a@x.com", "Leaking hydrant").ID.Hex()

	if _, err := f.issues.ChangeStatus(ctx, "s@x.com", id, models.Pending); !errs.Is(err, errs.InvalidState) {
		t.Errorf("pending -> pending err = %v, want InvalidState", err)
	}
	if _, err := f.issues.ChangeStatus(ctx, "s@x.com", id, models.InProgress); err != nil {
		t.Fatal(err)
	}
	if _, err := f.issues.ChangeStatus(ctx, "s@x.com", id, models.InProgress); !errs.Is(err, errs.InvalidState) {
		t.Errorf("in-progress -> in-progress err = %v, want InvalidState", err)
	}
	got := f.issue(t, id)
	if len(got.Timeline) != 2 || got.Timeline[1].Text != "Status changed to in-progress" {
		t.Errorf("timeline = %+v", got.Timeline)
	}
}

func TestRejectAppendsTimeline(t *testing.T) {
	f := newFixture(t)
	id := f.report(t, "a@x.com", "Noise").ID.Hex()

	issue, err := f.issues.Reject(context.Background(), "admin@x.com", id)
	if err != nil {
		t.Fatal(err)
	}
	last := issue.Timeline[len(issue.Timeline)-1]
	if issue.Status != models.Rejected || last.Text != "Status changed to rejected" || last.UpdatedBy != "admin@x.com" {
		t.Errorf("reject = %s, %+v", issue.Status, last)
	}
}

func TestUpdateProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "s@x.com", models.Staff)
	f.seedUser(t, "t@x.com", models.Staff)
	id := f.report(t, "a@x.com", "Dark street").ID.Hex()

	if _, err := f.issues.UpdateProgress(ctx, "s@x.com", id, models.InProgress, "on it"); !errs.Is(err, errs.Forbidden) {
		t.Errorf("unassigned progress err = %v, want Forbidden", err)
	}
	if _, err := f.issues.AssignStaff(ctx, "admin@x.com", id, "s@x.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.issues.UpdateProgress(ctx, "t@x.com", id, models.InProgress, "mine now"); !errs.Is(err, errs.Forbidden) {
		t.Errorf("other staff progress err = %v, want Forbidden", err)
	}

	issue, err := f.issues.UpdateProgress(ctx, "s@x.com", id, models.InProgress, "Crew dispatched")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	last := issue.Timeline[len(issue.Timeline)-1]
	if issue.Status != models.InProgress || last.Text != "Crew dispatched" || last.UpdatedBy != "s@x.com" {
		t.Errorf("progress = %s, %+v", issue.Status, last)
	}

	issue, err = f.issues.UpdateProgress(ctx, "s@x.com", id, models.InProgress, "Parts ordered")
	if err != nil {
		t.Fatalf("progress note only: %v", err)
	}
	if last := issue.Timeline[len(issue.Timeline)-1]; issue.Status != models.InProgress || last.Text != "Parts ordered" {
		t.Errorf("note = %s, %+v", issue.Status, last)
	}

	before := len(issue.Timeline)
	if _, err := f.issues.UpdateProgress(ctx, "s@x.com", id, models.InProgress, "  "); !errs.Is(err, errs.InvalidState) {
		t.Errorf("same status without note err = %v, want InvalidState", err)
	}
	if got := f.issue(t, id); len(got.Timeline) != before {
		t.Errorf("timeline grew from %d to %d without a note", before, len(got.Timeline))
	}

	if _, err := f.issues.UpdateProgress(ctx, "s@x.com", id, models.Pending, "back"); !errs.Is(err, errs.InvalidState) {
		t.Errorf("in-progress -> pending err = %v, want InvalidState", err)
	}
}

func TestAssignStaffValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "c@x.com", models.Citizen)
	f.seedUser(t, "s@x.com", models.Staff)
	id := f.report(t, "a@x.com", "Trash").ID.Hex()

	if _, err := f.issues.AssignStaff(ctx, "admin@x.com", id, " "); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("blank staff err = %v, want InvalidInput", err)
	}
	if _, err := f.issues.AssignStaff(ctx, "admin@x.com", id, "c@x.com"); !errs.Is(err, errs.NotFound) {
		t.Errorf("citizen as staff err = %v, want NotFound", err)
	}
	if _, err := f.issues.AssignStaff(ctx, "admin@x.com", "000000000000000000000000", "s@x.com"); !errs.Is(err, errs.NotFound) {
		t.Errorf("missing issue err = %v, want NotFound", err)
	}
	if len(f.notifier.calls) != 0 {
		t.Errorf("notifications sent for failed assigns: %v", f.notifier.calls)
	}
}

func TestConcurrentAssignHasOneWinner(t *testing.T) {
	f := newFixture(t)
	staff := []string{"s1@x.com", "s2@x.com", "s3@x.com", "s4@x.com"}
	for _, s := range staff {
		f.seedUser(t, s, models.Staff)
	}
	id := f.report(t, "a@x.com", "Pothole").ID.Hex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for _, s := range staff {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			_, err := f.issues.AssignStaff(context.Background(), "admin@x.com", id, s)
			if err == nil {
				mu.Lock()
				winners = append(winners, s)
				mu.Unlock()
			} else if !errs.Is(err, errs.AlreadyAssigned) {
				t.Errorf("assign %s: %v", s, err)
			}
		}(s)
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %v, want exactly one", winners)
	}
	if got := f.issue(t, id).AssignedStaffEmail; got != winners[0] {
		t.Errorf("assignee = %q, winner = %q", got, winners[0])
	}
}

func TestAssignSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	f.seedUser(t, "s@x.com", models.Staff)
	id := f.report(t, "a@x.com", "Pothole").ID.Hex()

	if _, err := f.issues.AssignStaff(context.Background(), "admin@x.com", id, "s@x.com"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0] != "s@x.com" {
		t.Errorf("notifications = %v", f.notifier.calls)
	}
}

func TestCreateStoresFieldsAsGiven(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blank, err := f.issues.Create(ctx, "a@x.com", models.IssueFields{Title: strPtr("  "), Category: strPtr("Road")})
	if err != nil {
		t.Fatalf("blank title: %v", err)
	}
	if got := f.issue(t, blank.ID.Hex()); got.Title != "  " || got.Category != "Road" || got.Status != models.Pending {
		t.Errorf("stored = %q/%q/%s", got.Title, got.Category, got.Status)
	}

	empty, err := f.issues.Create(ctx, "a@x.com", models.IssueFields{})
	if err != nil {
		t.Fatalf("no fields: %v", err)
	}
	if got := f.issue(t, empty.ID.Hex()); got.Title != "" || len(got.Timeline) != 1 {
		t.Errorf("stored = %+v", got)
	}

	if _, err := f.issues.Create(ctx, "", models.IssueFields{Title: strPtr("Pothole")}); !errs.Is(err, errs.InvalidInput) {
		t.Errorf("no reporter err = %v, want InvalidInput", err)
	}
}

func TestStoreFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.st.Err = errors.New("connection reset")
	if _, err := f.issues.List(context.Background(), IssueQuery{}); !errs.Is(err, errs.UpstreamFailure) {
		t.Errorf("err = %v, want UpstreamFailure", err)
	}
}
