package store

import (
	"context"
	"fmt"
	"regexp"

	"cityfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func issueFilterDoc(f IssueFilter) bson.M {
	filter := bson.M{}
	if f.Email != "" {
		filter["email"] = f.Email
	}
	if f.AssignedStaffEmail != "" {
		filter["assignedStaffEmail"] = f.AssignedStaffEmail
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if !f.CreatedSince.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.CreatedSince}
	}
	return filter
}

func issueCondDoc(oid primitive.ObjectID, c IssueCond) bson.M {
	filter := bson.M{"_id": oid}
	if len(c.StatusIn) > 0 {
		filter["status"] = bson.M{"$in": c.StatusIn}
	}
	if c.Unassigned {
		filter["assignedStaffEmail"] = bson.M{"$in": bson.A{nil, ""}}
	}
	if c.AssignedTo != "" {
		filter["assignedStaffEmail"] = c.AssignedTo
	}
	if c.NotReporter != "" {
		filter["email"] = bson.M{"$ne": c.NotReporter}
	}
	if c.NotUpvotedBy != "" {
		filter["upvotedUsers"] = bson.M{"$ne": c.NotUpvotedBy}
	}
	if c.PriorityNot != "" {
		filter["priority"] = bson.M{"$ne": c.PriorityNot}
	}
	if c.PaymentNotIn != "" {
		filter["appliedPayments"] = bson.M{"$ne": c.PaymentNotIn}
	}
	return filter
}

func issueChangeDoc(ch IssueChange) bson.M {
	u := newUpdate()
	if f := ch.Fields; f != nil {
		if f.Title != nil {
			u.set["title"] = *f.Title
		}
		if f.Description != nil {
			u.set["description"] = *f.Description
		}
		if f.Category != nil {
			u.set["category"] = *f.Category
		}
		if f.Location != nil {
			u.set["location"] = *f.Location
		}
		if f.Image != nil {
			u.set["image"] = *f.Image
		}
	}
	if ch.Status != "" {
		u.set["status"] = ch.Status
	}
	if ch.Priority != "" {
		u.set["priority"] = ch.Priority
	}
	if ch.AssignedStaff != "" {
		u.set["assignedStaffEmail"] = ch.AssignedStaff
	}
	if ch.BoostedAt != nil {
		u.set["boostedAt"] = *ch.BoostedAt
	}
	if ch.Upvoter != "" {
		u.inc["upvote"] = 1
		u.addToSet["upvotedUsers"] = ch.Upvoter
	}
	if ch.AddPayment != "" {
		u.addToSet["appliedPayments"] = ch.AddPayment
	}
	if ch.Push != nil {
		u.push["timeline"] = *ch.Push
	}
	return u.doc()
}

func (m *Mongo) InsertIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := m.issues.InsertOne(ctx, issue)
	return insertErr(err)
}

func (m *Mongo) FindIssue(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var issue models.Issue
	if err := m.issues.FindOne(ctx, bson.M{"_id": oid}).Decode(&issue); err != nil {
		return nil, findErr(err)
	}
	return &issue, nil
}

// ListIssues sorts on a computed rank since "Normal" > "High" as strings.
func (m *Mongo) ListIssues(ctx context.Context, f IssueFilter) ([]models.Issue, error) {
	pipeline := []bson.M{
		{"$match": issueFilterDoc(f)},
		{"$addFields": bson.M{
			"priorityRank": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$priority", models.High}}, 1, 0}},
		}},
		{"$sort": bson.D{{Key: "priorityRank", Value: -1}, {Key: "createdAt", Value: -1}}},
		{"$project": bson.M{"priorityRank": 0}},
	}
	cursor, err := m.issues.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (m *Mongo) RecentIssues(ctx context.Context, limit int64) ([]models.Issue, error) {
	cursor, err := m.issues.Find(ctx, bson.M{}, newestFirst(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (m *Mongo) UpdateIssue(ctx context.Context, id string, cond IssueCond, ch IssueChange) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := m.issues.UpdateOne(ctx, issueCondDoc(oid, cond), issueChangeDoc(ch))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) DeleteIssue(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := m.issues.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *Mongo) CountIssues(ctx context.Context, f IssueFilter) (int64, error) {
	return m.issues.CountDocuments(ctx, issueFilterDoc(f))
}

func (m *Mongo) CountIssuesBy(ctx context.Context, field string, f IssueFilter) ([]GroupCount, error) {
	if field != "status" && field != "priority" {
		return nil, fmt.Errorf("cannot group issues by %q", field)
	}
	pipeline := []bson.M{
		{"$match": issueFilterDoc(f)},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	}
	cursor, err := m.issues.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []GroupCount{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
