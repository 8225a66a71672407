package store

import (
	"context"
	"regexp"

	"cityfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func userMatchDoc(m UserMatch) (bson.M, error) {
	filter := bson.M{}
	if m.ID != "" {
		oid, err := objectID(m.ID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = oid
	}
	if m.Email != "" {
		filter["email"] = m.Email
	}
	if m.Role != "" {
		filter["role"] = m.Role
	}
	if m.PaymentNotIn != "" {
		filter["appliedPayments"] = bson.M{"$ne": m.PaymentNotIn}
	}
	return filter, nil
}

func userChangeDoc(ch UserChange) bson.M {
	u := newUpdate()
	if ch.DisplayName != nil {
		u.set["displayName"] = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		u.set["photoURL"] = *ch.PhotoURL
	}
	if ch.Phone != nil {
		u.set["phone"] = *ch.Phone
	}
	if ch.Role != "" {
		u.set["role"] = ch.Role
	}
	if ch.Blocked != nil {
		u.set["blocked"] = *ch.Blocked
	}
	if ch.PremiumDate != nil {
		u.set["isPremium"] = true
		u.set["premiumDate"] = *ch.PremiumDate
	}
	if ch.AddPayment != "" {
		u.addToSet["appliedPayments"] = ch.AddPayment
	}
	return u.doc()
}

func (m *Mongo) RegisterUser(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	res, err := m.users.UpdateOne(ctx,
		bson.M{"email": u.Email},
		bson.M{"$setOnInsert": u},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	if err == nil && res.UpsertedCount > 0 {
		return u, true, nil
	}
	existing, err := m.FindUserByEmail(ctx, u.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.FindUser(ctx, UserMatch{Email: email})
}

func (m *Mongo) FindUser(ctx context.Context, match UserMatch) (*models.User, error) {
	filter, err := userMatchDoc(match)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := m.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, findErr(err)
	}
	return &user, nil
}

func (m *Mongo) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = []bson.M{
			{"displayName": bson.M{"$regex": pattern, "$options": "i"}},
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	cursor, err := m.users.Find(ctx, filter, newestFirst(0))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *Mongo) RecentUsers(ctx context.Context, limit int64) ([]models.User, error) {
	cursor, err := m.users.Find(ctx, bson.M{}, newestFirst(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, match UserMatch, ch UserChange) (bool, error) {
	filter, err := userMatchDoc(match)
	if err != nil {
		return false, err
	}
	res, err := m.users.UpdateOne(ctx, filter, userChangeDoc(ch))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) DeleteUser(ctx context.Context, match UserMatch) (bool, error) {
	filter, err := userMatchDoc(match)
	if err != nil {
		return false, err
	}
	res, err := m.users.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
