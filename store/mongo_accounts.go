package store

import (
	"context"
	"time"

	"cityfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *Mongo) InsertAccount(ctx context.Context, a *models.Account) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := m.accounts.InsertOne(ctx, a)
	return insertErr(err)
}

func (m *Mongo) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := m.accounts.FindOne(ctx, bson.M{"email": email}).Decode(&a); err != nil {
		return nil, findErr(err)
	}
	return &a, nil
}

func (m *Mongo) FindAccount(ctx context.Context, id string) (*models.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var a models.Account
	if err := m.accounts.FindOne(ctx, bson.M{"_id": oid}).Decode(&a); err != nil {
		return nil, findErr(err)
	}
	return &a, nil
}

func (m *Mongo) UpdateAccount(ctx context.Context, id string, ch AccountChange) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	set := bson.M{"updatedAt": time.Now()}
	if ch.DisplayName != nil {
		set["displayName"] = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		set["photoURL"] = *ch.PhotoURL
	}
	if ch.Password != nil {
		set["password"] = *ch.Password
	}
	res, err := m.accounts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) DeleteAccount(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := m.accounts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
