package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	IssuesCollection   = "issues"
	UsersCollection    = "users"
	PaymentsCollection = "payments"
	AccountsCollection = "accounts"
)

// Mongo implements every repository over one database.
type Mongo struct {
	issues   *mongo.Collection
	users    *mongo.Collection
	payments *mongo.Collection
	accounts *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		issues:   db.Collection(IssuesCollection),
		users:    db.Collection(UsersCollection),
		payments: db.Collection(PaymentsCollection),
		accounts: db.Collection(AccountsCollection),
	}
}

var (
	_ IssueStore   = (*Mongo)(nil)
	_ UserStore    = (*Mongo)(nil)
	_ PaymentStore = (*Mongo)(nil)
	_ AccountStore = (*Mongo)(nil)
)

// EnsureIndexes creates the unique keys the repositories rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := func(coll *mongo.Collection, key string) error {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		return err
	}
	if err := unique(m.users, "email"); err != nil {
		return err
	}
	if err := unique(m.accounts, "email"); err != nil {
		return err
	}
	if err := unique(m.payments, "transactionId"); err != nil {
		return err
	}

	_, err := m.issues.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "assignedStaffEmail", Value: 1}}},
	})
	return err
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func findErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func newestFirst(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// update merges the operator documents that are non-empty.
type update struct {
	set      bson.M
	inc      bson.M
	addToSet bson.M
	push     bson.M
}

func newUpdate() *update {
	return &update{set: bson.M{}, inc: bson.M{}, addToSet: bson.M{}, push: bson.M{}}
}

func (u *update) doc() bson.M {
	doc := bson.M{}
	for op, fields := range map[string]bson.M{"$set": u.set, "$inc": u.inc, "$addToSet": u.addToSet, "$push": u.push} {
		if len(fields) > 0 {
			doc[op] = fields
		}
	}
	return doc
}
