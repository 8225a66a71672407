package store

import (
	"context"

	"cityfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *Mongo) InsertPayment(ctx context.Context, p *models.Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := m.payments.InsertOne(ctx, p)
	return insertErr(err)
}

func (m *Mongo) FindPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	if err := m.payments.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&p); err != nil {
		return nil, findErr(err)
	}
	return &p, nil
}

func (m *Mongo) ListPayments(ctx context.Context, f PaymentFilter, limit int64) ([]models.Payment, error) {
	filter := bson.M{}
	if f.Purpose != "" {
		filter["purpose"] = f.Purpose
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lt"] = f.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	cursor, err := m.payments.Find(ctx, filter, newestFirst(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (m *Mongo) SumPayments(ctx context.Context) (float64, error) {
	cursor, err := m.payments.Aggregate(ctx, []bson.M{
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount_bdt"}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var totals []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, nil
	}
	return totals[0].Total, nil
}
