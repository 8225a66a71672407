package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purpose tags what a checkout session pays for.
type Purpose string

const (
	PurposeSubscribe Purpose = "subscribe"
	PurposeBoost     Purpose = "boost"
)

func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeSubscribe, PurposeBoost:
		return Purpose(s), nil
	}
	return "", fmt.Errorf("invalid payment purpose %q", s)
}

// PriceBDT is the list price for each purpose in taka.
func (p Purpose) PriceBDT() int64 {
	switch p {
	case PurposeSubscribe:
		return 1000
	case PurposeBoost:
		return 100
	}
	return 0
}

func (p Purpose) ProductName() string {
	switch p {
	case PurposeSubscribe:
		return "Premium Subscription"
	case PurposeBoost:
		return "Issue Priority Boost"
	}
	return ""
}

// Payment is an immutable ledger record, one per reconciled transaction.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	SessionID     string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Email         string             `bson:"email" json:"email"`
	Purpose       Purpose            `bson:"purpose" json:"purpose"`
	IssueID       string             `bson:"issueId,omitempty" json:"issueId,omitempty"`
	Plan          string             `bson:"plan,omitempty" json:"plan,omitempty"`
	AmountBDT     float64            `bson:"amount_bdt" json:"amount_bdt"`
	AmountUSD     float64            `bson:"amount_usd,omitempty" json:"amount_usd,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
