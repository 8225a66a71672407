// Package payments talks to the hosted checkout provider. The provider is the
// source of truth for whether a session was paid.
package payments

import "context"

// StatusPaid is the only payment status that grants anything.
const StatusPaid = "paid"

type LineItem struct {
	Name       string
	Currency   string
	UnitAmount int64 // smallest currency unit
	Quantity   int64
}

type CheckoutRequest struct {
	LineItems     []LineItem
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID              string
	PaymentStatus   string
	CustomerEmail   string
	AmountTotal     int64
	PaymentIntentID string
	Metadata        map[string]string
}

//go:generate mockgen -destination=../mocks/payments_mock.go -package=mocks -mock_names=Provider=MockPaymentProvider cityfix-be/payments Provider

type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
