package payments

import (
	"encoding/json"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookEvent is the part of a provider event the reconciler cares about.
type WebhookEvent struct {
	Type      string
	SessionID string
}

// Completed reports whether the event announces a finished checkout.
func (e *WebhookEvent) Completed() bool {
	switch stripe.EventType(e.Type) {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return e.SessionID != ""
	}
	return false
}

// ParseWebhook verifies the Stripe-Signature header and extracts the session.
func ParseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{Type: string(event.Type)}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, err
		}
		out.SessionID = cs.ID
	}
	return out, nil
}
