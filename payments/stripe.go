package payments

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

type Stripe struct {
	client *stripe.Client
}

var _ Provider = (*Stripe)(nil)

func NewStripe(secretKey string) *Stripe {
	return &Stripe{client: stripe.NewClient(secretKey)}
}

func checkoutParams(req CheckoutRequest) *stripe.CheckoutSessionCreateParams {
	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Metadata:           req.Metadata,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	return params
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	cs, err := s.client.V1CheckoutSessions.Create(ctx, checkoutParams(req))
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	cs, err := s.client.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}
	return sessionFromStripe(cs), nil
}

func sessionFromStripe(cs *stripe.CheckoutSession) *Session {
	sess := &Session{
		ID:            cs.ID,
		PaymentStatus: string(cs.PaymentStatus),
		CustomerEmail: cs.CustomerEmail,
		AmountTotal:   cs.AmountTotal,
		Metadata:      cs.Metadata,
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		sess.CustomerEmail = cs.CustomerDetails.Email
	}
	if cs.PaymentIntent != nil {
		sess.PaymentIntentID = cs.PaymentIntent.ID
	}
	return sess
}
