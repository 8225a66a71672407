package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"cityfix-be/errs"
	"cityfix-be/models"
	"cityfix-be/payments"
	"cityfix-be/store"

	"go.uber.org/zap"
)

// bdtPerUSD converts list prices for the card processor, which settles in USD.
const bdtPerUSD = 110

const (
	metaPurpose   = "purpose"
	metaPlan      = "plan"
	metaIssueID   = "issueId"
	metaAmountBDT = "amount_bdt"
	metaEmail     = "email"
)

// Payments opens checkout sessions and reconciles confirmed ones into
// entitlements and ledger records.
type Payments struct {
	provider      payments.Provider
	ledger        store.PaymentStore
	users         store.UserStore
	issues        *Issues
	siteDomain    string
	webhookSecret string
	log           *zap.Logger
	now           func() time.Time
}

type PaymentsConfig struct {
	SiteDomain    string
	WebhookSecret string
}

func NewPayments(provider payments.Provider, ledger store.PaymentStore, users store.UserStore, issues *Issues, cfg PaymentsConfig, log *zap.Logger) *Payments {
	return &Payments{
		provider:      provider,
		ledger:        ledger,
		users:         users,
		issues:        issues,
		siteDomain:    strings.TrimRight(cfg.SiteDomain, "/"),
		webhookSecret: cfg.WebhookSecret,
		log:           log,
		now:           time.Now,
	}
}

type CheckoutInput struct {
	Purpose models.Purpose
	Plan    string
	IssueID string
}

// Reconciliation reports what a confirmed session paid for.
type Reconciliation struct {
	Purpose       models.Purpose `json:"purpose"`
	Email         string         `json:"email,omitempty"`
	IssueID       string         `json:"issueId,omitempty"`
	TransactionID string         `json:"transactionId"`
	Duplicate     bool           `json:"duplicate"`
}

// usdCents converts a taka price to whole dollars, in cents.
func usdCents(bdt int64) int64 {
	return int64(math.Round(float64(bdt)/bdtPerUSD)) * 100
}

func (s *Payments) CreateCheckout(ctx context.Context, email string, in CheckoutInput) (*payments.CheckoutSession, error) {
	if _, err := models.ParsePurpose(string(in.Purpose)); err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "Unknown payment purpose")
	}
	if in.Purpose == models.PurposeBoost {
		if in.IssueID == "" {
			return nil, errs.New(errs.InvalidInput, "issueId is required for a boost")
		}
		if _, err := s.issues.Get(ctx, in.IssueID); err != nil {
			return nil, err
		}
	}

	bdt := in.Purpose.PriceBDT()
	req := payments.CheckoutRequest{
		LineItems: []payments.LineItem{{
			Name:       in.Purpose.ProductName(),
			Currency:   "usd",
			UnitAmount: usdCents(bdt),
			Quantity:   1,
		}},
		CustomerEmail: email,
		Metadata: map[string]string{
			metaPurpose:   string(in.Purpose),
			metaPlan:      in.Plan,
			metaIssueID:   in.IssueID,
			metaAmountBDT: strconv.FormatInt(bdt, 10),
			metaEmail:     email,
		},
		SuccessURL: s.siteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.siteDomain + "/dashboard/payment-cancelled",
	}

	session, err := s.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, errs.Upstream(err, "Failed to create checkout session")
	}
	return session, nil
}

// Reconcile applies the entitlement a paid session bought. Only the
// provider's view of the session is trusted. Running it again for the same
// transaction changes nothing and reports Duplicate.
func (s *Payments) Reconcile(ctx context.Context, sessionID string) (*Reconciliation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errs.New(errs.InvalidInput, "sessionId is required")
	}

	sess, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, errs.Upstream(err, "Failed to retrieve payment session")
	}
	if sess.PaymentStatus != payments.StatusPaid {
		return nil, errs.New(errs.PaymentIncomplete, "Payment not completed")
	}

	purpose, err := models.ParsePurpose(sess.Metadata[metaPurpose])
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "Unknown payment purpose")
	}
	txID := sess.PaymentIntentID
	if txID == "" {
		txID = sess.ID
	}
	email := sess.CustomerEmail
	if email == "" {
		email = sess.Metadata[metaEmail]
	}
	out := &Reconciliation{
		Purpose:       purpose,
		Email:         email,
		IssueID:       sess.Metadata[metaIssueID],
		TransactionID: txID,
	}

	if _, err := s.ledger.FindPayment(ctx, txID); err == nil {
		out.Duplicate = true
		return out, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, errs.Upstream(err, "Failed to read payment ledger")
	}

	amountBDT, err := strconv.ParseFloat(sess.Metadata[metaAmountBDT], 64)
	if err != nil {
		amountBDT = float64(sess.AmountTotal) / 100
	}

	switch purpose {
	case models.PurposeSubscribe:
		if err := s.grantPremium(ctx, email, txID); err != nil {
			return nil, err
		}
	case models.PurposeBoost:
		if out.IssueID == "" {
			return nil, errs.New(errs.InvalidInput, "Boost payment carries no issue")
		}
		if err := s.issues.applyPaidBoost(ctx, out.IssueID, txID, amountBDT); err != nil {
			return nil, err
		}
	}

	record := &models.Payment{
		TransactionID: txID,
		SessionID:     sess.ID,
		Email:         email,
		Purpose:       purpose,
		IssueID:       out.IssueID,
		Plan:          sess.Metadata[metaPlan],
		AmountBDT:     amountBDT,
		AmountUSD:     float64(sess.AmountTotal) / 100,
		CreatedAt:     s.now(),
	}
	if err := s.ledger.InsertPayment(ctx, record); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, errs.Upstream(err, "Failed to record payment")
		}
		out.Duplicate = true
	}

	s.log.Info("payment reconciled",
		zap.String("transaction", txID),
		zap.String("purpose", string(purpose)),
		zap.Bool("duplicate", out.Duplicate))
	return out, nil
}

func (s *Payments) grantPremium(ctx context.Context, email, txID string) error {
	if email == "" {
		return errs.New(errs.InvalidInput, "Subscription payment carries no email")
	}
	now := s.now()
	matched, err := s.users.UpdateUser(ctx,
		store.UserMatch{Email: email, PaymentNotIn: txID},
		store.UserChange{PremiumDate: &now, AddPayment: txID},
	)
	if err != nil {
		return errs.Upstream(err, "Failed to grant premium")
	}
	if matched {
		return nil
	}
	// Either the user is gone or this transaction was already credited.
	if _, err := s.users.FindUserByEmail(ctx, email); err != nil {
		return storeErr(err, "User")
	}
	return nil
}

// HandleWebhook verifies a provider event and reconciles completed sessions.
// It returns nil for events that carry nothing to reconcile.
func (s *Payments) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Reconciliation, error) {
	if s.webhookSecret == "" {
		return nil, errs.New(errs.InvalidOperation, "Webhooks are not configured")
	}
	event, err := payments.ParseWebhook(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "Invalid webhook signature")
	}
	if !event.Completed() {
		s.log.Debug("ignoring webhook event", zap.String("type", event.Type))
		return nil, nil
	}

	rec, err := s.Reconcile(ctx, event.SessionID)
	if errs.Is(err, errs.PaymentIncomplete) {
		// Async methods complete the session before the money settles; the
		// async_payment_succeeded event will follow.
		return nil, nil
	}
	return rec, err
}
