package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tutor-billing/internal/domain/billing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/charge"
	"github.com/stripe/stripe-go/v75/customer"
	"github.com/stripe/stripe-go/v75/paymentintent"
	"github.com/stripe/stripe-go/v75/paymentmethod"
	"github.com/stripe/stripe-go/v75/refund"
	"github.com/stripe/stripe-go/v75/webhook"
)

// VerificationAmountCents is the micro-charge used to validate and save a card.
const VerificationAmountCents = 50

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type CustomerParams struct {
	StudentID uuid.UUID
	Email     string
	Name      string
}

type VerificationParams struct {
	CustomerID string
	StudentID  uuid.UUID
	Currency   string
}

type ChargeParams struct {
	CustomerID      string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	IdempotencyKey  string

	PaymentID          uuid.UUID
	SessionsStudentsID uuid.UUID
	StudentID          uuid.UUID
}

type Intent struct {
	ID             string
	ClientSecret   string
	Status         string
	LatestChargeID string
	FailureMessage string
}

type Settlement struct {
	ChargeID   string
	FeeCents   int64
	NetCents   int64
	ReceiptURL string
}

// Event is a verified provider event. Intent is set for PaymentIntent events.
type Event struct {
	ID     string
	Type   string
	Intent *billing.IntentEvent
}

// Client talks to Stripe with the process-wide secret key.
type Client struct {
	secretKey     string
	webhookSecret string
}

func New(secretKey, webhookSecret string) *Client {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &Client{secretKey: secretKey, webhookSecret: webhookSecret}
}

func (c *Client) ready(op string) error {
	if c.secretKey == "" {
		return billing.Config(op, "STRIPE_SECRET_KEY not configured")
	}
	return nil
}

func (c *Client) CreateCustomer(ctx context.Context, p CustomerParams) (string, error) {
	if err := c.ready("stripe.CreateCustomer"); err != nil {
		return "", err
	}
	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			billing.MetaStudentID: p.StudentID.String(),
		},
	}
	params.Context = ctx
	if p.Email != "" {
		params.Email = stripe.String(p.Email)
	}
	if p.Name != "" {
		params.Name = stripe.String(p.Name)
	}

	cus, err := customer.New(params)
	if err != nil {
		return "", billing.Provider("stripe.CreateCustomer", wrapStripeError(err))
	}
	return cus.ID, nil
}

// CreateVerificationIntent creates the interactive micro-charge whose card is
// saved for later off-session use.
func (c *Client) CreateVerificationIntent(ctx context.Context, p VerificationParams) (*Intent, error) {
	if err := c.ready("stripe.CreateVerificationIntent"); err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(VerificationAmountCents),
		Currency:           stripe.String(p.Currency),
		Customer:           stripe.String(p.CustomerID),
		SetupFutureUsage:   stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Description:        stripe.String("Card verification"),
	}
	params.Context = ctx
	params.AddMetadata(billing.MetaType, string(billing.SubtypeVerification))
	params.AddMetadata(billing.MetaStudentID, p.StudentID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, billing.Provider("stripe.CreateVerificationIntent", wrapStripeError(err))
	}
	return buildIntent(pi), nil
}

// ChargeOffSession confirms a charge against the saved payment method. On a
// decline the returned Intent may still carry the provider's intent id.
func (c *Client) ChargeOffSession(ctx context.Context, p ChargeParams) (*Intent, error) {
	if err := c.ready("stripe.ChargeOffSession"); err != nil {
		return nil, err
	}
	if p.IdempotencyKey == "" {
		return nil, billing.Validation("stripe.ChargeOffSession", "idempotency key is required")
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(p.Currency),
		Customer:      stripe.String(p.CustomerID),
		PaymentMethod: stripe.String(p.PaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Tutoring session"),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(p.IdempotencyKey)
	params.AddMetadata(billing.MetaType, string(billing.SubtypeSessionCharge))
	params.AddMetadata(billing.MetaPaymentID, p.PaymentID.String())
	params.AddMetadata(billing.MetaSessionsStudentsID, p.SessionsStudentsID.String())
	params.AddMetadata(billing.MetaStudentID, p.StudentID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		var partial *Intent
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.PaymentIntent != nil {
			partial = buildIntent(stripeErr.PaymentIntent)
		}
		return partial, billing.Provider("stripe.ChargeOffSession", wrapStripeError(err))
	}
	return buildIntent(pi), nil
}

// Settlement reads fee/net from the charge's balance transaction.
func (c *Client) Settlement(ctx context.Context, chargeID string) (*Settlement, error) {
	if err := c.ready("stripe.Settlement"); err != nil {
		return nil, err
	}
	params := &stripe.ChargeParams{}
	params.Context = ctx
	params.AddExpand("balance_transaction")

	ch, err := charge.Get(chargeID, params)
	if err != nil {
		return nil, billing.Provider("stripe.Settlement", wrapStripeError(err))
	}
	s := &Settlement{ChargeID: ch.ID, ReceiptURL: ch.ReceiptURL}
	if ch.BalanceTransaction != nil {
		s.FeeCents = ch.BalanceTransaction.Fee
		s.NetCents = ch.BalanceTransaction.Net
	}
	return s, nil
}

func (c *Client) RefundIntent(ctx context.Context, intentID string) error {
	if err := c.ready("stripe.RefundIntent"); err != nil {
		return err
	}
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return billing.Provider("stripe.RefundIntent", wrapStripeError(err))
	}
	return nil
}

func (c *Client) PaymentMethodCard(ctx context.Context, paymentMethodID string) (*billing.Card, error) {
	if err := c.ready("stripe.PaymentMethodCard"); err != nil {
		return nil, err
	}
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx

	pm, err := paymentmethod.Get(paymentMethodID, params)
	if err != nil {
		return nil, billing.Provider("stripe.PaymentMethodCard", wrapStripeError(err))
	}
	card := &billing.Card{}
	if pm.Card != nil {
		card.Brand = string(pm.Card.Brand)
		card.Last4 = pm.Card.Last4
		card.Country = pm.Card.Country
	}
	return card, nil
}

// VerifyEvent checks the Stripe-Signature header and resolves PaymentIntent
// payloads into billing.IntentEvent.
func (c *Client) VerifyEvent(payload []byte, signature string) (*Event, error) {
	if c.webhookSecret == "" {
		return nil, billing.Config("stripe.VerifyEvent", "STRIPE_WEBHOOK_SECRET not configured")
	}
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, billing.Signature("stripe.VerifyEvent", err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed:
		intent, err := decodeIntentEvent(out.Type, event.Data.Raw)
		if err != nil {
			return nil, billing.Validation("stripe.VerifyEvent", err.Error())
		}
		out.Intent = intent
	}
	return out, nil
}

func decodeIntentEvent(eventType string, raw json.RawMessage) (*billing.IntentEvent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	ev := &billing.IntentEvent{
		Outcome:  billing.OutcomeSucceeded,
		Subtype:  billing.ParseSubtype(pi.Metadata[billing.MetaType]),
		IntentID: pi.ID,
	}
	if eventType == EventIntentFailed {
		ev.Outcome = billing.OutcomeFailed
	}
	if pi.Customer != nil {
		ev.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		ev.PaymentMethodID = pi.PaymentMethod.ID
	}
	if pi.LatestCharge != nil {
		ev.LatestChargeID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		ev.FailureMessage = pi.LastPaymentError.Msg
	}

	switch ev.Subtype {
	case billing.SubtypeSessionCharge:
		ev.PaymentID = parseUUID(pi.Metadata[billing.MetaPaymentID])
		ev.SessionsStudentsID = parseUUID(pi.Metadata[billing.MetaSessionsStudentsID])
		ev.StudentID = parseUUID(pi.Metadata[billing.MetaStudentID])
	case billing.SubtypeVerification:
		ev.StudentID = parseUUID(pi.Metadata[billing.MetaStudentID])
	}
	return ev, nil
}

func buildIntent(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
	if pi.LatestCharge != nil {
		in.LatestChargeID = pi.LatestCharge.ID
	}
	if pi.LastPaymentError != nil {
		in.FailureMessage = pi.LastPaymentError.Msg
	}
	return in
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		if stripeErr.Code != "" {
			return fmt.Errorf("%s (%s)", stripeErr.Msg, stripeErr.Code)
		}
		return errors.New(stripeErr.Msg)
	}
	return err
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
