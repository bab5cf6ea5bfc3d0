package payments

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/catalog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Metadata keys attached to the checkout session so the webhook can
// attribute the payment without any local state.
const (
	MetaPackageID = "package_id"
	MetaCredits   = "credits"
)

type CheckoutParams struct {
	UserID     uuid.UUID
	Package    *catalog.Package
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Provider abstracts the payment processor so handlers and tests don't
// depend on Stripe's network API.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, p *CheckoutParams) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, sigHeader string) (*stripe.Event, error)
}

type StripeProvider struct {
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

// CreateCheckoutSession opens a Stripe-hosted checkout for one credit
// package. The user id rides along as client_reference_id; package id and
// credit amount go into session metadata. No local state is written here.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp *CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(cp.Package.Currency),
					UnitAmount: stripe.Int64(cp.Package.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(cp.Package.Name + " credit package"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(cp.SuccessURL),
		CancelURL:         stripe.String(cp.CancelURL),
		ClientReferenceID: stripe.String(cp.UserID.String()),
	}
	params.Context = ctx
	params.AddMetadata(MetaPackageID, cp.Package.ID)
	params.AddMetadata(MetaCredits, strconv.Itoa(cp.Package.Credits))

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw body.
// Fails closed: an invalid signature returns an error and nothing is
// processed. API version mismatches are tolerated because dashboard-pinned
// event versions lag the SDK.
func (p *StripeProvider) VerifyWebhook(payload []byte, sigHeader string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}
