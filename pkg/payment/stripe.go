package payment

import (
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
	"github.com/stripe/stripe-go/v74/refund"
)

type StripeService struct {
	secretKey  string
	successURL string
	cancelURL  string
}

func NewStripeService(secretKey, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession builds a one-off product+price pair and opens a
// checkout session for it. Metadata rides along so confirmation can map the
// session back to our user and package without a webhook.
func (s *StripeService) CreateCheckoutSession(userEmail, name, description string, amount float64, metadata map[string]string) (*stripe.CheckoutSession, error) {
	prod, err := product.New(&stripe.ProductParams{
		Name:        stripe.String(name),
		Description: stripe.String(description),
	})
	if err != nil {
		return nil, err
	}

	p, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(int64(amount * 100)), // major units to cents
		Currency:   stripe.String(string(stripe.CurrencyGBP)),
	})
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail: &userEmail,
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.ID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	return session.New(params)
}

// GetCheckoutSession retrieves a session with its payment intent expanded,
// so callers can check payment status and reach the charge for refunds.
func (s *StripeService) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")
	return session.Get(sessionID, params)
}

// RefundPaymentIntent refunds the full charge behind a payment intent.
func (s *StripeService) RefundPaymentIntent(paymentIntentID string) (*stripe.Refund, error) {
	return refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	})
}
