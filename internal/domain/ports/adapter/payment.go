package adapter

import (
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
)

// PayerDetails carries the contact fields the hosted checkout requires.
// Some gateway configurations reject empty optional fields, so the gateway
// implementation substitutes sentinel defaults before these reach the wire.
type PayerDetails struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
}

// CheckoutSession is everything a client needs to send the payer to the
// hosted checkout page: the gateway URL and the exact signed field set to
// POST to it.
type CheckoutSession struct {
	CheckoutURL string
	Params      map[string]string
}

// Notification is the parsed server-to-server callback body, exactly as
// reported by the gateway. Amount stays a string so the signature can be
// recomputed over the gateway's own formatting.
type Notification struct {
	MerchantID       string
	OrderRef         string
	GatewayPaymentID string
	Amount           string
	Currency         string
	StatusCode       int
	Signature        string
}

// VerifiedNotification is the outcome of verifying an authentic
// notification. Success reflects the gateway status code, not signature
// validity; a signed failure report still verifies.
type VerifiedNotification struct {
	Success          bool
	OrderRef         string
	GatewayPaymentID string
	Amount           string
	Currency         string
	StatusCode       int
}

// PaymentGateway is the hex port for the hosted-checkout provider.
type PaymentGateway interface {
	Name() string

	// BuildCheckout assembles the complete signed parameter set for
	// redirecting the payer to the hosted checkout. Pure assembly, no I/O;
	// retrying a failed redirect rebuilds byte-identical parameters.
	BuildCheckout(p *model.Payment, payer PayerDetails) (*CheckoutSession, error)

	// VerifyNotification authenticates a callback body against the shared
	// merchant secret. Returns domain.ErrInvalidSignature when the payload
	// cannot be trusted; no field of an unverified notification may be used.
	VerifyNotification(n Notification) (*VerifiedNotification, error)
}
