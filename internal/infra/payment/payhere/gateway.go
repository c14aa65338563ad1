package payhere

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NRCPerera/Get-Fit-backend/internal/config"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/model"
	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
)

const (
	sandboxCheckoutURL = "https://sandbox.payhere.lk/pay/checkout"
	liveCheckoutURL    = "https://www.payhere.lk/pay/checkout"

	// Sentinel defaults for fields the gateway requires non-empty even
	// when it documents them as optional.
	defaultAddress = "Not Provided"
	defaultCity    = "Colombo"
	defaultCountry = "Sri Lanka"
)

// Gateway implements adapter.PaymentGateway for PayHere. It performs no
// network I/O: checkout is a browser redirect with signed parameters and
// verification is pure hash recomputation over the webhook body.
type Gateway struct {
	merchantID string
	secret     string
	returnURL  string
	cancelURL  string
	notifyURL  string
	checkout   string
	log        zerolog.Logger
}

var _ adapter.PaymentGateway = (*Gateway)(nil)

// NewGateway validates merchant credentials and callback URLs up front.
// Missing credentials fail closed here so no unsigned checkout can ever be
// built.
func NewGateway(cfg config.PayHereConfig, log zerolog.Logger) (*Gateway, error) {
	if cfg.MerchantID == "" || cfg.MerchantSecret == "" {
		return nil, domain.ErrMissingMerchantConfig
	}

	checkout := liveCheckoutURL
	if cfg.Sandbox {
		checkout = sandboxCheckoutURL
	}

	g := &Gateway{
		merchantID: cfg.MerchantID,
		secret:     cfg.MerchantSecret,
		returnURL:  cfg.ReturnURL,
		cancelURL:  cfg.CancelURL,
		notifyURL:  cfg.NotifyURL,
		checkout:   checkout,
		log:        log.With().Str("component", "payhere").Logger(),
	}

	for name, u := range map[string]string{"return_url": cfg.ReturnURL, "cancel_url": cfg.CancelURL, "notify_url": cfg.NotifyURL} {
		if err := g.checkCallbackURL(name, u); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// checkCallbackURL rejects relative URLs and warns on loopback hosts. The
// gateway must be able to reach notify_url from the public internet; a
// loopback address fails silently on their side, not ours, so the best we
// can do locally is shout about it.
func (g *Gateway) checkCallbackURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute URL: %w", name, raw, domain.ErrInvalidArgument)
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0" || host == "::1" {
		g.log.Warn().Str("url_field", name).Str("url", raw).
			Msg("callback URL is not publicly reachable; gateway callbacks will be lost")
	}
	return nil
}

func (g *Gateway) Name() string { return "payhere" }

// BuildCheckout implements adapter.PaymentGateway.BuildCheckout.
func (g *Gateway) BuildCheckout(p *model.Payment, payer adapter.PayerDetails) (*adapter.CheckoutSession, error) {
	if p == nil || p.OrderRef == "" {
		return nil, domain.ErrInvalidArgument
	}
	if p.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !AcceptableEmail(payer.Email) {
		return nil, domain.ErrInvalidPayerContact
	}

	amount := FormatAmount(p.AmountCents)
	currency := strings.ToUpper(p.Currency)

	params := map[string]string{
		"merchant_id": g.merchantID,
		"return_url":  g.returnURL,
		"cancel_url":  g.cancelURL,
		"notify_url":  g.notifyURL,
		"order_id":    p.OrderRef,
		"items":       orDefault(p.Description, "Get Fit purchase"),
		"currency":    currency,
		"amount":      amount,
		"first_name":  payer.FirstName,
		"last_name":   payer.LastName,
		"email":       payer.Email,
		"phone":       payer.Phone,
		"address":     orDefault(payer.Address, defaultAddress),
		"city":        orDefault(payer.City, defaultCity),
		"country":     orDefault(payer.Country, defaultCountry),
		"hash":        ChecksumForCheckout(g.merchantID, p.OrderRef, amount, currency, g.secret),
	}

	return &adapter.CheckoutSession{CheckoutURL: g.checkout, Params: params}, nil
}

// VerifyNotification implements adapter.PaymentGateway.VerifyNotification.
// Nothing about an unverified payload is trusted, including its merchant id.
func (g *Gateway) VerifyNotification(n adapter.Notification) (*adapter.VerifiedNotification, error) {
	if n.MerchantID != g.merchantID {
		return nil, fmt.Errorf("merchant id mismatch: %w", domain.ErrInvalidSignature)
	}
	if n.OrderRef == "" || n.Amount == "" || n.Currency == "" || n.Signature == "" {
		return nil, fmt.Errorf("missing required notification fields: %w", domain.ErrInvalidSignature)
	}

	want := ChecksumForNotification(n.MerchantID, n.OrderRef, n.Amount, n.Currency, n.StatusCode, g.secret)
	if !SignatureEqual(n.Signature, want) {
		return nil, domain.ErrInvalidSignature
	}

	return &adapter.VerifiedNotification{
		Success:          n.StatusCode == StatusSuccess,
		OrderRef:         n.OrderRef,
		GatewayPaymentID: n.GatewayPaymentID,
		Amount:           n.Amount,
		Currency:         n.Currency,
		StatusCode:       n.StatusCode,
	}, nil
}

// AcceptableEmail is the gateway's own minimal bar for a payer email. It is
// checked locally so a doomed checkout fails here instead of on the hosted
// page.
func AcceptableEmail(s string) bool {
	return len(s) >= 5 && strings.Contains(s, "@") && strings.Contains(s, ".")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
