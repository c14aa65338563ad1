package payhere

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/NRCPerera/Get-Fit-backend/internal/domain/ports/adapter"
)

// NotificationFromForm maps the gateway's form-encoded webhook body onto a
// Notification. Field names are the gateway's wire protocol. Only a body
// that cannot be represented at all errors here; a representable body with
// bad values is for VerifyNotification to reject.
func NotificationFromForm(form url.Values) (adapter.Notification, error) {
	statusRaw := form.Get("status_code")
	status, err := strconv.Atoi(statusRaw)
	if err != nil {
		return adapter.Notification{}, fmt.Errorf("status_code %q is not numeric", statusRaw)
	}
	if form.Get("order_id") == "" {
		return adapter.Notification{}, fmt.Errorf("order_id is missing")
	}
	return adapter.Notification{
		MerchantID:       form.Get("merchant_id"),
		OrderRef:         form.Get("order_id"),
		GatewayPaymentID: form.Get("payment_id"),
		Amount:           form.Get("payhere_amount"),
		Currency:         form.Get("payhere_currency"),
		StatusCode:       status,
		Signature:        form.Get("md5sig"),
	}, nil
}
