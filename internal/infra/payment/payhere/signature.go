// Package payhere integrates the PayHere hosted checkout: outbound request
// signing and inbound notification verification over the shared merchant
// secret.
package payhere

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Status codes reported by the gateway in payment notifications.
const (
	StatusSuccess    = 2
	StatusPending    = 0
	StatusCancelled  = -1
	StatusFailed     = -2
	StatusChargeback = -3
)

// md5Upper returns the uppercase hex MD5 digest of s. The digest choice is
// fixed by the gateway's wire protocol, not ours to change.
func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// HashedSecret is the building block both signature formulas share: the
// uppercase hex digest of the raw merchant secret. The raw secret itself
// never appears in any concatenation.
func HashedSecret(secret string) string {
	return md5Upper(secret)
}

// FormatAmount renders minor units with exactly two decimals, the only
// formatting the checkout hash accepts.
func FormatAmount(amountCents int64) string {
	return fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100)
}

// ChecksumForCheckout computes the tamper-evident hash attached to the
// outbound checkout request. Deterministic by construction, so a retried
// redirect rebuilds the identical value.
func ChecksumForCheckout(merchantID, orderRef, amount, currency, secret string) string {
	return md5Upper(merchantID + orderRef + amount + strings.ToUpper(currency) + HashedSecret(secret))
}

// ChecksumForNotification recomputes the signature a notification must
// carry. The status code participates in the hash, so a tampered outcome
// invalidates the signature along with everything else.
func ChecksumForNotification(merchantID, orderRef, amount, currency string, statusCode int, secret string) string {
	return md5Upper(merchantID + orderRef + amount + currency + strconv.Itoa(statusCode) + HashedSecret(secret))
}

// SignatureEqual compares two signatures after uppercase normalization
// without short-circuiting on the first differing byte.
func SignatureEqual(got, want string) bool {
	g := []byte(strings.ToUpper(got))
	w := []byte(strings.ToUpper(want))
	return subtle.ConstantTimeCompare(g, w) == 1
}
