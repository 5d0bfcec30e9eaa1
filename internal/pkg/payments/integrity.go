package payments

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
)

// IntegritySignature binds an order reference to its charge:
// hex(SHA256(orderRef + amountMinor + currency + secret)).
func IntegritySignature(orderRef string, amountMinor int64, currency, secret string) string {
	sum := sha256.Sum256([]byte(orderRef + strconv.FormatInt(amountMinor, 10) + currency + secret))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity recomputes the signature from the given values and compares
// it with expected in constant time.
func VerifyIntegrity(orderRef string, amountMinor int64, currency, secret, expected string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" || secret == "" {
		return false
	}
	got := IntegritySignature(orderRef, amountMinor, currency, secret)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
