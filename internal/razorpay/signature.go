package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirsiprashanth/trigr-payments/pkg/logger"
)

// SignatureVerifier checks that a webhook delivery was signed with the shared
// webhook secret.
type SignatureVerifier struct {
	secret string
	strict bool
	log    *logger.Logger
}

// NewSignatureVerifier builds a verifier. With strict mode off and no secret
// configured, verification is bypassed entirely; this exists for local
// development and is logged loudly.
func NewSignatureVerifier(secret string, strict bool, log *logger.Logger) *SignatureVerifier {
	if secret == "" {
		if strict {
			log.Warnw("Razorpay webhook secret is not configured; strict mode will reject all deliveries")
		} else {
			log.Warnw("Razorpay webhook signature verification is DISABLED (no secret, strict mode off)")
		}
	}
	return &SignatureVerifier{
		secret: secret,
		strict: strict,
		log:    log,
	}
}

// Verify reports whether the signature header matches the HMAC-SHA256 of the
// raw request body. No state is mutated.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if v.secret == "" {
		if v.strict {
			return false
		}
		v.log.Warnw("Webhook signature verification bypassed: no secret configured")
		return true
	}

	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
