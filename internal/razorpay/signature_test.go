package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func testLogger() *logger.Logger {
	log := logger.New(logger.ERROR)
	log.SetOutput(io.Discard)
	return log
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	tests := []struct {
		name      string
		secret    string
		strict    bool
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			secret:    "whsec_test",
			strict:    true,
			signature: sign(body, "whsec_test"),
			want:      true,
		},
		{
			name:      "wrong signature",
			secret:    "whsec_test",
			strict:    true,
			signature: sign(body, "some-other-secret"),
			want:      false,
		},
		{
			name:      "missing signature header",
			secret:    "whsec_test",
			strict:    true,
			signature: "",
			want:      false,
		},
		{
			name:      "empty secret rejected in strict mode",
			secret:    "",
			strict:    true,
			signature: sign(body, "whsec_test"),
			want:      false,
		},
		{
			name:      "empty secret bypassed outside strict mode",
			secret:    "",
			strict:    false,
			signature: "",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewSignatureVerifier(tt.secret, tt.strict, testLogger())
			assert.Equal(t, tt.want, v.Verify(body, tt.signature))
		})
	}
}

func TestSignatureVerifierBodySensitivity(t *testing.T) {
	v := NewSignatureVerifier("whsec_test", true, testLogger())

	body := []byte(`{"event":"payment.captured"}`)
	signature := sign(body, "whsec_test")

	assert.True(t, v.Verify(body, signature))
	// A single changed byte in the body must invalidate the signature.
	assert.False(t, v.Verify([]byte(`{"event":"payment.authorized"}`), signature))
}
