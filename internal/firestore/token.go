package firestore

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = time.Hour

// tokenSource produces the bearer token for Firestore requests: a self-signed
// RS256 service-account JWT with the Firestore audience. Tokens are cached and
// re-signed shortly before expiry.
type tokenSource struct {
	clientEmail string
	key         *rsa.PrivateKey

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenSource(clientEmail, privateKeyPEM string) (*tokenSource, error) {
	if clientEmail == "" || privateKeyPEM == "" {
		return nil, fmt.Errorf("firestore: service account credentials are not configured")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalizePrivateKey(privateKeyPEM)))
	if err != nil {
		return nil, fmt.Errorf("firestore: failed to parse service account private key: %w", err)
	}

	return &tokenSource{
		clientEmail: clientEmail,
		key:         key,
	}, nil
}

// Token returns a valid bearer token, signing a fresh one when the cached
// token is within a minute of expiring.
func (ts *tokenSource) Token() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	if ts.token != "" && now.Before(ts.expires.Add(-time.Minute)) {
		return ts.token, nil
	}

	expires := now.Add(tokenLifetime)
	claims := jwt.MapClaims{
		"iss": ts.clientEmail,
		"sub": ts.clientEmail,
		"aud": "https://firestore.googleapis.com/",
		"iat": now.Unix(),
		"exp": expires.Unix(),
		"uid": ts.clientEmail,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("firestore: failed to sign auth token: %w", err)
	}

	ts.token = signed
	ts.expires = expires
	return signed, nil
}

// normalizePrivateKey repairs keys that went through an environment variable:
// literal "\n" sequences become real newlines and surrounding whitespace is
// trimmed. PEM headers are left to the caller's configuration.
func normalizePrivateKey(key string) string {
	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.ReplaceAll(key, `\r`, "")
	return strings.TrimSpace(key) + "\n"
}
