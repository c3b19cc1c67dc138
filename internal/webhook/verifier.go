package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bingospaces/gatekeeper/params"
)

var (
	ErrSecretEmpty       = errors.New("webhook secret is empty")
	ErrTimestampInvalid  = errors.New("webhook timestamp is not a unix timestamp")
	ErrTimestampTooOld   = errors.New("webhook timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// Verifier checks the HMAC signature the identity backend puts on auth-email
// events. The signed content is "{id}.{timestamp}.{body}" and the signature
// header carries space-separated "v1,<base64>" entries.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier accepts the secret either bare or in the "v1,<key>" form the
// backend dashboard displays; only <key> is the signing key. A "whsec_"
// prefix marks a base64-encoded key.
func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	secret = strings.TrimPrefix(secret, "v1,")
	secret = strings.TrimPrefix(secret, "whsec_")
	if secret == "" {
		return nil, ErrSecretEmpty
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		// Not base64: treat the secret bytes as the key directly.
		key = []byte(secret)
	}
	return &Verifier{
		key:       key,
		tolerance: params.WebhookTimestampTolerance,
		now:       time.Now,
	}, nil
}

// SecretForm classifies how the configured secret was written, for
// diagnostics that must not leak the secret itself.
func SecretForm(secret string) string {
	if strings.HasPrefix(secret, "v1,") {
		return "v1-prefixed"
	}
	return "bare"
}

func (v *Verifier) Verify(id string, timestamp string, signatureHeader string, payload []byte) error {
	unix, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return ErrTimestampInvalid
	}
	signedAt := time.Unix(unix, 0)
	if drift := v.now().Sub(signedAt); drift > v.tolerance || drift < -v.tolerance {
		return ErrTimestampTooOld
	}

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(signatureHeader) {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrSignatureMismatch
}
