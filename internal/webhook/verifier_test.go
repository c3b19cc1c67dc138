package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

func signPayload(key []byte, id string, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func fixedVerifier(t *testing.T, secret string, at time.Time) *Verifier {
	t.Helper()
	verifier, err := NewVerifier(secret)
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	verifier.now = func() time.Time { return at }
	return verifier
}

func TestVerifyBareSecret(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "super-secret", now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{"user":{"email":"a@b.com"}}`)
	signature := signPayload([]byte("super-secret"), "msg_1", timestamp, payload)

	if err := verifier.Verify("msg_1", timestamp, signature, payload); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

// The dashboard displays secrets as "v1,<key>"; both forms must verify the
// same signatures.
func TestVerifyPrefixedSecret(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "v1,super-secret", now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{}`)
	signature := signPayload([]byte("super-secret"), "msg_2", timestamp, payload)

	if err := verifier.Verify("msg_2", timestamp, signature, payload); err != nil {
		t.Fatalf("Verify with prefixed secret failed: %v", err)
	}
}

func TestVerifyBase64Secret(t *testing.T) {
	rawKey := []byte("0123456789abcdef0123456789abcdef")
	encoded := "whsec_" + base64.StdEncoding.EncodeToString(rawKey)

	now := time.Now()
	verifier := fixedVerifier(t, encoded, now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{}`)
	signature := signPayload(rawKey, "msg_3", timestamp, payload)

	if err := verifier.Verify("msg_3", timestamp, signature, payload); err != nil {
		t.Fatalf("Verify with whsec_ secret failed: %v", err)
	}
}

func TestVerifyMultipleSignatureEntries(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "super-secret", now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{}`)
	good := signPayload([]byte("super-secret"), "msg_4", timestamp, payload)
	bad := signPayload([]byte("other-secret"), "msg_4", timestamp, payload)

	if err := verifier.Verify("msg_4", timestamp, bad+" "+good, payload); err != nil {
		t.Fatalf("Verify should accept any matching entry: %v", err)
	}
}

func TestVerifySignatureMismatch(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "super-secret", now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{}`)
	signature := signPayload([]byte("wrong-secret"), "msg_5", timestamp, payload)

	if err := verifier.Verify("msg_5", timestamp, signature, payload); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

// The id is part of the signed content; swapping it invalidates the signature.
func TestVerifyTamperedID(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "super-secret", now)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	payload := []byte(`{}`)
	signature := signPayload([]byte("super-secret"), "msg_6", timestamp, payload)

	if err := verifier.Verify("msg_other", timestamp, signature, payload); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerifyTimestampOutsideTolerance(t *testing.T) {
	now := time.Now()
	verifier := fixedVerifier(t, "super-secret", now)
	stale := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	payload := []byte(`{}`)
	signature := signPayload([]byte("super-secret"), "msg_7", stale, payload)

	if err := verifier.Verify("msg_7", stale, signature, payload); !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("expected ErrTimestampTooOld, got %v", err)
	}

	future := strconv.FormatInt(now.Add(10*time.Minute).Unix(), 10)
	signature = signPayload([]byte("super-secret"), "msg_7", future, payload)
	if err := verifier.Verify("msg_7", future, signature, payload); !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("expected ErrTimestampTooOld for future timestamp, got %v", err)
	}
}

func TestVerifyInvalidTimestamp(t *testing.T) {
	verifier := fixedVerifier(t, "super-secret", time.Now())
	if err := verifier.Verify("msg_8", "not-a-number", "v1,AAAA", []byte(`{}`)); !errors.Is(err, ErrTimestampInvalid) {
		t.Fatalf("expected ErrTimestampInvalid, got %v", err)
	}
}

func TestNewVerifierEmptySecret(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrSecretEmpty) {
		t.Fatalf("expected ErrSecretEmpty, got %v", err)
	}
	if _, err := NewVerifier("v1,"); !errors.Is(err, ErrSecretEmpty) {
		t.Fatalf("expected ErrSecretEmpty for bare prefix, got %v", err)
	}
}

func TestSecretForm(t *testing.T) {
	if got := SecretForm("v1,abc"); got != "v1-prefixed" {
		t.Errorf("SecretForm(v1,abc) = %q", got)
	}
	if got := SecretForm("abc"); got != "bare" {
		t.Errorf("SecretForm(abc) = %q", got)
	}
}
