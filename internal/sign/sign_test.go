package sign

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier("secret", 5*time.Minute)
	payload := []byte(`{"pageId":"home"}`)
	ts := testNow.Unix()

	env := Envelope{Payload: payload, Timestamp: ts, Signature: v.Sign(payload, ts)}
	if err := v.Verify(env, testNow); err != nil {
		t.Errorf("Verify() error = %v, want nil", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	v := NewVerifier("secret", 5*time.Minute)
	payload := []byte(`{"pageId":"home"}`)
	ts := testNow.Unix()

	env := Envelope{
		Payload:   []byte(`{"pageId":"premortem"}`),
		Timestamp: ts,
		Signature: v.Sign(payload, ts),
	}
	if err := v.Verify(env, testNow); !errors.Is(err, ErrBadSignature) {
		t.Errorf("Verify() error = %v, want ErrBadSignature", err)
	}
}

func TestVerify_TamperedTimestamp(t *testing.T) {
	v := NewVerifier("secret", time.Hour)
	payload := []byte(`{"pageId":"home"}`)

	env := Envelope{
		Payload:   payload,
		Timestamp: testNow.Unix() + 60,
		Signature: v.Sign(payload, testNow.Unix()),
	}
	if err := v.Verify(env, testNow); !errors.Is(err, ErrBadSignature) {
		t.Errorf("Verify() error = %v, want ErrBadSignature", err)
	}
}

func TestVerify_MissingSignature(t *testing.T) {
	v := NewVerifier("secret", 5*time.Minute)
	env := Envelope{Payload: []byte(`{}`), Timestamp: testNow.Unix()}
	if err := v.Verify(env, testNow); !errors.Is(err, ErrMissingSignature) {
		t.Errorf("Verify() error = %v, want ErrMissingSignature", err)
	}
}

func TestVerify_StaleTimestamp(t *testing.T) {
	v := NewVerifier("secret", 5*time.Minute)
	payload := []byte(`{"pageId":"home"}`)
	old := testNow.Add(-time.Hour).Unix()

	env := Envelope{Payload: payload, Timestamp: old, Signature: v.Sign(payload, old)}
	if err := v.Verify(env, testNow); !errors.Is(err, ErrStale) {
		t.Errorf("Verify() error = %v, want ErrStale", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	signer := NewVerifier("secret-a", 5*time.Minute)
	v := NewVerifier("secret-b", 5*time.Minute)
	payload := []byte(`{"pageId":"home"}`)
	ts := testNow.Unix()

	env := Envelope{Payload: payload, Timestamp: ts, Signature: signer.Sign(payload, ts)}
	if err := v.Verify(env, testNow); !errors.Is(err, ErrBadSignature) {
		t.Errorf("Verify() error = %v, want ErrBadSignature", err)
	}
}

func TestVerify_DisabledAcceptsAnything(t *testing.T) {
	v := NewVerifier("", 5*time.Minute)
	if v.Enabled() {
		t.Error("Enabled() = true, want false")
	}
	env := Envelope{Payload: []byte(`{}`)}
	if err := v.Verify(env, testNow); err != nil {
		t.Errorf("Verify() error = %v, want nil when disabled", err)
	}
}
