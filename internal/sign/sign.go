package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Envelope is the signed wrapper around write payloads. The signature covers
// the raw payload bytes and the timestamp, so neither can be altered in
// transit without detection.
type Envelope struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Signature string          `json:"signature"`
}

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrStale            = errors.New("timestamp outside freshness window")
)

// Verifier checks envelope signatures against a shared secret.
type Verifier struct {
	secret  []byte
	maxSkew time.Duration
}

// NewVerifier creates a Verifier. An empty secret disables verification
// entirely; maxSkew bounds how far the envelope timestamp may drift from
// the server clock in either direction.
func NewVerifier(secret string, maxSkew time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), maxSkew: maxSkew}
}

// Enabled reports whether a signing secret is configured.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Sign computes the signature for a payload and timestamp. Used by tests and
// by the embed snippet generator.
func (v *Verifier) Sign(payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	mac.Write([]byte(":"))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the envelope's signature and timestamp freshness. hmac.Equal
// compares in constant time.
func (v *Verifier) Verify(env Envelope, now time.Time) error {
	if !v.Enabled() {
		return nil
	}
	if env.Signature == "" {
		return ErrMissingSignature
	}
	if v.maxSkew > 0 {
		ts := time.Unix(env.Timestamp, 0)
		drift := now.Sub(ts)
		if drift < 0 {
			drift = -drift
		}
		if drift > v.maxSkew {
			return fmt.Errorf("%w: %s", ErrStale, drift)
		}
	}
	want := v.Sign(env.Payload, env.Timestamp)
	if !hmac.Equal([]byte(want), []byte(env.Signature)) {
		return ErrBadSignature
	}
	return nil
}
