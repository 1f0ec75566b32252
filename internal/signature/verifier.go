package signature

import (
	"crypto/ed25519"
	"fmt"
	"time"
)

// Verifier holds a decoded public key and the skew policy. It is safe for
// concurrent use.
type Verifier struct {
	publicKey ed25519.PublicKey
	maxSkew   time.Duration
	now       func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMaxSkew overrides DefaultMaxSkew. Non-positive values are ignored.
func WithMaxSkew(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.maxSkew = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier decodes publicKeyHex once so each request only pays for the
// signature check.
func NewVerifier(publicKeyHex string, opts ...Option) (*Verifier, error) {
	key, err := DecodePublicKey(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("signature verifier: %w", err)
	}

	v := &Verifier{
		publicKey: key,
		maxSkew:   DefaultMaxSkew,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify authenticates one request. See the package-level Verify.
func (v *Verifier) Verify(body []byte, signatureHex, timestamp string) error {
	if err := checkTimestamp(timestamp, v.now(), v.maxSkew); err != nil {
		return err
	}
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return err
	}
	return verify(v.publicKey, sig, timestamp, body)
}
