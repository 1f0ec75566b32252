// Package signature authenticates interaction webhooks signed with Ed25519.
//
// The platform signs the byte sequence timestamp||body and sends the hex
// signature and the timestamp in request headers. A request is accepted only
// when its timestamp lies within the skew window of the server clock and the
// signature verifies against the application's public key.
package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Request headers carrying the signature material.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// DefaultMaxSkew is the largest accepted difference between the request
// timestamp and the server clock.
const DefaultMaxSkew = 300 * time.Second

var (
	ErrBadTimestamp       = errors.New("bad signature timestamp")
	ErrStaleSignature     = errors.New("stale signature timestamp")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// Verify checks signatureHex over timestamp||body with publicKeyHex.
// It returns nil or exactly one of the package's sentinel errors.
func Verify(body []byte, signatureHex, timestamp, publicKeyHex string, now time.Time, maxSkew time.Duration) error {
	if err := checkTimestamp(timestamp, now, maxSkew); err != nil {
		return err
	}

	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return err
	}
	key, err := DecodePublicKey(publicKeyHex)
	if err != nil {
		return ErrMalformedSignature
	}

	return verify(key, sig, timestamp, body)
}

// DecodePublicKey decodes a hex-encoded Ed25519 public key.
func DecodePublicKey(publicKeyHex string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// Sign produces the hex signature the platform would send for body at
// timestamp. Used by tests and local tooling.
func Sign(privateKey ed25519.PrivateKey, timestamp string, body []byte) string {
	return hex.EncodeToString(ed25519.Sign(privateKey, message(timestamp, body)))
}

func checkTimestamp(timestamp string, now time.Time, maxSkew time.Duration) error {
	ts, err := strconv.ParseFloat(strings.TrimSpace(timestamp), 64)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return ErrBadTimestamp
	}

	skew := math.Abs(float64(now.Unix()) - ts)
	if skew > maxSkew.Seconds() {
		return ErrStaleSignature
	}
	return nil
}

func decodeSignature(signatureHex string) ([]byte, error) {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, ErrMalformedSignature
	}
	return sig, nil
}

func verify(key ed25519.PublicKey, sig []byte, timestamp string, body []byte) error {
	if !ed25519.Verify(key, message(timestamp, body), sig) {
		return ErrInvalidSignature
	}
	return nil
}

func message(timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	return append(msg, body...)
}
