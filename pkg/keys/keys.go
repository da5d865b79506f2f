// Package keys parses, generates and reconstructs Ed25519 key material.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/codec"
)

const (
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.PrivateKeySize
	seedSize      = ed25519.SeedSize
)

// PublicKey is a 32-byte address. It isn't necessarily a point on the curve,
// since program derived addresses are deliberately off-curve.
type PublicKey [PublicKeySize]byte

func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pub PublicKey
	if len(b) != PublicKeySize {
		return pub, apierr.Newf(apierr.KindWrongByteLength, "public key must be %d bytes", PublicKeySize)
	}

	copy(pub[:], b)
	return pub, nil
}

// ParsePublicKey decodes a base58 address of exactly 32 bytes.
func ParsePublicKey(text string) (PublicKey, error) {
	b, err := codec.DecodeBase58Exact(text, PublicKeySize)
	if err != nil {
		return PublicKey{}, err
	}

	return PublicKeyFromBytes(b)
}

// ParseVerifyingKey is ParsePublicKey for keys that must also be a valid
// compressed Edwards point.
func ParseVerifyingKey(text string) (PublicKey, error) {
	pub, err := ParsePublicKey(text)
	if err != nil {
		return PublicKey{}, err
	}

	if !pub.IsOnCurve() {
		return PublicKey{}, apierr.Malformed("public key is not a valid curve point")
	}
	return pub, nil
}

func (k PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(k[:])
	return err == nil
}

func (k PublicKey) ToBytes() ed25519.PublicKey {
	b := make(ed25519.PublicKey, PublicKeySize)
	copy(b, k[:])
	return b
}

func (k PublicKey) String() string {
	return codec.EncodeBase58(k[:])
}

// Keypair owns a 64-byte secret (seed followed by public key) for the duration
// of a single request. Callers Release it once they're done.
type Keypair struct {
	secret ed25519.PrivateKey
	public PublicKey
}

// GenerateKeypair creates a keypair from a fresh random seed.
func GenerateKeypair() (*Keypair, error) {
	return generateKeypair(rand.Reader)
}

func generateKeypair(entropy io.Reader) (*Keypair, error) {
	_, secret, err := ed25519.GenerateKey(entropy)
	if err != nil {
		return nil, apierr.Wrap(errors.Wrap(err, "error generating keypair"), apierr.KindInternal, "failed to generate keypair")
	}

	return newKeypair(secret), nil
}

// ReconstructKeypair decodes a base58 secret and checks that its public half
// matches the key derived from its seed.
func ReconstructKeypair(text string) (*Keypair, error) {
	b, err := codec.DecodeBase58Exact(text, SecretKeySize)
	if err != nil {
		return nil, err
	}
	return KeypairFromBytes(b)
}

// KeypairFromBytes takes ownership of b.
func KeypairFromBytes(b []byte) (*Keypair, error) {
	if len(b) != SecretKeySize {
		return nil, apierr.Newf(apierr.KindWrongByteLength, "secret key must be %d bytes", SecretKeySize)
	}

	derived := ed25519.NewKeyFromSeed(b[:seedSize])
	defer zero(derived)

	if !bytes.Equal(derived[seedSize:], b[seedSize:]) {
		zero(b)
		return nil, apierr.Malformed("secret key public half does not match its seed")
	}

	return newKeypair(ed25519.PrivateKey(b)), nil
}

func newKeypair(secret ed25519.PrivateKey) *Keypair {
	kp := &Keypair{secret: secret}
	copy(kp.public[:], secret[seedSize:])
	return kp
}

func (kp *Keypair) PublicKey() PublicKey {
	return kp.public
}

// SecretString is the base58 encoding of the full 64-byte secret.
func (kp *Keypair) SecretString() string {
	return codec.EncodeBase58(kp.secret)
}

// Release zeroes the secret. The keypair can't sign afterwards.
func (kp *Keypair) Release() {
	if kp == nil {
		return
	}

	zero(kp.secret)
	kp.secret = nil
}

func (kp *Keypair) IsReleased() bool {
	return kp.secret == nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
