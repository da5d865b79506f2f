package keys

import (
	"crypto/ed25519"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/codec"
)

const SignatureSize = ed25519.SignatureSize

var ErrKeypairReleased = apierr.New(apierr.KindInternal, "keypair already released")

// Signature is a raw 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

// ParseSignature decodes a base64 signature of exactly 64 bytes. The scalar
// isn't range checked here, so a well formed but wrong signature fails
// verification instead of parsing.
func ParseSignature(text string) (Signature, error) {
	var sig Signature

	b, err := codec.DecodeBase64Exact(text, SignatureSize)
	if err != nil {
		return sig, err
	}

	copy(sig[:], b)
	return sig, nil
}

func (s Signature) String() string {
	return codec.EncodeBase64(s[:])
}

// Sign produces the deterministic Ed25519 signature of message.
func (kp *Keypair) Sign(message []byte) (Signature, error) {
	var sig Signature
	if kp.IsReleased() {
		return sig, ErrKeypairReleased
	}

	copy(sig[:], ed25519.Sign(kp.secret, message))
	return sig, nil
}

// Verify reports whether sig is a valid signature of message by pub.
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(pub[:], message, sig[:])
}
