// Package codec implements the strict text encodings used on the wire: base58
// for addresses and keys, and padded standard base64 for signatures and
// instruction payloads.
package codec

import (
	"encoding/base64"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
)

var (
	ErrInvalidBase58 = apierr.InvalidEncoding("invalid base58 encoding")
	ErrInvalidBase64 = apierr.InvalidEncoding("invalid base64 encoding")
)

// strictBase64 rejects non-zero trailing bits, so every accepted string maps
// to exactly one byte sequence.
var strictBase64 = base64.StdEncoding.Strict()

// EncodeBase58 never fails. An empty input encodes to an empty string.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58 decodes text using the Bitcoin alphabet. The empty string
// decodes to an empty slice.
func DecodeBase58(text string) ([]byte, error) {
	if len(text) == 0 {
		return []byte{}, nil
	}

	decoded, err := base58.Decode(text)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindInvalidEncoding, ErrInvalidBase58.Message)
	}
	return decoded, nil
}

// EncodeBase64 never fails.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 decodes padded standard base64. Line breaks, which the standard
// library would silently skip, are rejected.
func DecodeBase64(text string) ([]byte, error) {
	if strings.ContainsAny(text, "\r\n") {
		return nil, ErrInvalidBase64
	}

	decoded, err := strictBase64.DecodeString(text)
	if err != nil {
		return nil, apierr.Wrap(err, apierr.KindInvalidEncoding, ErrInvalidBase64.Message)
	}
	return decoded, nil
}

// DecodeBase58Exact decodes text and requires exactly size bytes.
func DecodeBase58Exact(text string, size int) ([]byte, error) {
	decoded, err := DecodeBase58(text)
	if err != nil {
		return nil, err
	}
	if len(decoded) != size {
		return nil, apierr.Newf(apierr.KindWrongByteLength, "expected %d bytes, got %d", size, len(decoded))
	}
	return decoded, nil
}

// DecodeBase64Exact decodes text and requires exactly size bytes.
func DecodeBase64Exact(text string, size int) ([]byte, error) {
	decoded, err := DecodeBase64(text)
	if err != nil {
		return nil, err
	}
	if len(decoded) != size {
		return nil, apierr.Newf(apierr.KindWrongByteLength, "expected %d bytes, got %d", size, len(decoded))
	}
	return decoded, nil
}
