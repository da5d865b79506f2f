package api

import (
	"fmt"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/keys"
)

// parseAddress decodes a 32-byte base58 address, replacing the decode error
// message with invalidMessage or lengthMessage depending on what went wrong.
func parseAddress(text, invalidMessage, lengthMessage string) (keys.PublicKey, error) {
	pub, err := keys.ParsePublicKey(text)
	if err == nil {
		return pub, nil
	}

	switch apierr.KindOf(err) {
	case apierr.KindWrongByteLength:
		return pub, apierr.WithMessage(err, lengthMessage)
	default:
		return pub, apierr.WithMessage(err, invalidMessage)
	}
}

func parseNamedAddress(text, field string) (keys.PublicKey, error) {
	return parseAddress(
		text,
		fmt.Sprintf("Invalid base58 in %s", field),
		fmt.Sprintf("%s must be 32 bytes", field),
	)
}
