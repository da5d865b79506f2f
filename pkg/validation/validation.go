// Package validation holds the presence and range checks every operation runs
// before attempting to decode its input.
package validation

import (
	"strings"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/instruction"
)

const MissingFieldsMessage = "Missing required fields"

// RequireNonEmpty fails with message if any field is empty once whitespace is
// trimmed.
func RequireNonEmpty(message string, fields ...string) error {
	for _, field := range fields {
		if len(strings.TrimSpace(field)) == 0 {
			return apierr.EmptyField(message)
		}
	}
	return nil
}

// RequireDecimals checks decimals is within [0, instruction.MaxDecimals].
func RequireDecimals(decimals int) error {
	if decimals < 0 || decimals > instruction.MaxDecimals {
		return apierr.Newf(apierr.KindOutOfRange, "Decimals must be between 0 and %d", instruction.MaxDecimals)
	}
	return nil
}

func RequirePositive(message string, value uint64) error {
	if value == 0 {
		return apierr.OutOfRange(message)
	}
	return nil
}
