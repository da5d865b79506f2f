// Package instruction builds the unsigned instructions served by the API and
// renders them into their transport form.
package instruction

import (
	"crypto/ed25519"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/solana"
	"github.com/jxeal/superdev-quiz/pkg/solana/system"
	"github.com/jxeal/superdev-quiz/pkg/solana/token"
)

const (
	// MaxDecimals is the largest decimals value accepted for a new mint.
	MaxDecimals = 18

	// FixedTokenDecimals is always used for checked token transfers. The mint's
	// real decimals aren't looked up, so callers must rely on this value.
	FixedTokenDecimals = 6
)

// BuildCreateMint returns an SPL token InitializeMint instruction without a
// freeze authority.
func BuildCreateMint(mint, mintAuthority ed25519.PublicKey, decimals uint8) (solana.Instruction, error) {
	if decimals > MaxDecimals {
		return solana.Instruction{}, apierr.Newf(apierr.KindBuilderFailure, "decimals must be at most %d", MaxDecimals)
	}

	return validated(token.InitializeMint(mint, mintAuthority, nil, decimals))
}

// BuildMintTo returns an SPL token MintTo instruction with a single authority.
func BuildMintTo(mint, destination, authority ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	return validated(token.MintTo(mint, destination, authority, amount))
}

// BuildSolTransfer returns a system program transfer of lamports.
func BuildSolTransfer(from, to ed25519.PublicKey, lamports uint64) (solana.Instruction, error) {
	return validated(system.Transfer(from, to, lamports))
}

// BuildTokenTransfer returns a TransferChecked instruction using
// FixedTokenDecimals.
//
// The owner's address is used as the source account rather than its
// associated token account. Existing callers depend on this layout.
func BuildTokenTransfer(destination, mint, owner ed25519.PublicKey, amount uint64) (solana.Instruction, error) {
	return validated(token.TransferChecked(owner, mint, destination, owner, amount, FixedTokenDecimals))
}

func validated(ix solana.Instruction) (solana.Instruction, error) {
	if err := ix.Validate(); err != nil {
		return solana.Instruction{}, apierr.Wrap(err, apierr.KindBuilderFailure, "Failed to create instruction")
	}
	return ix, nil
}
