package token

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxeal/superdev-quiz/pkg/solana"
	"github.com/jxeal/superdev-quiz/pkg/testutil"
)

func TestAssociatedTokenAccountProgramKey(t *testing.T) {
	assert.Equal(t, "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", base58.Encode(AssociatedTokenAccountProgramKey))
}

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet, err := base58.Decode("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	require.NoError(t, err)
	mint, err := base58.Decode("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	require.NoError(t, err)
	addr, err := base58.Decode("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")
	require.NoError(t, err)

	actual, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, addr, actual)

	withBump, bump, err := GetAssociatedAccountAndBump(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, addr, withBump)

	rederived, err := solana.CreateProgramAddress(AssociatedTokenAccountProgramKey, wallet, ProgramKey, mint, []byte{bump})
	require.NoError(t, err)
	assert.EqualValues(t, addr, rederived)
	assert.False(t, solana.IsOnCurve(actual))
}

func TestGetAssociatedAccount_Deterministic(t *testing.T) {
	keys := testutil.GenerateKeys(t, 3)

	first, err := GetAssociatedAccount(keys[0], keys[1])
	require.NoError(t, err)
	second, err := GetAssociatedAccount(keys[0], keys[1])
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := GetAssociatedAccount(keys[0], keys[2])
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}
