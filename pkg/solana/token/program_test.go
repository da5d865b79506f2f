package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	solanago_token "github.com/gagliardetto/solana-go/programs/token"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxeal/superdev-quiz/pkg/solana"
	tokenbinary "github.com/jxeal/superdev-quiz/pkg/solana/binary"
	"github.com/jxeal/superdev-quiz/pkg/solana/system"
	"github.com/jxeal/superdev-quiz/pkg/testutil"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", base58.Encode(ProgramKey))
}

func TestGetCommand_Error(t *testing.T) {
	keys := testutil.GenerateKeys(t, 2)

	// invalid program
	_, err := GetCommand(solana.NewInstruction(keys[1], []byte{}))
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	// no data
	_, err = GetCommand(solana.NewInstruction(ProgramKey, []byte{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")
}

func TestInitializeMint(t *testing.T) {
	keys := testutil.GenerateKeys(t, 2)

	instruction := InitializeMint(keys[0], keys[1], nil, 6)
	require.NoError(t, instruction.Validate())

	assert.EqualValues(t, ProgramKey, instruction.Program)
	require.Len(t, instruction.Data, 35)
	assert.EqualValues(t, CommandInitializeMint, instruction.Data[0])
	assert.EqualValues(t, 6, instruction.Data[1])
	assert.EqualValues(t, keys[1], instruction.Data[2:34])
	assert.EqualValues(t, 0, instruction.Data[34])

	require.Len(t, instruction.Accounts, 2)
	assert.EqualValues(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	decoded, err := DecodeInitializeMint(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decoded.Mint)
	assert.EqualValues(t, keys[1], decoded.MintAuthority)
	assert.Nil(t, decoded.FreezeAuthority)
	assert.EqualValues(t, 6, decoded.Decimals)
}

func TestInitializeMint_FreezeAuthority(t *testing.T) {
	keys := testutil.GenerateKeys(t, 3)

	instruction := InitializeMint(keys[0], keys[1], keys[2], 9)
	require.Len(t, instruction.Data, 67)
	assert.EqualValues(t, 1, instruction.Data[34])
	assert.EqualValues(t, keys[2], instruction.Data[35:])

	decoded, err := DecodeInitializeMint(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[2], decoded.FreezeAuthority)
	assert.EqualValues(t, 9, decoded.Decimals)

	instruction.Data = instruction.Data[:40]
	_, err = DecodeInitializeMint(instruction)
	assert.ErrorIs(t, err, tokenbinary.ErrShortBuffer)
}

func TestInitializeMint_MatchesSolanaGo(t *testing.T) {
	keys := testutil.GenerateKeys(t, 2)

	ours := InitializeMint(keys[0], keys[1], nil, 6)

	theirs := solanago_token.NewInitializeMintInstructionBuilder().
		SetDecimals(6).
		SetMintAuthority(solanago.PublicKeyFromBytes(keys[1])).
		SetMintAccount(solanago.PublicKeyFromBytes(keys[0])).
		SetSysVarRentPubkeyAccount(solanago.SysVarRentPubkey).
		Build()

	assertMatchesSolanaGo(t, ours, theirs)
}

func TestMintTo(t *testing.T) {
	keys := testutil.GenerateKeys(t, 3)

	instruction := MintTo(keys[0], keys[1], keys[2], 1_000_000)
	require.NoError(t, instruction.Validate())

	require.Len(t, instruction.Data, 9)
	assert.EqualValues(t, CommandMintTo, instruction.Data[0])
	assert.EqualValues(t, 1_000_000, binary.LittleEndian.Uint64(instruction.Data[1:]))

	require.Len(t, instruction.Accounts, 3)
	for i := 0; i < 2; i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
		assert.True(t, instruction.Accounts[i].IsWritable)
	}
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	decoded, err := DecodeMintTo(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decoded.Mint)
	assert.EqualValues(t, keys[1], decoded.Destination)
	assert.EqualValues(t, keys[2], decoded.Authority)
	assert.EqualValues(t, 1_000_000, decoded.Amount)

	cmd, err := GetCommand(instruction)
	require.NoError(t, err)
	assert.Equal(t, CommandMintTo, cmd)

	instruction.Data[0] = byte(CommandTransfer)
	_, err = DecodeMintTo(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data[0] = byte(CommandMintTo)
	instruction.Accounts = instruction.Accounts[:2]
	_, err = DecodeMintTo(instruction)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number of accounts")
}

func TestMintTo_MatchesSolanaGo(t *testing.T) {
	keys := testutil.GenerateKeys(t, 3)

	ours := MintTo(keys[0], keys[1], keys[2], 42)
	theirs := solanago_token.NewMintToInstruction(
		42,
		solanago.PublicKeyFromBytes(keys[0]),
		solanago.PublicKeyFromBytes(keys[1]),
		solanago.PublicKeyFromBytes(keys[2]),
		nil,
	).Build()

	assertMatchesSolanaGo(t, ours, theirs)
}

func TestTransferChecked(t *testing.T) {
	keys := testutil.GenerateKeys(t, 4)

	instruction := TransferChecked(keys[0], keys[1], keys[2], keys[3], 250, 6)
	require.NoError(t, instruction.Validate())

	require.Len(t, instruction.Data, 10)
	assert.EqualValues(t, CommandTransferChecked, instruction.Data[0])
	assert.EqualValues(t, 250, binary.LittleEndian.Uint64(instruction.Data[1:9]))
	assert.EqualValues(t, 6, instruction.Data[9])

	require.Len(t, instruction.Accounts, 4)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsWritable)
	assert.True(t, instruction.Accounts[2].IsWritable)
	assert.False(t, instruction.Accounts[3].IsWritable)
	for i := 0; i < 3; i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
	}
	assert.True(t, instruction.Accounts[3].IsSigner)
	assert.Equal(t, []ed25519.PublicKey{keys[3]}, instruction.Signers())

	decoded, err := DecodeTransferChecked(instruction)
	require.NoError(t, err)
	assert.EqualValues(t, keys[0], decoded.Source)
	assert.EqualValues(t, keys[1], decoded.Mint)
	assert.EqualValues(t, keys[2], decoded.Destination)
	assert.EqualValues(t, keys[3], decoded.Owner)
	assert.EqualValues(t, 250, decoded.Amount)
	assert.EqualValues(t, 6, decoded.Decimals)

	instruction.Data = instruction.Data[:9]
	_, err = DecodeTransferChecked(instruction)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instruction data size")

	instruction.Program = keys[0]
	_, err = DecodeTransferChecked(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestTransferChecked_MatchesSolanaGo(t *testing.T) {
	keys := testutil.GenerateKeys(t, 4)

	ours := TransferChecked(keys[0], keys[1], keys[2], keys[3], 7, 6)
	theirs := solanago_token.NewTransferCheckedInstruction(
		7,
		6,
		solanago.PublicKeyFromBytes(keys[0]),
		solanago.PublicKeyFromBytes(keys[1]),
		solanago.PublicKeyFromBytes(keys[2]),
		solanago.PublicKeyFromBytes(keys[3]),
		nil,
	).Build()

	assertMatchesSolanaGo(t, ours, theirs)
}

func assertMatchesSolanaGo(t *testing.T, ours solana.Instruction, theirs *solanago_token.Instruction) {
	data, err := theirs.Data()
	require.NoError(t, err)
	assert.Equal(t, data, ours.Data)
	assert.EqualValues(t, theirs.ProgramID().Bytes(), ours.Program)

	accounts := theirs.Accounts()
	require.Len(t, ours.Accounts, len(accounts))
	for i, account := range accounts {
		assert.EqualValues(t, account.PublicKey.Bytes(), ours.Accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, account.IsSigner, ours.Accounts[i].IsSigner, "account %d", i)
		assert.Equal(t, account.IsWritable, ours.Accounts[i].IsWritable, "account %d", i)
	}
}
