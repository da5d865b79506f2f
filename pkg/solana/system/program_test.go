package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	solanago_system "github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxeal/superdev-quiz/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", base58.Encode(ProgramKey[:]))
	assert.Equal(t, "SysvarRent111111111111111111111111111111111", base58.Encode(RentSysVar))
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 12345)

	command := make([]byte, 4)
	binary.LittleEndian.PutUint32(command, commandTransfer)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)

	assert.EqualValues(t, ProgramKey[:], instruction.Program)
	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])

	require.Len(t, instruction.Accounts, 2)
	assert.EqualValues(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.EqualValues(t, keys[1], instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	decoded, err := DecodeTransfer(instruction)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decoded.From)
	assert.Equal(t, keys[1], decoded.To)
	assert.EqualValues(t, 12345, decoded.Lamports)
}

func TestTransfer_MatchesSolanaGo(t *testing.T) {
	keys := generateKeys(t, 2)

	for _, lamports := range []uint64{1, 5000, 1_000_000_000, ^uint64(0)} {
		ours := Transfer(keys[0], keys[1], lamports)

		theirs := solanago_system.NewTransferInstruction(
			lamports,
			solanago.PublicKeyFromBytes(keys[0]),
			solanago.PublicKeyFromBytes(keys[1]),
		).Build()

		data, err := theirs.Data()
		require.NoError(t, err)
		assert.Equal(t, data, ours.Data)
		assert.EqualValues(t, theirs.ProgramID().Bytes(), ours.Program)

		require.Len(t, theirs.Accounts(), len(ours.Accounts))
		for i, account := range theirs.Accounts() {
			assert.EqualValues(t, account.PublicKey.Bytes(), ours.Accounts[i].PublicKey)
			assert.Equal(t, account.IsSigner, ours.Accounts[i].IsSigner)
			assert.Equal(t, account.IsWritable, ours.Accounts[i].IsWritable)
		}
	}
}

func TestDecodeTransfer_Invalid(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := Transfer(keys[0], keys[1], 1)
	instruction.Data = instruction.Data[:11]
	_, err := DecodeTransfer(instruction)
	assert.Error(t, err)

	instruction = Transfer(keys[0], keys[1], 1)
	instruction.Data[0] = byte(commandAssign)
	_, err = DecodeTransfer(instruction)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction = Transfer(keys[0], keys[1], 1)
	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecodeTransfer(instruction)
	assert.Error(t, err)

	instruction = Transfer(keys[0], keys[1], 1)
	instruction.Program = keys[2]
	_, err = DecodeTransfer(instruction)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}
