package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/jxeal/superdev-quiz/pkg/solana"
	"github.com/jxeal/superdev-quiz/pkg/solana/binary"
	"github.com/jxeal/superdev-quiz/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

const (
	CommandInitializeMint Command = iota
	// nolint:varcheck,deadcode,unused
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	CommandTransfer
	// nolint:varcheck,deadcode,unused
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	// nolint:varcheck,deadcode,unused
	CommandSetAuthority
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	// nolint:varcheck,deadcode,unused
	CommandCloseAccount
	// nolint:varcheck,deadcode,unused
	CommandFreezeAccount
	// nolint:varcheck,deadcode,unused
	CommandThawAccount
	CommandTransferChecked
)

const (
	initializeMintDataSize  = 1 + 1 + ed25519.PublicKeySize + 1
	mintToDataSize          = 1 + 8
	transferCheckedDataSize = 1 + 8 + 1
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L25-L40
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	//
	// InitializeMint {
	//   decimals: u8,
	//   mint_authority: Pubkey,
	//   freeze_authority: COption<Pubkey>,
	// }
	w := binary.NewWriter(initializeMintDataSize + ed25519.PublicKeySize)
	w.PutUint8(byte(CommandInitializeMint))
	w.PutUint8(decimals)
	w.PutKey32(mintAuthority)
	w.PutCompactOptionalKey32(freezeAuthority)

	return solana.NewInstruction(
		ProgramKey,
		w.Bytes(),
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecodedInitializeMint struct {
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
	Decimals        byte
}

func DecodeInitializeMint(i solana.Instruction) (*DecodedInitializeMint, error) {
	if err := checkCommand(i, CommandInitializeMint); err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(i.Accounts[1].PublicKey, system.RentSysVar) {
		return nil, errors.New("invalid rent sysvar")
	}

	r := binary.NewReader(i.Data[1:])
	decoded := &DecodedInitializeMint{
		Mint: i.Accounts[0].PublicKey,
	}
	decoded.Decimals = r.GetUint8()
	decoded.MintAuthority = r.GetKey32()
	decoded.FreezeAuthority = r.GetCompactOptionalKey32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return decoded, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L155
func MintTo(mint, destination, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	w := binary.NewWriter(mintToDataSize)
	w.PutUint8(byte(CommandMintTo))
	w.PutUint64(amount)

	return solana.NewInstruction(
		ProgramKey,
		w.Bytes(),
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(destination, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecodedMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecodeMintTo(i solana.Instruction) (*DecodedMintTo, error) {
	if err := checkCommand(i, CommandMintTo); err != nil {
		return nil, err
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != mintToDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	r := binary.NewReader(i.Data[1:])
	return &DecodedMintTo{
		Mint:        i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Authority:   i.Accounts[2].PublicKey,
		Amount:      r.GetUint64(),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L230-L252
func TransferChecked(source, mint, destination, owner ed25519.PublicKey, amount uint64, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[signer]` The source account's owner/delegate.
	w := binary.NewWriter(transferCheckedDataSize)
	w.PutUint8(byte(CommandTransferChecked))
	w.PutUint64(amount)
	w.PutUint8(decimals)

	return solana.NewInstruction(
		ProgramKey,
		w.Bytes(),
		solana.NewAccountMeta(source, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewAccountMeta(destination, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecodedTransferChecked struct {
	Source      ed25519.PublicKey
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
	Decimals    byte
}

func DecodeTransferChecked(i solana.Instruction) (*DecodedTransferChecked, error) {
	if err := checkCommand(i, CommandTransferChecked); err != nil {
		return nil, err
	}
	// note: we do < 4 instead of != 4 in order to support multisig cases.
	if len(i.Accounts) < 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != transferCheckedDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	r := binary.NewReader(i.Data[1:])
	decoded := &DecodedTransferChecked{
		Source:      i.Accounts[0].PublicKey,
		Mint:        i.Accounts[1].PublicKey,
		Destination: i.Accounts[2].PublicKey,
		Owner:       i.Accounts[3].PublicKey,
	}
	decoded.Amount = r.GetUint64()
	decoded.Decimals = r.GetUint8()
	return decoded, nil
}

// GetCommand returns the command of a token program instruction.
func GetCommand(i solana.Instruction) (Command, error) {
	if !bytes.Equal(i.Program, ProgramKey) {
		return 0, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return 0, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

func checkCommand(i solana.Instruction, expected Command) error {
	cmd, err := GetCommand(i)
	if err != nil {
		return err
	}
	if cmd != expected {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
