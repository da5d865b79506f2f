package solana

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")

	ErrInvalidAccountKey = errors.New("account key must be 32 bytes")
	ErrInvalidProgramKey = errors.New("program key must be 32 bytes")
)

// AccountMeta is a single account reference of an instruction.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction is an unsigned instruction: the program to invoke, the ordered
// accounts it touches and an opaque payload. It is never compiled into a
// transaction here.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// Validate checks that every key referenced by the instruction has the size of
// an address.
func (i Instruction) Validate() error {
	if len(i.Program) != ed25519.PublicKeySize {
		return ErrInvalidProgramKey
	}

	for idx, account := range i.Accounts {
		if len(account.PublicKey) != ed25519.PublicKeySize {
			return errors.Wrapf(ErrInvalidAccountKey, "account %d", idx)
		}
	}

	return nil
}

// Signers returns the accounts that must sign a transaction including this
// instruction, in account order.
func (i Instruction) Signers() []ed25519.PublicKey {
	var signers []ed25519.PublicKey
	for _, account := range i.Accounts {
		if account.IsSigner {
			signers = append(signers, account.PublicKey)
		}
	}
	return signers
}
