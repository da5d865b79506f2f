package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/jxeal/superdev-quiz/pkg/solana"
	"github.com/jxeal/superdev-quiz/pkg/solana/binary"
)

// ProgramKey is the system program, 11111111111111111111111111111111.
var ProgramKey [32]byte

const (
	// nolint:varcheck,deadcode,unused
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
)

const transferDataSize = 4 + 8

// Transfer moves lamports between two system owned accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L286
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	w := binary.NewWriter(transferDataSize)
	w.PutUint32(commandTransfer)
	w.PutUint64(lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		w.Bytes(),
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecodedTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

// DecodeTransfer is the inverse of Transfer.
func DecodeTransfer(i solana.Instruction) (*DecodedTransfer, error) {
	if !bytes.Equal(i.Program, ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != transferDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	r := binary.NewReader(i.Data)
	if r.GetUint32() != commandTransfer {
		return nil, solana.ErrIncorrectInstruction
	}
	lamports := r.GetUint64()
	if err := r.Err(); err != nil {
		return nil, err
	}

	return &DecodedTransfer{
		From:     i.Accounts[0].PublicKey,
		To:       i.Accounts[1].PublicKey,
		Lamports: lamports,
	}, nil
}
