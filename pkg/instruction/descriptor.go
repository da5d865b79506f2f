package instruction

import (
	"github.com/jxeal/superdev-quiz/pkg/codec"
	"github.com/jxeal/superdev-quiz/pkg/solana"
)

type AccountDescriptor struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// Descriptor is the transport form of an instruction. Keys are base58 and the
// payload is base64.
type Descriptor struct {
	ProgramID       string              `json:"program_id"`
	Accounts        []AccountDescriptor `json:"accounts"`
	InstructionData string              `json:"instruction_data"`
}

// AddressDescriptor only lists account addresses, dropping signer and writable
// flags.
type AddressDescriptor struct {
	ProgramID       string   `json:"program_id"`
	Accounts        []string `json:"accounts"`
	InstructionData string   `json:"instruction_data"`
}

func Render(ix solana.Instruction) Descriptor {
	accounts := make([]AccountDescriptor, len(ix.Accounts))
	for i, account := range ix.Accounts {
		accounts[i] = AccountDescriptor{
			PublicKey:  codec.EncodeBase58(account.PublicKey),
			IsSigner:   account.IsSigner,
			IsWritable: account.IsWritable,
		}
	}

	return Descriptor{
		ProgramID:       codec.EncodeBase58(ix.Program),
		Accounts:        accounts,
		InstructionData: codec.EncodeBase64(ix.Data),
	}
}

func RenderAddresses(ix solana.Instruction) AddressDescriptor {
	accounts := make([]string, len(ix.Accounts))
	for i, account := range ix.Accounts {
		accounts[i] = codec.EncodeBase58(account.PublicKey)
	}

	return AddressDescriptor{
		ProgramID:       codec.EncodeBase58(ix.Program),
		Accounts:        accounts,
		InstructionData: codec.EncodeBase64(ix.Data),
	}
}
