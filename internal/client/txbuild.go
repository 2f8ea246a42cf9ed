package client

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// TokenAccountSize is the byte size of an SPL token account, used to price
// the rent-exempt deposit an ATA creation charges its payer.
const TokenAccountSize = 165

// NativeTransferInstruction builds a SOL transfer of lamports from one
// account to another.
func NativeTransferInstruction(lamports uint64, from, to solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// ProvisionATAInstruction builds creation of owner's associated token account
// for mint, funded by payer. Only include it when the account does not exist:
// ATA creation is not idempotent.
func ProvisionATAInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(
		payer,
		owner,
		mint,
	).Build()
}

// TokenTransferParams describes one SPL token movement between two owners.
type TokenTransferParams struct {
	Mint      solana.PublicKey
	Owner     solana.PublicKey // source account owner, must sign
	Recipient solana.PublicKey // destination account owner
	Amount    uint64           // smallest units of Mint

	// Decimals of the mint, used for a checked transfer. Negative means
	// unknown; a plain transfer is built instead.
	Decimals int
}

// TokenTransferInstruction builds the transfer between the two owners'
// associated token accounts.
func TokenTransferInstruction(p TokenTransferParams) (solana.Instruction, error) {
	sourceATA, _, err := solana.FindAssociatedTokenAddress(p.Owner, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find source token account address: %w", err)
	}

	destATA, _, err := solana.FindAssociatedTokenAddress(p.Recipient, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find destination token account address: %w", err)
	}

	if p.Decimals >= 0 {
		return token.NewTransferCheckedInstruction(
			p.Amount,
			uint8(p.Decimals),
			sourceATA,
			p.Mint,
			destATA,
			p.Owner,
			[]solana.PublicKey{},
		).Build(), nil
	}

	return token.NewTransferInstruction(
		p.Amount,
		sourceATA,
		destATA,
		p.Owner,
		[]solana.PublicKey{},
	).Build(), nil
}

// BuildTransaction assembles one atomic transaction from ordered instructions,
// anchored to a recent blockhash. All instructions succeed or the whole
// transaction is rejected.
func BuildTransaction(instructions []solana.Instruction, blockhash solana.Hash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(feePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}
