package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	confirmPollInterval = 2 * time.Second
	confirmMaxAttempts  = 15
)

// SolanaClient is the Ledger implementation backed by Solana RPC.
type SolanaClient struct {
	rpcClient *rpc.Client
	rpcURL    string
}

var _ Ledger = (*SolanaClient)(nil)

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
func NewSolanaClient(rpcURL string) *SolanaClient {
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		rpcURL:    rpcURL,
	}
}

// NativeBalance returns the owner's SOL balance in lamports.
func (c *SolanaClient) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// TokenBalance returns the owner's balance for mint in smallest units.
// A missing associated token account reads as zero.
func (c *SolanaClient) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, ataAddress, rpc.CommitmentConfirmed)
	if err != nil {
		if isAccountNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}

	if balance.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance amount: %w", err)
	}

	return amount, nil
}

// TokenAccountExists reports whether the owner's ATA for mint exists.
func (c *SolanaClient) TokenAccountExists(ctx context.Context, owner, mint solana.PublicKey) (bool, error) {
	ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return false, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	info, err := c.rpcClient.GetAccountInfo(ctx, ataAddress)
	if err != nil {
		if isAccountNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get token account info: %w", err)
	}

	return info != nil && info.Value != nil, nil
}

// LatestBlockhash returns a recent blockhash to bound transaction validity.
// (GetRecentBlockhash is deprecated, use GetLatestBlockhash)
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// RentExemptMinimum returns the rent-exempt balance for an account of size
// bytes.
func (c *SolanaClient) RentExemptMinimum(ctx context.Context, size uint64) (uint64, error) {
	minimum, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent-exempt minimum: %w", err)
	}
	return minimum, nil
}

// Submit broadcasts a fully signed transaction and returns its signature
// without waiting for confirmation.
func (c *SolanaClient) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // transaction validation before the node accepts it
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// SubmitAndConfirm broadcasts a fully signed transaction and polls until it
// reaches confirmed finality.
func (c *SolanaClient) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.Submit(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}

	if err := c.ConfirmSignature(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// ConfirmSignature polls signature status until confirmed or the attempt
// budget runs out.
func (c *SolanaClient) ConfirmSignature(ctx context.Context, sig solana.Signature) error {
	for i := 0; i < confirmMaxAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmPollInterval):
		}

		status, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err != nil || len(status.Value) == 0 || status.Value[0] == nil {
			continue
		}
		st := status.Value[0]
		if st.Err != nil {
			return fmt.Errorf("transaction %s failed on ledger: %v", sig, st.Err)
		}
		if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return nil
		}
	}

	return fmt.Errorf("transaction %s not confirmed after %d attempts", sig, confirmMaxAttempts)
}

// isAccountNotFoundError checks if error indicates that an account doesn't exist
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
