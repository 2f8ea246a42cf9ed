// Package funding builds and submits fund movements between the primary
// identity and the session identity: deposit (primary funds the session) and
// withdraw (the session sweeps itself back to the primary).
package funding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/common"
	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/gagliardetto/solana-go"
)

// PrimarySigner is the boundary to the user's main wallet: an external signer
// capable of approving a transfer from the primary identity. SignAndSend
// broadcasts but does not wait for finality; Deposit confirms the returned
// signature. Implementations must return model.ErrUserCancelled (possibly
// wrapped) when the user declines.
type PrimarySigner interface {
	PublicKey() solana.PublicKey
	SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// SessionSigner is the signing capability the session identity exposes.
type SessionSigner interface {
	Address() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// Ops performs deposit and withdraw against one session identity.
type Ops struct {
	ledger     client.Ledger
	session    SessionSigner
	mint       *solana.PublicKey // nil: native asset only
	feeReserve uint64

	// refresh, when set, is invoked out-of-band after a confirmed movement so
	// the balance view catches up without waiting for the next poll tick.
	refresh func(ctx context.Context)

	// mu serializes funding operations per session identity. Two concurrent
	// sweeps would both read the same balance and double-spend it; the ledger
	// would reject one, but there is no reason to race ourselves.
	mu sync.Mutex
}

// New creates funding operations over the given ledger and session identity.
func New(ledger client.Ledger, session SessionSigner, mint *solana.PublicKey, feeReserve uint64, refresh func(ctx context.Context)) *Ops {
	return &Ops{
		ledger:     ledger,
		session:    session,
		mint:       mint,
		feeReserve: feeReserve,
		refresh:    refresh,
	}
}

// Deposit moves nativeLamports and/or tokenMicro from the primary identity to
// the session identity in one atomic transaction, signed and broadcast by the
// external primary signer.
//
// Pre-flight balance checks run before any construction; a shortfall never
// reaches the ledger. The primary keeps feeReserve lamports of headroom on
// top of the requested amount so it is never left unable to pay network fees.
func (o *Ops) Deposit(ctx context.Context, primary PrimarySigner, nativeLamports, tokenMicro uint64) (solana.Signature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if primary == nil {
		return solana.Signature{}, model.ErrIdentityUnavailable
	}
	if nativeLamports == 0 && tokenMicro == 0 {
		return solana.Signature{}, model.ErrNoAmountSpecified
	}
	if tokenMicro > 0 && o.mint == nil {
		return solana.Signature{}, errors.New("no token asset configured")
	}

	primaryKey := primary.PublicKey()
	sessionKey := o.session.Address()

	var provisionSession bool
	if tokenMicro > 0 {
		primaryToken, err := o.ledger.TokenBalance(ctx, primaryKey, *o.mint)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to check primary token balance: %w", err)
		}
		if primaryToken < tokenMicro {
			return solana.Signature{}, fmt.Errorf("%w: need %s USDC, have %s USDC",
				model.ErrInsufficientTokenFunds, common.FormatUSDC(tokenMicro), common.FormatUSDC(primaryToken))
		}

		exists, err := o.ledger.TokenAccountExists(ctx, sessionKey, *o.mint)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to check session token account: %w", err)
		}
		provisionSession = !exists
	}

	// Provisioning the session's token account charges the primary its
	// rent-exempt deposit on top of the network fee, so the headroom check
	// must price it in.
	headroom := o.feeReserve
	if provisionSession {
		rent, err := o.ledger.RentExemptMinimum(ctx, client.TokenAccountSize)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to price account creation: %w", err)
		}
		headroom += rent
	}

	primaryNative, err := o.ledger.NativeBalance(ctx, primaryKey)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to check primary balance: %w", err)
	}
	if primaryNative < nativeLamports+headroom {
		return solana.Signature{}, fmt.Errorf("%w: need %s SOL plus fees, have %s SOL",
			model.ErrInsufficientFunds, common.FormatSOL(nativeLamports), common.FormatSOL(primaryNative))
	}

	instructions := make([]solana.Instruction, 0, 3)
	if provisionSession {
		instructions = append(instructions, client.ProvisionATAInstruction(primaryKey, sessionKey, *o.mint))
	}
	if nativeLamports > 0 {
		instructions = append(instructions, client.NativeTransferInstruction(nativeLamports, primaryKey, sessionKey))
	}
	if tokenMicro > 0 {
		transfer, err := client.TokenTransferInstruction(client.TokenTransferParams{
			Mint:      *o.mint,
			Owner:     primaryKey,
			Recipient: sessionKey,
			Amount:    tokenMicro,
			Decimals:  common.USDCDecimals,
		})
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, transfer)
	}

	blockhash, err := o.ledger.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := client.BuildTransaction(instructions, blockhash, primaryKey)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := primary.SignAndSend(ctx, tx)
	if err != nil {
		if errors.Is(err, model.ErrUserCancelled) {
			// a declined prompt is an outcome, not a failure
			return solana.Signature{}, model.ErrUserCancelled
		}
		return solana.Signature{}, fmt.Errorf("failed to send deposit: %w", err)
	}

	if err := o.ledger.ConfirmSignature(ctx, sig); err != nil {
		return sig, fmt.Errorf("deposit not confirmed: %w", err)
	}

	o.refreshBalance(ctx)
	return sig, nil
}

// Withdraw sweeps the session identity back to the primary address: the full
// token balance plus the native balance minus the fee reserve, in one atomic
// transaction signed solely by the session identity. When the destination
// token account has to be created its rent-exempt deposit is also held back.
//
// Balances are read live at call time, never from the cached snapshot, so a
// stale view can not cause an incorrect sweep amount.
func (o *Ops) Withdraw(ctx context.Context, to solana.PublicKey) (solana.Signature, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if to.IsZero() {
		return solana.Signature{}, model.ErrIdentityUnavailable
	}

	sessionKey := o.session.Address()

	native, err := o.ledger.NativeBalance(ctx, sessionKey)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to check session balance: %w", err)
	}

	var tokenAmount uint64
	var provisionDest bool
	if o.mint != nil {
		tokenAmount, err = o.ledger.TokenBalance(ctx, sessionKey, *o.mint)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to check session token balance: %w", err)
		}
		if tokenAmount > 0 {
			exists, err := o.ledger.TokenAccountExists(ctx, to, *o.mint)
			if err != nil {
				return solana.Signature{}, fmt.Errorf("failed to check destination token account: %w", err)
			}
			provisionDest = !exists
		}
	}

	// The session pays the destination account's rent-exempt deposit when it
	// has to provision it, so that much native must stay out of the sweep.
	reserve := o.feeReserve
	if provisionDest {
		rent, err := o.ledger.RentExemptMinimum(ctx, client.TokenAccountSize)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to price account creation: %w", err)
		}
		reserve += rent
		if native < reserve {
			return solana.Signature{}, fmt.Errorf("%w: need %s SOL to provision the destination token account, have %s SOL",
				model.ErrInsufficientFunds, common.FormatSOL(reserve), common.FormatSOL(native))
		}
	}

	var sweepLamports uint64
	if native > reserve {
		sweepLamports = native - reserve
	}

	if sweepLamports == 0 && tokenAmount == 0 {
		return solana.Signature{}, model.ErrNothingToWithdraw
	}

	instructions := make([]solana.Instruction, 0, 3)

	if tokenAmount > 0 {
		if provisionDest {
			instructions = append(instructions, client.ProvisionATAInstruction(sessionKey, to, *o.mint))
		}

		transfer, err := client.TokenTransferInstruction(client.TokenTransferParams{
			Mint:      *o.mint,
			Owner:     sessionKey,
			Recipient: to,
			Amount:    tokenAmount,
			Decimals:  common.USDCDecimals,
		})
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, transfer)
	}

	if sweepLamports > 0 {
		instructions = append(instructions, client.NativeTransferInstruction(sweepLamports, sessionKey, to))
	}

	blockhash, err := o.ledger.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := client.BuildTransaction(instructions, blockhash, sessionKey)
	if err != nil {
		return solana.Signature{}, err
	}

	if err := o.session.Sign(tx); err != nil {
		return solana.Signature{}, err
	}

	sig, err := o.ledger.SubmitAndConfirm(ctx, tx)
	if err != nil {
		return sig, fmt.Errorf("withdraw failed: %w", err)
	}

	o.refreshBalance(ctx)
	return sig, nil
}

func (o *Ops) refreshBalance(ctx context.Context) {
	if o.refresh != nil {
		o.refresh(ctx)
	}
}
