// Package arcade wires the session wallet together: identity store, balance
// oracle, funding operations and the payment-required protocol client, with
// an explicit lifecycle instead of ambient module state.
package arcade

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/funding"
	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/metrics"
	"github.com/VDuda/arcade-sol/internal/model"
	"github.com/VDuda/arcade-sol/internal/oracle"
	"github.com/VDuda/arcade-sol/internal/session"
	"github.com/VDuda/arcade-sol/internal/x402"

	"github.com/gagliardetto/solana-go"
)

// Options configures a Runtime. Ledger and Store are required.
type Options struct {
	Ledger       client.Ledger
	Store        *session.Store
	ServerURL    string
	Mint         *solana.PublicKey // nil: native asset only
	FeeReserve   uint64
	PollInterval time.Duration
	HTTPClient   *http.Client
	Logger       logger.Logger
	Metrics      metrics.Recorder
}

// Runtime is the explicit session context the components hang off.
type Runtime struct {
	opts Options
	log  logger.Logger

	mu       sync.Mutex
	identity *session.Identity
	oracle   *oracle.Oracle
	funding  *funding.Ops
	protocol *x402.Client
}

// New creates an uninitialized runtime. Call Init before use.
func New(opts Options) *Runtime {
	if opts.Logger == nil {
		opts.Logger = logger.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Runtime{opts: opts, log: opts.Logger}
}

// Init loads (or creates) the session identity and starts balance polling.
// Guarantees a valid identity is available before any dependent component
// runs.
func (r *Runtime) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.identity != nil {
		return nil
	}

	identity, err := r.opts.Store.Load()
	if err != nil {
		return err
	}

	r.attach(identity)
	r.oracle.Start()

	r.log.Info("session initialized", map[string]any{"address": identity.Address().String()})
	return nil
}

// Teardown stops polling. The identity stays persisted for the next run.
func (r *Runtime) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.oracle != nil {
		r.oracle.Stop()
	}
	r.identity = nil
	r.oracle = nil
	r.funding = nil
	r.protocol = nil
}

// Reset destroys the session identity, generates a fresh one and zeroes the
// cached balance view before polling resumes under the new address.
func (r *Runtime) Reset(ctx context.Context) (solana.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.oracle != nil {
		r.oracle.Stop()
	}

	identity, err := r.opts.Store.Reset()
	if err != nil {
		return solana.PublicKey{}, err
	}

	r.attach(identity)
	r.oracle.Zero()
	r.oracle.Start()

	r.log.Info("session reset", map[string]any{"address": identity.Address().String()})
	return identity.Address(), nil
}

// attach rebuilds the per-identity components. Caller holds r.mu.
func (r *Runtime) attach(identity *session.Identity) {
	r.identity = identity

	ora := oracle.New(r.opts.Ledger, identity.Address(), r.opts.Mint, r.opts.PollInterval, r.log)
	r.oracle = ora

	refresh := func(ctx context.Context) {
		if err := ora.Refresh(ctx); err != nil {
			r.log.Warn("post-funding balance refresh failed", map[string]any{"error": err.Error()})
		}
	}

	r.funding = funding.New(r.opts.Ledger, identity, r.opts.Mint, r.opts.FeeReserve, refresh)
	r.protocol = x402.New(r.opts.HTTPClient, r.opts.Ledger, identity, r.opts.Mint, r.opts.FeeReserve, r.log, r.opts.Metrics)
}

// Identity returns the active session identity.
func (r *Runtime) Identity() (*session.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identity == nil {
		return nil, errors.New("runtime not initialized")
	}
	return r.identity, nil
}

// Snapshot returns the current cached balance view.
func (r *Runtime) Snapshot() model.BalanceSnapshot {
	r.mu.Lock()
	ora := r.oracle
	r.mu.Unlock()
	if ora == nil {
		return model.BalanceSnapshot{}
	}
	return ora.Snapshot()
}

// Deposit moves funds from the primary identity into the session wallet.
func (r *Runtime) Deposit(ctx context.Context, primary funding.PrimarySigner, nativeLamports, tokenMicro uint64) (solana.Signature, error) {
	ops, err := r.fundingOps()
	if err != nil {
		return solana.Signature{}, err
	}
	return ops.Deposit(ctx, primary, nativeLamports, tokenMicro)
}

// Withdraw sweeps the session wallet back to the primary address.
func (r *Runtime) Withdraw(ctx context.Context, to solana.PublicKey) (solana.Signature, error) {
	ops, err := r.fundingOps()
	if err != nil {
		return solana.Signature{}, err
	}
	return ops.Withdraw(ctx, to)
}

// Play unlocks one game session, paying the per-life fee when challenged.
func (r *Runtime) Play(ctx context.Context, gameID string) (map[string]any, error) {
	r.mu.Lock()
	protocol := r.protocol
	r.mu.Unlock()
	if protocol == nil {
		return nil, errors.New("runtime not initialized")
	}
	return protocol.Call(ctx, r.opts.ServerURL, map[string]any{"gameId": gameID})
}

func (r *Runtime) fundingOps() (*funding.Ops, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funding == nil {
		return nil, errors.New("runtime not initialized")
	}
	return r.funding, nil
}
