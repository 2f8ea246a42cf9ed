// Package oracle maintains a cached, periodically refreshed view of the
// session identity's balances. Readers always get an immutable copy; a failed
// refresh keeps the previous snapshot visible.
package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Oracle polls the ledger for one owner's native and token balances.
type Oracle struct {
	ledger   client.Ledger
	owner    solana.PublicKey
	mint     *solana.PublicKey // nil: native asset only
	interval time.Duration
	log      logger.Logger

	mu       sync.RWMutex
	snapshot model.BalanceSnapshot

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
}

// New creates an oracle for owner. mint nil disables the token balance read.
func New(ledger client.Ledger, owner solana.PublicKey, mint *solana.PublicKey, interval time.Duration, log logger.Logger) *Oracle {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Oracle{
		ledger:   ledger,
		owner:    owner,
		mint:     mint,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Refresh reads current balances and replaces the snapshot wholesale.
// The native balance is read unconditionally; the token balance only when a
// mint is configured, with a missing token account reading as zero.
func (o *Oracle) Refresh(ctx context.Context) error {
	native, err := o.ledger.NativeBalance(ctx, o.owner)
	if err != nil {
		return fmt.Errorf("failed to refresh native balance: %w", err)
	}

	var tokenAmount uint64
	if o.mint != nil {
		tokenAmount, err = o.ledger.TokenBalance(ctx, o.owner, *o.mint)
		if err != nil {
			return fmt.Errorf("failed to refresh token balance: %w", err)
		}
	}

	o.mu.Lock()
	o.snapshot = model.BalanceSnapshot{
		NativeLamports: native,
		TokenMicro:     tokenAmount,
		ObservedAt:     time.Now(),
	}
	o.mu.Unlock()

	return nil
}

// Snapshot returns a copy of the most recent observation.
func (o *Oracle) Snapshot() model.BalanceSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot
}

// Zero clears the cached view. Used on session reset.
func (o *Oracle) Zero() {
	o.mu.Lock()
	o.snapshot = model.BalanceSnapshot{ObservedAt: time.Now()}
	o.mu.Unlock()
}

// Start begins the poll loop: one immediate refresh, then one per interval.
// A refresh failure is logged and the previous snapshot stays visible.
func (o *Oracle) Start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	go func() {
		defer close(o.done)

		o.refreshLogged()

		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()

		for {
			select {
			case <-o.stop:
				return
			case <-ticker.C:
				o.refreshLogged()
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit. Safe to call more than
// once.
func (o *Oracle) Stop() {
	o.mu.RLock()
	started := o.started
	o.mu.RUnlock()

	o.stopOnce.Do(func() { close(o.stop) })
	if started {
		<-o.done
	}
}

func (o *Oracle) refreshLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), o.interval)
	defer cancel()

	if err := o.Refresh(ctx); err != nil {
		o.log.Warn("balance refresh failed", map[string]any{
			"owner": o.owner.String(),
			"error": err.Error(),
		})
	}
}
