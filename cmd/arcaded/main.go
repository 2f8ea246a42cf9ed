// Package main runs the session wallet daemon: it loads (or creates) the
// session identity, keeps a polled balance view and exposes the session,
// funding and play endpoints over HTTP.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VDuda/arcade-sol/arcade"
	_ "github.com/VDuda/arcade-sol/docs"
	"github.com/VDuda/arcade-sol/internal/api"
	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/config"
	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/metrics"
	"github.com/VDuda/arcade-sol/internal/session"

	"github.com/gagliardetto/solana-go"
)

// @title           Arcade Session Wallet API
// @version         1.0
// @description     Local daemon managing a disposable Solana session wallet for arcade micro-payments.
// @BasePath        /
func main() {
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.PromptForPassphrase(); err != nil {
		log.Fatalf("Failed to read passphrase: %v", err)
	}

	zlog := logger.NewZapLogger(config.Get().LogLevel)
	recorder := metrics.NewPrometheusRecorder()

	ledger := client.NewSolanaClient(config.GetRPCURL())

	var mint *solana.PublicKey
	if raw := config.GetUSDCMint(); raw != "" {
		pk, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			log.Fatalf("Invalid ARCADE_USDC_MINT: %v", err)
		}
		mint = &pk
	}

	store := session.NewStore(config.GetSessionKeyPath(), config.GetPassphraseBytes())

	runtime := arcade.New(arcade.Options{
		Ledger:       ledger,
		Store:        store,
		ServerURL:    config.GetServerURL(),
		Mint:         mint,
		FeeReserve:   config.GetFeeReserveLamports(),
		PollInterval: config.GetPollInterval(),
		Logger:       zlog,
		Metrics:      recorder,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runtime.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}
	defer runtime.Teardown()

	srv := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: api.SetupRouter(runtime, ledger),
	}

	go func() {
		log.Printf("Session daemon listening on :%s", config.GetPort())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}
