// Package main runs the reference arcade resource server: it answers game
// session requests with 402 payment challenges and verifies submitted payment
// proofs on chain before unlocking a session.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VDuda/arcade-sol/internal/config"
	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/metrics"
	"github.com/VDuda/arcade-sol/internal/server"

	"github.com/gagliardetto/solana-go"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	raw := config.GetPlatformWallet()
	if raw == "" {
		log.Fatal("ARCADE_PLATFORM_WALLET not set")
	}
	platformWallet, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		log.Fatalf("Invalid ARCADE_PLATFORM_WALLET: %v", err)
	}

	zlog := logger.NewZapLogger(config.Get().LogLevel)
	recorder := metrics.NewPrometheusRecorder()
	verifier := server.NewRPCVerifier(config.GetRPCURL())

	h := server.NewHandler(platformWallet, "SOL", verifier, zlog, recorder)

	srv := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Arcade server listening on :%s", config.GetPort())
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
