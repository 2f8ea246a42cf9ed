package api

import (
	"net/http"

	"github.com/VDuda/arcade-sol/arcade"
	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(runtime *arcade.Runtime, ledger client.Ledger) http.Handler {
	sessionHandler := handler.NewSessionHandler(runtime, ledger)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Session endpoints
	mux.HandleFunc("/session", sessionHandler.GetSession)
	mux.HandleFunc("/session/balance", sessionHandler.GetBalance)
	mux.HandleFunc("/session/transactions", sessionHandler.GetTransactions)
	mux.HandleFunc("/session/deposit", sessionHandler.Deposit)
	mux.HandleFunc("/session/withdraw", sessionHandler.Withdraw)
	mux.HandleFunc("/session/reset", sessionHandler.Reset)

	// Game endpoint
	mux.HandleFunc("/play", sessionHandler.Play)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
