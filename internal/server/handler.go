package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/metrics"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the protected start-game action: it issues payment
// challenges and admits callers whose proof verifies.
type Handler struct {
	platformWallet solana.PublicKey
	token          string // asset identifier in challenges: mint address or "SOL"
	verifier       Verifier
	log            logger.Logger
	metrics        metrics.Recorder
}

// NewHandler creates the resource server handler. token empty means the
// native asset. log and rec may be nil.
func NewHandler(platformWallet solana.PublicKey, token string, verifier Verifier, log logger.Logger, rec metrics.Recorder) *Handler {
	if token == "" {
		token = "SOL"
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Handler{
		platformWallet: platformWallet,
		token:          token,
		verifier:       verifier,
		log:            log,
		metrics:        rec,
	}
}

// SetupRouter mounts the resource server routes.
func (h *Handler) SetupRouter() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/start-game", h.StartGame)
	mux.HandleFunc("/api/games", h.ListGames)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type startGameRequest struct {
	GameID    string `json:"gameId"`
	Signature string `json:"signature,omitempty"`
}

type paymentInfo struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Token     string `json:"token"`
	Label     string `json:"label,omitempty"`
	Message   string `json:"message,omitempty"`
}

// StartGame handles POST /api/start-game: first call without proof gets a 402
// challenge describing exactly what to pay; a resubmission carrying a valid
// proof unlocks the game session.
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = startGameRequest{}
	}

	if req.GameID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Game ID required"})
		return
	}

	game, ok := GameByID(req.GameID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Game not found"})
		return
	}

	if req.Signature == "" {
		h.metrics.IncCounter("challenge_issued", map[string]string{"asset": h.token})
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": "Payment Required",
			"paymentInfo": paymentInfo{
				Recipient: h.platformWallet.String(),
				Amount:    game.CostPerLife,
				Token:     h.token,
				Label:     "Play " + game.Title,
				Message:   "Game Session Fee",
			},
		})
		return
	}

	if err := h.verifier.VerifyPayment(r.Context(), req.Signature, h.platformWallet, h.token, game.CostPerLife); err != nil {
		h.log.Warn("proof rejected", map[string]any{
			"gameId":    req.GameID,
			"signature": req.Signature,
			"error":     err.Error(),
		})
		h.metrics.IncCounter("proof_rejected", map[string]string{"asset": h.token})
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	sessionToken, err := randomToken()
	if err != nil {
		h.log.Error("failed to issue session token", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to issue session token"})
		return
	}

	h.metrics.IncCounter("proof_accepted", map[string]string{"asset": h.token})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   "session_" + sessionToken,
		"message": "Payment Verified. Game Starting...",
	})
}

// ListGames handles GET /api/games
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": Games()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func randomToken() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
