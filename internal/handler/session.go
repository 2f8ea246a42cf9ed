package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/VDuda/arcade-sol/arcade"
	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/common"
	"github.com/VDuda/arcade-sol/internal/config"
	"github.com/VDuda/arcade-sol/internal/funding"
	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/gagliardetto/solana-go"
)

// SessionHandler serves session identity and funding endpoints over the
// runtime.
type SessionHandler struct {
	runtime *arcade.Runtime
	ledger  client.Ledger
	rates   *client.CoinGeckoClient
}

// NewSessionHandler creates a new SessionHandler over the given runtime.
func NewSessionHandler(runtime *arcade.Runtime, ledger client.Ledger) *SessionHandler {
	return &SessionHandler{
		runtime: runtime,
		ledger:  ledger,
		rates:   client.NewCoinGeckoClient(),
	}
}

// GetSession handles GET /session
// @Summary      Get session identity
// @Description  Returns the session address, QR code and creation time
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /session [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.runtime.Identity()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{
		Address:   identity.Address().String(),
		QR:        identity.QR(),
		CreatedAt: identity.CreatedAt(),
	})
}

// GetBalance handles GET /session/balance
// @Summary      Get session balance
// @Description  Returns the cached SOL and USDC balance of the session wallet with an approximate USD value
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Router       /session/balance [get]
func (h *SessionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.runtime.Identity()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	snap := h.runtime.Snapshot()
	resp := model.BalanceResponse{
		Address:    identity.Address().String(),
		SOL:        common.FormatSOL(snap.NativeLamports),
		USDC:       common.FormatUSDC(snap.TokenMicro),
		ObservedAt: snap.ObservedAt,
	}

	// Rate lookup is best effort; the balance itself never depends on it.
	if rate, err := h.rates.GetSOLtoUSDRate(); err == nil {
		resp.SOLUSD = rate
	}

	writeJSON(w, http.StatusOK, resp)
}

// historyLimit bounds how many signatures per account are examined for the
// transaction listing.
const historyLimit = 100

// GetTransactions handles GET /session/transactions
// @Summary      List session transactions
// @Description  Returns transfers touching the session wallet, newest first, with USDC income and spend totals
// @Tags         session
// @Produce      json
// @Param        type      query  string  false  "DEBIT or CREDIT"
// @Param        txId      query  string  false  "Exact transaction signature"
// @Param        currency  query  string  false  "USDC or SOL"
// @Param        from      query  string  false  "RFC3339 lower bound"
// @Param        to        query  string  false  "RFC3339 upper bound"
// @Success      200       {object}  model.TransactionsResponse
// @Router       /session/transactions [get]
func (h *SessionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	identity, err := h.runtime.Identity()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var mint *solana.PublicKey
	if raw := config.GetUSDCMint(); raw != "" {
		parsed, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		mint = &parsed
	}

	entries, err := h.ledger.Transactions(r.Context(), identity.Address(), mint, historyLimit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	transactions := make([]model.Transaction, 0, len(entries))
	for _, e := range entries {
		tx := model.Transaction{
			Type:      model.TransactionType(e.Type),
			TxID:      e.TxID,
			From:      e.From,
			To:        e.To,
			Amount:    e.Amount,
			Currency:  e.Currency,
			FeeSOL:    e.FeeSOL,
			Timestamp: e.Timestamp,
			Slot:      e.Slot,
			Status:    e.Status,
		}
		if filter.Matches(tx) {
			transactions = append(transactions, tx)
		}
	}

	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})

	var incomeMicro, spentMicro uint64
	for _, tx := range transactions {
		if tx.Currency != "USDC" {
			continue
		}
		micro, err := common.ParseUSDC(tx.Amount)
		if err != nil {
			continue
		}
		if tx.Type == model.TransactionTypeDebit {
			incomeMicro += micro
		} else {
			spentMicro += micro
		}
	}

	writeJSON(w, http.StatusOK, model.TransactionsResponse{
		Address:         identity.Address().String(),
		TotalIncomeUSDC: common.FormatUSDC(incomeMicro),
		TotalSpentUSDC:  common.FormatUSDC(spentMicro),
		Transactions:    transactions,
	})
}

func parseTransactionFilter(query url.Values) (*model.TransactionFilter, error) {
	filter := &model.TransactionFilter{}

	if v := query.Get("type"); v != "" {
		t := model.TransactionType(v)
		filter.Type = &t
	}
	if v := query.Get("txId"); v != "" {
		filter.TxID = &v
	}
	if v := query.Get("currency"); v != "" {
		filter.Currency = &v
	}
	if v := query.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &ts
	}
	if v := query.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		filter.To = &ts
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return filter, nil
}

// Deposit handles POST /session/deposit
// @Summary      Fund the session wallet
// @Description  Transfers SOL and/or USDC from the primary wallet into the session wallet
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request  body      model.DepositRequest  true  "Amounts in display units"
// @Success      200      {object}  model.TxResponse
// @Router       /session/deposit [post]
func (h *SessionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var nativeLamports, tokenMicro uint64
	var err error
	if req.SOL != "" {
		nativeLamports, err = common.ParseSOL(req.SOL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.USDC != "" {
		tokenMicro, err = common.ParseUSDC(req.USDC)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	primary, err := h.primarySigner()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	sig, err := h.runtime.Deposit(r.Context(), primary, nativeLamports, tokenMicro)
	if err != nil {
		writeError(w, depositStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, model.TxResponse{TxID: sig.String()})
}

// Withdraw handles POST /session/withdraw
// @Summary      Sweep the session wallet
// @Description  Returns the full session balance, minus the fee reserve, to the primary wallet
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.TxResponse
// @Router       /session/withdraw [post]
func (h *SessionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	primary, err := h.primarySigner()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	sig, err := h.runtime.Withdraw(r.Context(), primary.PublicKey())
	if err != nil {
		if errors.Is(err, model.ErrNothingToWithdraw) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TxResponse{TxID: sig.String()})
}

// Reset handles POST /session/reset
// @Summary      Reset the session identity
// @Description  Destroys the session key and creates a fresh one; any funds left behind are abandoned
// @Tags         session
// @Produce      json
// @Success      200  {object}  model.ResetResponse
// @Router       /session/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	address, err := h.runtime.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ResetResponse{Address: address.String()})
}

// Play handles POST /play
// @Summary      Start a game session
// @Description  Requests a game session from the arcade server, paying the per-life fee from the session wallet when challenged
// @Tags         play
// @Accept       json
// @Produce      json
// @Param        request  body  model.PlayRequest  true  "Game to start"
// @Success      200      {object}  map[string]interface{}
// @Router       /play [post]
func (h *SessionHandler) Play(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, errors.New("gameId is required"))
		return
	}

	result, err := h.runtime.Play(r.Context(), req.GameID)
	if err != nil {
		writeError(w, playStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) primarySigner() (funding.PrimarySigner, error) {
	path := config.GetPrimaryKeyPath()
	if path == "" {
		return nil, errors.New("ARCADE_PRIMARY_KEY_PATH not set")
	}
	return arcade.LoadFilePrimarySigner(path, h.ledger)
}

func depositStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNoAmountSpecified):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientFunds), errors.Is(err, model.ErrInsufficientTokenFunds):
		return http.StatusConflict
	case errors.Is(err, model.ErrUserCancelled):
		return http.StatusConflict
	case errors.Is(err, model.ErrIdentityUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func playStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrInsufficientFunds), errors.Is(err, model.ErrInsufficientTokenFunds):
		return http.StatusConflict
	case errors.Is(err, model.ErrMalformedChallenge):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrPaymentFailed), errors.Is(err, model.ErrRequestFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: errorCode(err)})
}

// errorCode maps the error taxonomy to stable machine-readable codes so a UI
// can route on outcome without parsing messages.
func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrIdentityUnavailable):
		return "IDENTITY_UNAVAILABLE"
	case errors.Is(err, model.ErrNoAmountSpecified):
		return "NO_AMOUNT_SPECIFIED"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, model.ErrInsufficientTokenFunds):
		return "INSUFFICIENT_TOKEN_FUNDS"
	case errors.Is(err, model.ErrNothingToWithdraw):
		return "NOTHING_TO_WITHDRAW"
	case errors.Is(err, model.ErrUserCancelled):
		return "USER_CANCELLED"
	case errors.Is(err, model.ErrMalformedChallenge):
		return "MALFORMED_CHALLENGE"
	case errors.Is(err, model.ErrPaymentFailed):
		return "PAYMENT_FAILED"
	case errors.Is(err, model.ErrRequestFailed):
		return "REQUEST_FAILED"
	default:
		return ""
	}
}
