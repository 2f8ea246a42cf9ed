package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/VDuda/arcade-sol/arcade"
	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/client/clienttest"
	"github.com/VDuda/arcade-sol/internal/config"
	"github.com/VDuda/arcade-sol/internal/session"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, ledger *clienttest.FakeLedger, serverURL string) (*SessionHandler, *arcade.Runtime) {
	t.Helper()

	require.NoError(t, config.Init())

	store := session.NewStore(filepath.Join(t.TempDir(), "session.key"), nil)
	runtime := arcade.New(arcade.Options{
		Ledger:       ledger,
		Store:        store,
		ServerURL:    serverURL,
		FeeReserve:   5000,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, runtime.Init(context.Background()))
	t.Cleanup(runtime.Teardown)

	return NewSessionHandler(runtime, ledger), runtime
}

// writeKeygenFile persists a keypair in solana keygen format (a JSON array of
// byte values) and returns its path.
func writeKeygenFile(t *testing.T, key solana.PrivateKey) string {
	t.Helper()
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	encoded, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "primary.json")
	require.NoError(t, os.WriteFile(path, encoded, 0600))
	return path
}

func doJSON(t *testing.T, fn http.HandlerFunc, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	fn(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestGetSession(t *testing.T) {
	h, runtime := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec, body := doJSON(t, h.GetSession, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	identity, err := runtime.Identity()
	require.NoError(t, err)
	assert.Equal(t, identity.Address().String(), body["address"])
	assert.NotEmpty(t, body["QR"])
}

func TestDeposit_InvalidAmount(t *testing.T) {
	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec, _ := doJSON(t, h.Deposit, http.MethodPost, "/session/deposit", map[string]any{"sol": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeposit_NoPrimaryConfigured(t *testing.T) {
	t.Setenv("ARCADE_PRIMARY_KEY_PATH", "")
	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec, body := doJSON(t, h.Deposit, http.MethodPost, "/session/deposit", map[string]any{"sol": "0.001"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["error"], "ARCADE_PRIMARY_KEY_PATH")
}

func TestDeposit_Success(t *testing.T) {
	primaryKey := solana.NewWallet().PrivateKey
	t.Setenv("ARCADE_PRIMARY_KEY_PATH", writeKeygenFile(t, primaryKey))

	ledger := clienttest.NewFakeLedger()
	ledger.Native[primaryKey.PublicKey()] = 10_000_000

	h, _ := newTestHandler(t, ledger, "")

	rec, body := doJSON(t, h.Deposit, http.MethodPost, "/session/deposit", map[string]any{"sol": "0.001"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.NotEmpty(t, body["txId"])
	assert.Len(t, ledger.Submitted, 1)
}

func TestDeposit_InsufficientFunds(t *testing.T) {
	primaryKey := solana.NewWallet().PrivateKey
	t.Setenv("ARCADE_PRIMARY_KEY_PATH", writeKeygenFile(t, primaryKey))

	ledger := clienttest.NewFakeLedger()
	// primary has nothing
	h, _ := newTestHandler(t, ledger, "")

	rec, _ := doJSON(t, h.Deposit, http.MethodPost, "/session/deposit", map[string]any{"sol": "0.001"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, ledger.Submitted)
}

func TestWithdraw_NothingToWithdraw(t *testing.T) {
	primaryKey := solana.NewWallet().PrivateKey
	t.Setenv("ARCADE_PRIMARY_KEY_PATH", writeKeygenFile(t, primaryKey))

	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec, _ := doJSON(t, h.Withdraw, http.MethodPost, "/session/withdraw", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWithdraw_Success(t *testing.T) {
	primaryKey := solana.NewWallet().PrivateKey
	t.Setenv("ARCADE_PRIMARY_KEY_PATH", writeKeygenFile(t, primaryKey))

	ledger := clienttest.NewFakeLedger()
	h, runtime := newTestHandler(t, ledger, "")
	identity, err := runtime.Identity()
	require.NoError(t, err)
	ledger.Native[identity.Address()] = 1_000_000

	rec, body := doJSON(t, h.Withdraw, http.MethodPost, "/session/withdraw", nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.NotEmpty(t, body["txId"])
	require.Len(t, ledger.Submitted, 1)
}

func TestReset(t *testing.T) {
	h, runtime := newTestHandler(t, clienttest.NewFakeLedger(), "")

	before, err := runtime.Identity()
	require.NoError(t, err)

	rec, body := doJSON(t, h.Reset, http.MethodPost, "/session/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, before.Address().String(), body["address"])
}

func TestPlay(t *testing.T) {
	game := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "session_ok"})
	}))
	defer game.Close()

	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), game.URL)

	rec, body := doJSON(t, h.Play, http.MethodPost, "/play", map[string]any{"gameId": "floppy-solana"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session_ok", body["token"])
}

func TestPlay_MissingGameID(t *testing.T) {
	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec, _ := doJSON(t, h.Play, http.MethodPost, "/play", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactions(t *testing.T) {
	ledger := clienttest.NewFakeLedger()
	primary := solana.NewWallet().PublicKey().String()
	platform := solana.NewWallet().PublicKey().String()

	h, runtime := newTestHandler(t, ledger, "")
	identity, err := runtime.Identity()
	require.NoError(t, err)
	owner := identity.Address().String()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger.History = []client.HistoryEntry{
		{Type: "DEBIT", TxID: "sig-deposit", From: primary, To: owner, Amount: "5.000000", Currency: "USDC", FeeSOL: "0", Timestamp: base, Slot: 10, Status: "success"},
		{Type: "CREDIT", TxID: "sig-settle", From: owner, To: platform, Amount: "2.000000", Currency: "USDC", FeeSOL: "0.000005000", Timestamp: base.Add(time.Hour), Slot: 11, Status: "success"},
		{Type: "CREDIT", TxID: "sig-sweep", From: owner, To: primary, Amount: "0.000995000", Currency: "SOL", FeeSOL: "0.000005000", Timestamp: base.Add(2 * time.Hour), Slot: 12, Status: "success"},
	}

	rec := httptest.NewRecorder()
	h.GetTransactions(rec, httptest.NewRequest(http.MethodGet, "/session/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Address         string `json:"address"`
		TotalIncomeUSDC string `json:"total_income_USDC"`
		TotalSpentUSDC  string `json:"total_spent_USDC"`
		Transactions    []struct {
			TxID     string `json:"txId"`
			Currency string `json:"currency"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, owner, resp.Address)
	assert.Equal(t, "5.000000", resp.TotalIncomeUSDC)
	assert.Equal(t, "2.000000", resp.TotalSpentUSDC)
	require.Len(t, resp.Transactions, 3)
	assert.Equal(t, "sig-sweep", resp.Transactions[0].TxID, "newest first")
	assert.Equal(t, "sig-deposit", resp.Transactions[2].TxID)
}

func TestGetTransactions_Filtered(t *testing.T) {
	ledger := clienttest.NewFakeLedger()
	h, runtime := newTestHandler(t, ledger, "")
	identity, err := runtime.Identity()
	require.NoError(t, err)
	owner := identity.Address().String()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger.History = []client.HistoryEntry{
		{Type: "DEBIT", TxID: "a", To: owner, Amount: "5.000000", Currency: "USDC", FeeSOL: "0", Timestamp: base, Status: "success"},
		{Type: "CREDIT", TxID: "b", From: owner, Amount: "0.000995000", Currency: "SOL", FeeSOL: "0.000005000", Timestamp: base.Add(time.Hour), Status: "success"},
	}

	rec := httptest.NewRecorder()
	h.GetTransactions(rec, httptest.NewRequest(http.MethodGet, "/session/transactions?currency=SOL&type=CREDIT", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalIncomeUSDC string `json:"total_income_USDC"`
		Transactions    []struct {
			TxID string `json:"txId"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "b", resp.Transactions[0].TxID)
	assert.Equal(t, "0.000000", resp.TotalIncomeUSDC, "totals follow the filter")
}

func TestGetTransactions_InvalidFilter(t *testing.T) {
	h, _ := newTestHandler(t, clienttest.NewFakeLedger(), "")

	rec := httptest.NewRecorder()
	h.GetTransactions(rec, httptest.NewRequest(http.MethodGet, "/session/transactions?type=SIDEWAYS", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetTransactions(rec, httptest.NewRequest(http.MethodGet, "/session/transactions?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransactions_LedgerFailure(t *testing.T) {
	ledger := clienttest.NewFakeLedger()
	ledger.HistoryErr = errors.New("rpc unavailable")
	h, _ := newTestHandler(t, ledger, "")

	rec := httptest.NewRecorder()
	h.GetTransactions(rec, httptest.NewRequest(http.MethodGet, "/session/transactions", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
