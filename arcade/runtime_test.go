package arcade

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/VDuda/arcade-sol/internal/client/clienttest"
	"github.com/VDuda/arcade-sol/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T, ledger *clienttest.FakeLedger, serverURL string) *Runtime {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.key"), nil)
	r := New(Options{
		Ledger:       ledger,
		Store:        store,
		ServerURL:    serverURL,
		FeeReserve:   5000,
		PollInterval: 10 * time.Millisecond,
	})
	t.Cleanup(r.Teardown)
	return r
}

func TestInit_LoadsIdentityAndPolls(t *testing.T) {
	ledger := clienttest.NewFakeLedger()
	r := newTestRuntime(t, ledger, "")

	require.NoError(t, r.Init(context.Background()))

	identity, err := r.Identity()
	require.NoError(t, err)
	assert.False(t, identity.Address().IsZero())

	ledger.Native[identity.Address()] = 777_000
	assert.Eventually(t, func() bool {
		return r.Snapshot().NativeLamports == 777_000
	}, time.Second, 5*time.Millisecond)
}

func TestInit_Idempotent(t *testing.T) {
	r := newTestRuntime(t, clienttest.NewFakeLedger(), "")

	require.NoError(t, r.Init(context.Background()))
	first, err := r.Identity()
	require.NoError(t, err)

	require.NoError(t, r.Init(context.Background()))
	second, err := r.Identity()
	require.NoError(t, err)
	assert.Equal(t, first.Address(), second.Address())
}

func TestUninitialized(t *testing.T) {
	r := newTestRuntime(t, clienttest.NewFakeLedger(), "")

	_, err := r.Identity()
	assert.Error(t, err)
	_, err = r.Play(context.Background(), "floppy-solana")
	assert.Error(t, err)
	assert.Zero(t, r.Snapshot().NativeLamports)
}

func TestReset_NewIdentityAndZeroedView(t *testing.T) {
	ledger := clienttest.NewFakeLedger()
	r := newTestRuntime(t, ledger, "")
	require.NoError(t, r.Init(context.Background()))

	before, err := r.Identity()
	require.NoError(t, err)
	ledger.Native[before.Address()] = 500_000
	assert.Eventually(t, func() bool {
		return r.Snapshot().NativeLamports == 500_000
	}, time.Second, 5*time.Millisecond)

	address, err := r.Reset(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before.Address(), address)

	after, err := r.Identity()
	require.NoError(t, err)
	assert.Equal(t, address, after.Address())

	assert.Eventually(t, func() bool {
		return r.Snapshot().NativeLamports == 0
	}, time.Second, 5*time.Millisecond, "reset zeroes the cached balance view")
}

func TestPlay_FlowsThroughProtocolClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "session_ok"})
	}))
	defer srv.Close()

	r := newTestRuntime(t, clienttest.NewFakeLedger(), srv.URL)
	require.NoError(t, r.Init(context.Background()))

	result, err := r.Play(context.Background(), "floppy-solana")
	require.NoError(t, err)
	assert.Equal(t, "session_ok", result["token"])
}

func TestTeardown_AllowsReInit(t *testing.T) {
	r := newTestRuntime(t, clienttest.NewFakeLedger(), "")
	require.NoError(t, r.Init(context.Background()))

	r.Teardown()
	_, err := r.Identity()
	assert.Error(t, err)

	require.NoError(t, r.Init(context.Background()))
	identity, err := r.Identity()
	require.NoError(t, err)
	assert.False(t, identity.Address().IsZero())
}
