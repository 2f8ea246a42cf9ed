// Package x402 implements the payment-required protocol client: issue a
// request, and when the resource server answers 402 with a payment challenge,
// settle it from the session identity and resubmit the request with proof.
//
// Each logical call walks an explicit state machine. The shape of the machine
// guarantees the cost bound: at most one payment and exactly one retry per
// call, so a misbehaving server can never drain the session wallet.
package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/common"
	"github.com/VDuda/arcade-sol/internal/logger"
	"github.com/VDuda/arcade-sol/internal/metrics"
	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/gagliardetto/solana-go"
)

// SessionSigner is the signing capability of the session identity. It both
// pays the challenge and pays the network fee: the session is self-funding
// here, no external signer is involved.
type SessionSigner interface {
	Address() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// Client drives payment-required calls against a resource server.
type Client struct {
	http       *http.Client
	ledger     client.Ledger
	session    SessionSigner
	mint       *solana.PublicKey // configured mint; decides checked-transfer decimals
	feeReserve uint64
	log        logger.Logger
	metrics    metrics.Recorder

	// mu keeps settlement single-flight per session identity; concurrent
	// calls would race each other for the same balance.
	mu sync.Mutex
}

// New creates a protocol client. log and rec may be nil.
func New(httpClient *http.Client, ledger client.Ledger, session SessionSigner, mint *solana.PublicKey, feeReserve uint64, log logger.Logger, rec metrics.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Client{
		http:       httpClient,
		ledger:     ledger,
		session:    session,
		mint:       mint,
		feeReserve: feeReserve,
		log:        log,
		metrics:    rec,
	}
}

// callState enumerates the protocol states for one logical call.
type callState int

const (
	stateSend callState = iota
	stateReceived
	stateChallengeParsed
	stateBalanceChecked
	statePaymentBuilt
	statePaymentSubmitted
	stateRetrySent
	stateDone
)

// Call posts body to url, settling a payment challenge if the server demands
// one, and returns the decoded success payload. The sequence is strictly
// sequential: challenge, balance check, build, submit, confirm, retry.
func (c *Client) Call(ctx context.Context, url string, body map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := time.Now()

	var (
		state     = stateSend
		status    int
		payload   []byte
		challenge *PaymentInfo
		paymentTx *solana.Transaction
		proof     solana.Signature
		result    map[string]any
		err       error
	)

	for state != stateDone {
		switch state {

		case stateSend:
			// the original request body, unchanged, no payment proof attached
			status, payload, err = c.post(ctx, url, body)
			if err != nil {
				return nil, err
			}
			state = stateReceived

		case stateReceived:
			if status != http.StatusPaymentRequired {
				result, err = decodeTerminal(status, payload, false)
				state = stateDone
				break
			}
			state = stateChallengeParsed

		case stateChallengeParsed:
			challenge, err = parseChallenge(payload)
			if err != nil {
				return nil, err
			}
			c.log.Info("payment required", map[string]any{
				"recipient": challenge.Recipient,
				"amount":    challenge.Amount,
				"token":     challenge.Token,
			})
			c.metrics.IncCounter("payment_required", map[string]string{"asset": challenge.Token})
			state = stateBalanceChecked

		case stateBalanceChecked:
			if err = c.checkBalance(ctx, challenge); err != nil {
				return nil, err
			}
			state = statePaymentBuilt

		case statePaymentBuilt:
			paymentTx, err = c.buildPayment(ctx, challenge)
			if err != nil {
				return nil, err
			}
			state = statePaymentSubmitted

		case statePaymentSubmitted:
			proof, err = c.ledger.SubmitAndConfirm(ctx, paymentTx)
			if err != nil {
				c.metrics.IncCounter("payment_failed", map[string]string{"asset": challenge.Token})
				return nil, fmt.Errorf("%w: %v", model.ErrPaymentFailed, err)
			}
			c.log.Info("payment sent", map[string]any{"signature": proof.String()})
			c.metrics.IncCounter("payment_settled", map[string]string{"asset": challenge.Token})
			state = stateRetrySent

		case stateRetrySent:
			// exactly one retry, settlement proof merged into the original body
			retryBody := make(map[string]any, len(body)+1)
			for k, v := range body {
				retryBody[k] = v
			}
			retryBody["signature"] = proof.String()

			status, payload, err = c.post(ctx, url, retryBody)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", model.ErrRequestFailed, err)
			}
			result, err = decodeTerminal(status, payload, true)
			state = stateDone
		}
	}

	c.metrics.ObserveLatency("call", time.Since(started), map[string]string{"asset": assetLabel(challenge)})
	return result, err
}

// post issues one JSON POST and returns status and raw body.
func (c *Client) post(ctx context.Context, url string, body map[string]any) (int, []byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, payload, nil
}

// checkBalance verifies the session can afford the challenge before any
// transaction is constructed, distinguishing "can't afford it" from "ledger
// rejected the payment".
func (c *Client) checkBalance(ctx context.Context, challenge *PaymentInfo) error {
	native, err := c.ledger.NativeBalance(ctx, c.session.Address())
	if err != nil {
		return fmt.Errorf("failed to check session balance: %w", err)
	}

	if challenge.IsNative() {
		if native < challenge.Amount+c.feeReserve {
			return fmt.Errorf("%w: need %s SOL plus fees, have %s SOL",
				model.ErrInsufficientFunds, common.FormatSOL(challenge.Amount), common.FormatSOL(native))
		}
		return nil
	}

	mint, err := solana.PublicKeyFromBase58(challenge.Token)
	if err != nil {
		return fmt.Errorf("%w: invalid asset %q", model.ErrMalformedChallenge, challenge.Token)
	}
	recipient, err := solana.PublicKeyFromBase58(challenge.Recipient)
	if err != nil {
		return fmt.Errorf("%w: invalid recipient %q", model.ErrMalformedChallenge, challenge.Recipient)
	}

	// Provisioning the recipient's token account charges the session its
	// rent-exempt deposit, so the affordability check must price it in.
	needed := c.feeReserve
	exists, err := c.ledger.TokenAccountExists(ctx, recipient, mint)
	if err != nil {
		return fmt.Errorf("failed to check recipient token account: %w", err)
	}
	if !exists {
		rent, err := c.ledger.RentExemptMinimum(ctx, client.TokenAccountSize)
		if err != nil {
			return fmt.Errorf("failed to price account creation: %w", err)
		}
		needed += rent
	}

	if native < needed {
		return fmt.Errorf("%w: need %s SOL for fees, have %s SOL",
			model.ErrInsufficientFunds, common.FormatSOL(needed), common.FormatSOL(native))
	}

	tokenBalance, err := c.ledger.TokenBalance(ctx, c.session.Address(), mint)
	if err != nil {
		return fmt.Errorf("failed to check session token balance: %w", err)
	}
	if tokenBalance < challenge.Amount {
		return fmt.Errorf("%w: need %d, have %d", model.ErrInsufficientTokenFunds, challenge.Amount, tokenBalance)
	}

	return nil
}

// buildPayment constructs and signs the settlement transaction for the
// challenge. Native asset routes to a system transfer; anything else routes
// to an SPL token transfer with recipient-account provisioning when needed,
// fee payer the session identity.
func (c *Client) buildPayment(ctx context.Context, challenge *PaymentInfo) (*solana.Transaction, error) {
	recipient, err := solana.PublicKeyFromBase58(challenge.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipient %q", model.ErrMalformedChallenge, challenge.Recipient)
	}

	sessionKey := c.session.Address()
	var instructions []solana.Instruction

	if challenge.IsNative() {
		instructions = []solana.Instruction{
			client.NativeTransferInstruction(challenge.Amount, sessionKey, recipient),
		}
	} else {
		mint, err := solana.PublicKeyFromBase58(challenge.Token)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid asset %q", model.ErrMalformedChallenge, challenge.Token)
		}

		exists, err := c.ledger.TokenAccountExists(ctx, recipient, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to check recipient token account: %w", err)
		}
		if !exists {
			instructions = append(instructions, client.ProvisionATAInstruction(sessionKey, recipient, mint))
		}

		transfer, err := client.TokenTransferInstruction(client.TokenTransferParams{
			Mint:      mint,
			Owner:     sessionKey,
			Recipient: recipient,
			Amount:    challenge.Amount,
			Decimals:  c.decimalsFor(mint),
		})
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, transfer)
	}

	blockhash, err := c.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := client.BuildTransaction(instructions, blockhash, sessionKey)
	if err != nil {
		return nil, err
	}

	if err := c.session.Sign(tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// decimalsFor returns the checked-transfer decimals for a mint, or negative
// when the mint is not the configured one and its decimals are unknown.
func (c *Client) decimalsFor(mint solana.PublicKey) int {
	if c.mint != nil && c.mint.Equals(mint) {
		return common.USDCDecimals
	}
	return -1
}

// decodeTerminal maps a non-402 response to the call result. afterPayment
// marks the retry leg, where any failure (a second 402 included) means funds
// moved but the action did not unlock.
func decodeTerminal(status int, payload []byte, afterPayment bool) (map[string]any, error) {
	if status == http.StatusPaymentRequired && afterPayment {
		return nil, fmt.Errorf("%w: server demanded a second payment", model.ErrRequestFailed)
	}

	var result map[string]any
	if err := json.Unmarshal(payload, &result); err != nil {
		if afterPayment {
			return nil, fmt.Errorf("%w: invalid response (status %d)", model.ErrRequestFailed, status)
		}
		return nil, fmt.Errorf("invalid response (status %d): %v", status, err)
	}

	if status >= 200 && status < 300 {
		return result, nil
	}

	errMsg, _ := result["error"].(string)
	if errMsg == "" {
		errMsg = fmt.Sprintf("status %d", status)
	}
	if afterPayment {
		return nil, fmt.Errorf("%w: %s", model.ErrRequestFailed, errMsg)
	}
	return nil, errors.New(errMsg)
}

func assetLabel(challenge *PaymentInfo) string {
	if challenge == nil {
		return "none"
	}
	return challenge.Token
}
