package model

import "errors"

// Session wallet error taxonomy. Every operation resolves to one of these at
// its call boundary; callers match with errors.Is and route accordingly
// (top-up prompt, silent cancel, manual reconciliation).
var (
	// ErrIdentityUnavailable means no primary signer is connected for an
	// operation that needs one (deposit).
	ErrIdentityUnavailable = errors.New("primary identity unavailable")

	// ErrNoAmountSpecified means a deposit was requested with both amounts zero.
	ErrNoAmountSpecified = errors.New("no amount specified")

	// ErrInsufficientFunds is a pre-flight native balance shortfall. Nothing
	// was submitted to the ledger.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientTokenFunds is a pre-flight token balance shortfall.
	ErrInsufficientTokenFunds = errors.New("insufficient token funds")

	// ErrNothingToWithdraw means the session balance minus the fee reserve
	// leaves nothing to sweep.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")

	// ErrUserCancelled means the external signer declined. Not a real failure:
	// callers suppress error noise for this case.
	ErrUserCancelled = errors.New("user cancelled signing")

	// ErrMalformedChallenge means a 402 response did not carry a well-formed
	// payment challenge. Fatal for the call, never retried.
	ErrMalformedChallenge = errors.New("malformed payment challenge")

	// ErrPaymentFailed means the ledger rejected or failed to confirm the
	// settlement transaction. Never retried automatically: a blind retry
	// risks paying twice.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrRequestFailed means the request still did not succeed after a valid
	// payment. Funds moved but the action did not unlock; this needs manual
	// reconciliation, not a retry.
	ErrRequestFailed = errors.New("request failed after payment")
)
