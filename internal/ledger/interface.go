package ledger

import (
	sdkmath "cosmossdk.io/math"
)

// TokenLedger is the external fungible-token ledger the engine moves assets
// through. The engine depends on it abstractly: implementations may be
// adversarial (fee-on-transfer tokens, callbacks that re-enter the engine),
// so every engine operation that crosses this interface runs under the
// engine's exclusive-execution lock.
type TokenLedger interface {
	// TransferIn pulls amount of token from the holder into pool custody.
	// Fails if the holder lacks balance or has not granted a sufficient
	// transfer allowance.
	TransferIn(token, from string, amount sdkmath.Int) error

	// TransferOut pushes amount of token from pool custody to the recipient.
	// Fails if custody holds less than amount at the ledger level, which is a
	// distinct check from the pool's internal bookkeeping balance.
	TransferOut(token, to string, amount sdkmath.Int) error

	// CustodyBalance reports how much of token the pool custody account
	// actually holds at the ledger. The engine probes this before issuing a
	// multi-token payout so an all-outbound operation either runs to
	// completion or issues no transfer at all.
	CustodyBalance(token string) sdkmath.Int
}
