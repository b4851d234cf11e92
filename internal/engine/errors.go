package engine

import "errors"

// Configuration errors: the request itself is malformed or unauthorized.
var (
	ErrUnauthorized       = errors.New("caller is not the owner")
	ErrTokenCount         = errors.New("pool must hold between 2 and 8 tokens")
	ErrLengthMismatch     = errors.New("token and weight lists differ in length")
	ErrWeightSum          = errors.New("weights must sum to exactly 1.0")
	ErrWeightNotPositive  = errors.New("every weight must be positive")
	ErrSwapFeeBounds      = errors.New("swap fee outside [0.1%, 10%]")
	ErrAmountVectorLength = errors.New("amount vector length does not match pool token count")
	ErrNegativeAmount     = errors.New("amounts must be non-negative")
)

// State errors: the request conflicts with current pool state.
var (
	ErrPoolNotFound         = errors.New("pool not found")
	ErrTokenNotInPool       = errors.New("token is not a pool member")
	ErrSameTokenSwap        = errors.New("cannot swap a token for itself")
	ErrEmptyTokenBalance    = errors.New("token balance in pool is zero")
	ErrInsufficientShares   = errors.New("requested units exceed held units")
	ErrZeroSharesMinted     = errors.New("deposit would mint zero liquidity units")
	ErrNoPosition           = errors.New("no liquidity units held in this pool")
	ErrPayoutExceedsBalance = errors.New("computed payout exceeds pool balance")
)

// Operational errors.
var (
	ErrSlippage  = errors.New("swap output below declared minimum")
	ErrPaused    = errors.New("liquidity operations are paused")
	ErrReentrant = errors.New("reentrant call rejected")
	ErrLedger    = errors.New("ledger transfer failed")
)
