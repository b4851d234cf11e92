package ledger

import (
	"errors"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// Error definitions surfaced to the engine as ledger failures.
var (
	ErrInsufficientBalance   = errors.New("ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	ErrInsufficientCustody   = errors.New("ledger: insufficient custody balance")
	ErrInvalidAmount         = errors.New("ledger: amount must be non-negative")
)

// TransferHook observes every completed transfer. Tests install hooks that
// attempt to re-enter the engine mid-transfer.
type TransferHook func(token, from, to string, amount sdkmath.Int)

// Memory is an in-process token ledger with ERC20-style balances and
// allowances. The custody account holds everything pulled in via TransferIn.
// Per-token transfer fees simulate fee-on-transfer tokens: the fee is burned
// in flight, so the recipient is credited less than the debited amount.
type Memory struct {
	mu sync.Mutex

	custodian  string
	balances   map[string]map[string]sdkmath.Int // token -> holder -> amount
	allowances map[string]map[string]sdkmath.Int // token -> owner -> amount granted to custodian

	transferFeeBps map[string]int64
	hook           TransferHook
}

// NewMemory creates an empty ledger whose custody account is custodian.
func NewMemory(custodian string) *Memory {
	return &Memory{
		custodian:      custodian,
		balances:       make(map[string]map[string]sdkmath.Int),
		allowances:     make(map[string]map[string]sdkmath.Int),
		transferFeeBps: make(map[string]int64),
	}
}

// Mint credits newly created units of token to a holder.
func (m *Memory) Mint(token, to string, amount sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credit(token, to, amount)
}

// Approve grants the custody account permission to pull up to amount of token
// from owner. The grant replaces any previous one.
func (m *Memory) Approve(token, owner string, amount sdkmath.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grants, ok := m.allowances[token]
	if !ok {
		grants = make(map[string]sdkmath.Int)
		m.allowances[token] = grants
	}
	grants[owner] = amount
}

// SetTransferFeeBps makes token behave as a fee-on-transfer token, burning
// bps basis points of every transfer in flight.
func (m *Memory) SetTransferFeeBps(token string, bps int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferFeeBps[token] = bps
}

// SetTransferHook installs a hook invoked after every completed transfer,
// outside the ledger's own lock.
func (m *Memory) SetTransferHook(hook TransferHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}

// BalanceOf returns a holder's balance of token.
func (m *Memory) BalanceOf(token, holder string) sdkmath.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(token, holder)
}

// CustodyBalance returns the custody account's balance of token.
func (m *Memory) CustodyBalance(token string) sdkmath.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(token, m.custodian)
}

// TransferIn implements TokenLedger.
func (m *Memory) TransferIn(token, from string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	if m.balanceLocked(token, from).LT(amount) {
		m.mu.Unlock()
		return ErrInsufficientBalance
	}
	grants := m.allowances[token]
	allowance, ok := sdkmath.ZeroInt(), false
	if grants != nil {
		allowance, ok = grants[from]
	}
	if !ok || allowance.LT(amount) {
		m.mu.Unlock()
		return ErrInsufficientAllowance
	}
	grants[from] = allowance.Sub(amount)

	m.debit(token, from, amount)
	m.credit(token, m.custodian, m.afterFee(token, amount))
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(token, from, m.custodian, amount)
	}
	return nil
}

// TransferOut implements TokenLedger.
func (m *Memory) TransferOut(token, to string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	m.mu.Lock()
	if m.balanceLocked(token, m.custodian).LT(amount) {
		m.mu.Unlock()
		return ErrInsufficientCustody
	}
	m.debit(token, m.custodian, amount)
	m.credit(token, to, m.afterFee(token, amount))
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(token, m.custodian, to, amount)
	}
	return nil
}

func (m *Memory) balanceLocked(token, holder string) sdkmath.Int {
	if holders, ok := m.balances[token]; ok {
		if bal, ok := holders[holder]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

func (m *Memory) credit(token, holder string, amount sdkmath.Int) {
	holders, ok := m.balances[token]
	if !ok {
		holders = make(map[string]sdkmath.Int)
		m.balances[token] = holders
	}
	holders[holder] = m.balanceLocked(token, holder).Add(amount)
}

func (m *Memory) debit(token, holder string, amount sdkmath.Int) {
	m.balances[token][holder] = m.balanceLocked(token, holder).Sub(amount)
}

func (m *Memory) afterFee(token string, amount sdkmath.Int) sdkmath.Int {
	bps, ok := m.transferFeeBps[token]
	if !ok || bps <= 0 {
		return amount
	}
	fee := amount.MulRaw(bps).QuoRaw(10_000)
	return amount.Sub(fee)
}
