package treasury

import (
	"errors"
	"math/big"
	"time"

	"scapechain/core/events"
	"scapechain/core/types"
)

var (
	ErrNilState     = errors.New("treasury: state not configured")
	ErrUnauthorized = errors.New("treasury: unauthorized")
)

type engineState interface {
	TreasuryBalance() (*big.Int, error)
	TreasurySetBalance(*big.Int) error
	Owner() ([20]byte, bool, error)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, acc *types.Account) error
}

// Engine accumulates sale and marketplace proceeds and pays them out to the
// administrator. Credits come only from the issuance and market engines;
// withdrawal always drains the full balance to the owner's own account.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a treasury engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Balance returns the current accumulated proceeds.
func (e *Engine) Balance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.TreasuryBalance()
}

// Credit adds proceeds to the treasury. Zero and negative amounts are
// ignored; settlement paths only ever credit positive values.
func (e *Engine) Credit(amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	balance, err := e.state.TreasuryBalance()
	if err != nil {
		return err
	}
	return e.state.TreasurySetBalance(new(big.Int).Add(balance, amount))
}

// Withdraw transfers the entire balance to the owner's account. Only the
// administrator may call it; there is no partial withdrawal and no
// destination override.
func (e *Engine) Withdraw(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	owner, ok, err := e.state.Owner()
	if err != nil {
		return nil, err
	}
	if !ok || caller != owner {
		return nil, ErrUnauthorized
	}
	balance, err := e.state.TreasuryBalance()
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	account, err := e.state.GetAccount(owner)
	if err != nil {
		return nil, err
	}
	account.Balance = new(big.Int).Add(account.Balance, balance)
	if err := e.state.PutAccount(owner, account); err != nil {
		return nil, err
	}
	if err := e.state.TreasurySetBalance(big.NewInt(0)); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TreasuryWithdrawn{Owner: owner, Amount: balance})
	return balance, nil
}
