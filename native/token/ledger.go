package token

import (
	"fmt"

	"scapechain/core/events"
)

type ledgerState interface {
	TokenOwner(collection string, id uint32) ([20]byte, bool, error)
	TokenSetOwner(collection string, id uint32, owner [20]byte) error
	TokensOf(collection string, addr [20]byte) ([]uint32, error)
	TokenBalance(collection string, addr [20]byte) (uint64, error)
	TokenApproval(collection string, id uint32) ([20]byte, bool, error)
	TokenSetApproval(collection string, id uint32, operator [20]byte) error
	TokenClearApproval(collection string, id uint32) error
}

// TransferListener observes every ownership change in the collection, mints
// included. The offer book registers one to drop stale offers; listeners run
// after the ownership record has been updated.
type TransferListener func(from, to [20]byte, id uint32)

// TransferGuard can veto an ownership change before it is applied. The
// companion collection uses one to enforce its one-token-per-wallet rule on
// transfers as well as claims.
type TransferGuard func(from, to [20]byte, id uint32) error

// Ledger is the non-fungible ownership ledger for one collection. Multiple
// collections share a state manager through distinct collection names.
type Ledger struct {
	collection string
	state      ledgerState
	emitter    events.Emitter
	listeners  []TransferListener
	guard      TransferGuard
}

// NewLedger creates a ledger scoped to the named collection.
func NewLedger(collection string) *Ledger {
	return &Ledger{
		collection: collection,
		emitter:    events.NoopEmitter{},
	}
}

// Collection returns the collection name this ledger is scoped to.
func (l *Ledger) Collection() string { return l.collection }

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Subscribe registers a listener for every ownership change. The parameter is
// the bare function signature rather than TransferListener so consumers can
// declare the method in their own ledger interfaces.
func (l *Ledger) Subscribe(fn func(from, to [20]byte, id uint32)) {
	if fn != nil {
		l.listeners = append(l.listeners, fn)
	}
}

// SetTransferGuard installs a pre-transfer veto hook.
func (l *Ledger) SetTransferGuard(guard TransferGuard) { l.guard = guard }

// OwnerOf returns the current owner of the token.
func (l *Ledger) OwnerOf(id uint32) ([20]byte, error) {
	if l == nil || l.state == nil {
		return [20]byte{}, ErrNilState
	}
	owner, ok, err := l.state.TokenOwner(l.collection, id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrTokenNotFound
	}
	return owner, nil
}

// BalanceOf returns the number of tokens held by the address.
func (l *Ledger) BalanceOf(addr [20]byte) (uint64, error) {
	if l == nil || l.state == nil {
		return 0, ErrNilState
	}
	return l.state.TokenBalance(l.collection, addr)
}

// TokensOf returns the token ids held by the address.
func (l *Ledger) TokensOf(addr [20]byte) ([]uint32, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	return l.state.TokensOf(l.collection, addr)
}

// Mint assigns a never-before-issued token to the recipient.
func (l *Ledger) Mint(to [20]byte, id uint32) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	if _, exists, err := l.state.TokenOwner(l.collection, id); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %d", ErrTokenExists, id)
	}
	if l.guard != nil {
		if err := l.guard([20]byte{}, to, id); err != nil {
			return err
		}
	}
	if err := l.state.TokenSetOwner(l.collection, id, to); err != nil {
		return err
	}
	l.notify([20]byte{}, to, id)
	return nil
}

// Transfer moves the token from its current owner to the recipient. The
// caller must be the owner or the approved operator. Any approval is cleared
// and registered listeners are notified after the ownership record changes.
func (l *Ledger) Transfer(caller, from, to [20]byte, id uint32) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return ErrNotOwner
	}
	approved, err := l.IsApprovedOrOwner(caller, id)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotOwnerOrApproved
	}
	if l.guard != nil {
		if err := l.guard(from, to, id); err != nil {
			return err
		}
	}
	if err := l.state.TokenClearApproval(l.collection, id); err != nil {
		return err
	}
	if err := l.state.TokenSetOwner(l.collection, id, to); err != nil {
		return err
	}
	l.notify(from, to, id)
	return nil
}

// Approve designates an operator allowed to transfer the token. Only the
// current owner may approve.
func (l *Ledger) Approve(caller, operator [20]byte, id uint32) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotOwnerOrApproved
	}
	return l.state.TokenSetApproval(l.collection, id, operator)
}

// IsApprovedOrOwner reports whether the caller may act on the token.
func (l *Ledger) IsApprovedOrOwner(caller [20]byte, id uint32) (bool, error) {
	if l == nil || l.state == nil {
		return false, ErrNilState
	}
	owner, err := l.OwnerOf(id)
	if err != nil {
		return false, err
	}
	if owner == caller {
		return true, nil
	}
	operator, ok, err := l.state.TokenApproval(l.collection, id)
	if err != nil {
		return false, err
	}
	return ok && operator == caller, nil
}

func (l *Ledger) notify(from, to [20]byte, id uint32) {
	l.emitter.Emit(events.TokenTransfer{Collection: l.collection, From: from, To: to, TokenID: id})
	for _, fn := range l.listeners {
		fn(from, to, id)
	}
}
