package companion

import (
	"errors"

	"scapechain/core/events"
	nativecommon "scapechain/native/common"
	"scapechain/native/issuance"
	"scapechain/native/token"
)

// Collection names the companion collection in the shared state manager.
const Collection = "companion"

// Pool names the allocator pool backing the companion collection.
const Pool = "companion"

// MaxCount is the companion pool's supply cap, matching the scape pool.
const MaxCount uint32 = 10_000

var (
	ErrNilState        = errors.New("companion: state not configured")
	ErrAlreadyHolding  = errors.New("companion: can only hold one token per wallet")
	ErrReferenceHolder = errors.New("companion: caller already holds a reference collectible")
	ErrContractCaller  = errors.New("companion: contract callers not admitted")
	ErrNotHolding      = errors.New("companion: caller holds no token")
)

// ReferenceCollection is the membership query against the pre-existing
// collectible set whose holders are excluded from the free claim.
type ReferenceCollection interface {
	BalanceOf(addr [20]byte) (uint64, error)
}

// Engine manages the companion collection: a free claim of one token per
// wallet, closed to reference-collectible holders and to contract callers.
// The one-per-wallet rule also binds transfers, enforced through the token
// ledger's transfer guard.
type Engine struct {
	ledger     *token.Ledger
	allocator  *issuance.Allocator
	entropy    issuance.EntropySource
	reference  ReferenceCollection
	classifier AddressClassifier
	emitter    events.Emitter
	pauses     nativecommon.PauseView
}

// NewEngine creates a companion engine over the supplied ledger. The ledger's
// transfer guard is installed here so out-of-band transfers observe the
// one-per-wallet rule too.
func NewEngine(ledger *token.Ledger) *Engine {
	e := &Engine{
		ledger:    ledger,
		allocator: issuance.NewAllocator(Pool, MaxCount),
		emitter:   events.NoopEmitter{},
	}
	if ledger != nil {
		ledger.SetTransferGuard(e.transferGuard)
	}
	return e
}

// SetState configures the allocator's state backend. The ledger's state is
// configured separately by the caller that owns it.
func (e *Engine) SetState(state issuance.AllocatorState) {
	e.allocator.SetState(state)
}

// SetEntropy configures the allocator's randomness source.
func (e *Engine) SetEntropy(src issuance.EntropySource) { e.entropy = src }

// SetReference configures the reference collection used for exclusion.
func (e *Engine) SetReference(ref ReferenceCollection) { e.reference = ref }

// SetClassifier configures the contract/external address oracle.
func (e *Engine) SetClassifier(c AddressClassifier) { e.classifier = c }

// SetPauses wires the operational pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) transferGuard(from, to [20]byte, id uint32) error {
	balance, err := e.ledger.BalanceOf(to)
	if err != nil {
		return err
	}
	if balance > 0 {
		return ErrAlreadyHolding
	}
	return nil
}

// Claim issues one free companion token to the caller. Contract callers,
// reference-collectible holders and wallets already holding a companion are
// denied.
func (e *Engine) Claim(caller [20]byte) (uint32, error) {
	if e == nil || e.ledger == nil {
		return 0, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleCompanion); err != nil {
		return 0, err
	}
	// Deny before the allocator draws: a zero recipient would fail at mint
	// time with the slot already consumed.
	if caller == ([20]byte{}) {
		return 0, token.ErrZeroAddress
	}
	if e.classifier != nil && e.classifier.IsContract(caller) {
		return 0, ErrContractCaller
	}
	if e.reference != nil {
		held, err := e.reference.BalanceOf(caller)
		if err != nil {
			return 0, err
		}
		if held > 0 {
			return 0, ErrReferenceHolder
		}
	}
	balance, err := e.ledger.BalanceOf(caller)
	if err != nil {
		return 0, err
	}
	if balance > 0 {
		return 0, ErrAlreadyHolding
	}

	seed := [32]byte{}
	if e.entropy != nil {
		seed = e.entropy.Draw(caller)
	}
	id, err := e.allocator.Allocate(seed)
	if err != nil {
		return 0, err
	}
	if err := e.ledger.Mint(caller, id); err != nil {
		return 0, err
	}
	return id, nil
}

// OwnerOf returns the owner of a companion token. Satisfies the issuance
// engine's CompanionView.
func (e *Engine) OwnerOf(id uint32) ([20]byte, error) {
	return e.ledger.OwnerOf(id)
}

// BalanceOf returns the number of companions the address holds (0 or 1).
func (e *Engine) BalanceOf(addr [20]byte) (uint64, error) {
	return e.ledger.BalanceOf(addr)
}

// TokenOf returns the single companion token the address holds.
func (e *Engine) TokenOf(addr [20]byte) (uint32, error) {
	ids, err := e.ledger.TokensOf(addr)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNotHolding
	}
	return ids[0], nil
}

// Ledger exposes the collection's token ledger.
func (e *Engine) Ledger() *token.Ledger { return e.ledger }

// Issued returns the number of companions claimed so far.
func (e *Engine) Issued() (uint32, error) {
	return e.allocator.Issued()
}
