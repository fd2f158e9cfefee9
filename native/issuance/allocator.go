package issuance

import (
	"math/big"
)

// AllocatorState is the slice of ledger state an allocator owns: the
// materialized slot positions and the issued counter for its pool.
type AllocatorState interface {
	AllocatorSlot(pool string, index uint32) (uint32, bool, error)
	AllocatorSetSlot(pool string, index uint32, value uint32) error
	IssuedCount(pool string) (uint32, error)
	SetIssuedCount(pool string, count uint32) error
}

// Allocator draws unique slot identifiers from a fixed pool of max values
// using swap-removal over an implicit identity array: slot i initially holds
// value i, and only positions that have been drawn or relocated are ever
// materialized in state. Every value in [0, max) is returned exactly once
// across the pool's lifetime, in O(1) time per draw.
//
// The allocator has a single logical owner (the issuance or companion engine)
// and must not be shared between engines; each pool name scopes its own
// backing array and counter.
type Allocator struct {
	pool  string
	max   uint32
	state AllocatorState
}

// NewAllocator creates an allocator over the named pool holding max slots.
func NewAllocator(pool string, max uint32) *Allocator {
	return &Allocator{pool: pool, max: max}
}

// SetState configures the state backend used by the allocator.
func (a *Allocator) SetState(state AllocatorState) { a.state = state }

// Max returns the pool capacity.
func (a *Allocator) Max() uint32 { return a.max }

// Issued returns the number of slots drawn so far.
func (a *Allocator) Issued() (uint32, error) {
	if a == nil || a.state == nil {
		return 0, ErrNilState
	}
	return a.state.IssuedCount(a.pool)
}

// Remaining returns the number of slots still available.
func (a *Allocator) Remaining() (uint32, error) {
	issued, err := a.Issued()
	if err != nil {
		return 0, err
	}
	return a.max - issued, nil
}

// slotValue reads the logical value at a position, defaulting to the identity
// value when the position was never overwritten.
func (a *Allocator) slotValue(index uint32) (uint32, error) {
	value, ok, err := a.state.AllocatorSlot(a.pool, index)
	if err != nil {
		return 0, err
	}
	if !ok {
		return index, nil
	}
	return value, nil
}

// Allocate draws one previously-unissued slot id using the entropy seed.
// Fails with ErrPoolExhausted once every slot has been drawn.
func (a *Allocator) Allocate(seed [32]byte) (uint32, error) {
	if a == nil || a.state == nil {
		return 0, ErrNilState
	}
	issued, err := a.state.IssuedCount(a.pool)
	if err != nil {
		return 0, err
	}
	remaining := a.max - issued
	if remaining == 0 {
		return 0, ErrPoolExhausted
	}

	r := uint32(new(big.Int).Mod(
		new(big.Int).SetBytes(seed[:]),
		big.NewInt(int64(remaining)),
	).Uint64())

	value, err := a.slotValue(r)
	if err != nil {
		return 0, err
	}
	lastValue, err := a.slotValue(remaining - 1)
	if err != nil {
		return 0, err
	}
	if err := a.state.AllocatorSetSlot(a.pool, r, lastValue); err != nil {
		return 0, err
	}
	if err := a.state.SetIssuedCount(a.pool, issued+1); err != nil {
		return 0, err
	}
	return value, nil
}
