package issuance

import (
	"encoding/binary"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EntropySource yields the pseudo-randomness consumed by the allocator. One
// draw is taken per allocated slot.
//
// The default source is deterministic from environment data (rolling seed,
// caller address, per-call nonce, current time). That matches the original
// deployment's behaviour and threat model: unpredictable to callers ahead of
// submission, but NOT cryptographically secure against an adversary who
// controls the execution schedule. Deployments that need stronger guarantees
// should inject a different source rather than relying on this one.
type EntropySource interface {
	Draw(caller [20]byte) [32]byte
}

// KeccakSource mixes a rolling seed with the caller address, a monotonically
// increasing nonce and the current time.
type KeccakSource struct {
	seed  [32]byte
	nonce uint64
	nowFn func() int64
}

// NewKeccakSource creates the default entropy source seeded from the supplied
// value (typically a deployment-time constant or genesis hash).
func NewKeccakSource(seed [32]byte) *KeccakSource {
	return &KeccakSource{
		seed:  seed,
		nowFn: func() int64 { return time.Now().UnixNano() },
	}
}

// SetNowFunc overrides the time input, primarily for tests.
func (s *KeccakSource) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().UnixNano() }
		return
	}
	s.nowFn = now
}

// Draw implements EntropySource.
func (s *KeccakSource) Draw(caller [20]byte) [32]byte {
	s.nonce++
	buf := make([]byte, 0, 32+20+8+8)
	buf = append(buf, s.seed[:]...)
	buf = append(buf, caller[:]...)
	buf = binary.BigEndian.AppendUint64(buf, s.nonce)
	buf = binary.BigEndian.AppendUint64(buf, uint64(s.nowFn()))
	copy(s.seed[:], ethcrypto.Keccak256(buf))
	return s.seed
}
