package fees

import (
	"fmt"
	"math/big"
)

// DefaultSecondaryBps is the flat marketplace fee applied to every item.
const DefaultSecondaryBps uint32 = 250

const bpsDenominator = 10_000

// Schedule reports the fee split for secondary sales. The observed deployment
// uses a constant single recipient at a flat rate regardless of the item, so
// the item parameter exists for interface compatibility with external
// marketplace integrations, not for per-item lookups.
type Schedule struct {
	recipient [20]byte
	bps       uint32
}

// NewSchedule builds a flat fee schedule. Rates above 100% are rejected.
func NewSchedule(recipient [20]byte, bps uint32) (*Schedule, error) {
	if bps > bpsDenominator {
		return nil, fmt.Errorf("fees: bps out of range: %d", bps)
	}
	return &Schedule{recipient: recipient, bps: bps}, nil
}

// Recipients returns the ordered fee beneficiaries for the item.
func (s *Schedule) Recipients(item uint32) [][20]byte {
	_ = item
	return [][20]byte{s.recipient}
}

// Bps returns the ordered basis-point rates, index-aligned with Recipients.
func (s *Schedule) Bps(item uint32) []uint32 {
	_ = item
	return []uint32{s.bps}
}

// Split divides a gross sale amount into the fee owed under this schedule and
// the net remainder for the seller. Rounding goes in the seller's favour.
func (s *Schedule) Split(gross *big.Int) (fee *big.Int, net *big.Int) {
	net = big.NewInt(0)
	if gross != nil {
		net = new(big.Int).Set(gross)
	}
	fee = big.NewInt(0)
	if net.Sign() <= 0 || s.bps == 0 {
		return fee, net
	}
	fee = new(big.Int).Mul(net, big.NewInt(int64(s.bps)))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	net = new(big.Int).Sub(net, fee)
	return fee, net
}
