package issuance

import (
	"math/big"
)

// Claim quantity bounds for the general phase. Limits are per call, not per
// wallet.
const (
	MinClaimQuantity uint32 = 1
	MaxClaimQuantity uint32 = 3
)

// Attribution states how an admitted claim is accounted.
type Attribution uint8

const (
	// AttributeSelf is a plain general-phase mint to the caller.
	AttributeSelf Attribution = iota
	// AttributeCompanion is a redemption consuming a companion token's
	// one-time claim.
	AttributeCompanion
)

// ClaimRequest captures one claim attempt as seen by the eligibility gate.
// CompanionID is nil for the plain mint path.
type ClaimRequest struct {
	Caller      [20]byte
	Quantity    uint32
	Payment     *big.Int
	CompanionID *uint32
	Now         int64
}

// GateInputs provides the external facts the gate evaluates against: the
// phase schedule, the unit price, and the companion-collection predicates.
type GateInputs struct {
	Schedule      SaleSchedule
	UnitPrice     *big.Int
	OwnsCompanion func(id uint32, addr [20]byte) (bool, error)
	Redeemed      func(id uint32) (bool, error)
}

// RequiredPayment returns unit price times quantity.
func RequiredPayment(unitPrice *big.Int, quantity uint32) *big.Int {
	if unitPrice == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(unitPrice, big.NewInt(int64(quantity)))
}

// Evaluate renders the admit/deny verdict for a claim request. It is a pure
// function of its inputs and performs no writes; engines consume the claim
// (marking companion ids redeemed) only after an admit verdict.
//
// Reference-collection holders receive no special treatment on this path in
// either phase: during the initial phase the companion token is the only
// admission ticket, and the general phase admits everyone alike.
func Evaluate(req ClaimRequest, in GateInputs) (Attribution, error) {
	// The token ledger would reject a zero recipient at mint time, but by then
	// the allocator has already consumed a slot; deny it before any write.
	if req.Caller == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	phase := in.Schedule.Phase(req.Now)
	if phase == PhasePending {
		return 0, ErrSaleNotStarted
	}

	if req.CompanionID != nil {
		if req.Quantity != 1 {
			return 0, ErrAmountOutOfRange
		}
		if in.OwnsCompanion == nil || in.Redeemed == nil {
			return 0, ErrNilCompanions
		}
		owns, err := in.OwnsCompanion(*req.CompanionID, req.Caller)
		if err != nil {
			return 0, err
		}
		if !owns {
			return 0, ErrNotEligible
		}
		redeemed, err := in.Redeemed(*req.CompanionID)
		if err != nil {
			return 0, err
		}
		if redeemed {
			return 0, ErrAlreadyRedeemed
		}
		if err := checkPayment(in.UnitPrice, req.Quantity, req.Payment); err != nil {
			return 0, err
		}
		return AttributeCompanion, nil
	}

	if phase == PhaseInitial {
		return 0, ErrPhaseRestricted
	}
	if req.Quantity < MinClaimQuantity || req.Quantity > MaxClaimQuantity {
		return 0, ErrAmountOutOfRange
	}
	if err := checkPayment(in.UnitPrice, req.Quantity, req.Payment); err != nil {
		return 0, err
	}
	return AttributeSelf, nil
}

// checkPayment enforces the multiplicative exact-or-greater price rule. Any
// excess above the requirement is retained or refunded by the engine per its
// overpayment policy, never here.
func checkPayment(unitPrice *big.Int, quantity uint32, payment *big.Int) error {
	required := RequiredPayment(unitPrice, quantity)
	if payment == nil || payment.Cmp(required) < 0 {
		return ErrPriceNotMet
	}
	return nil
}
