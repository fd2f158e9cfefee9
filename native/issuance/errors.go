package issuance

import "errors"

var (
	ErrNilState         = errors.New("issuance: state not configured")
	ErrNilLedger        = errors.New("issuance: token ledger not configured")
	ErrNilCompanions    = errors.New("issuance: companion collection not configured")
	ErrZeroAddress      = errors.New("issuance: zero caller address")
	ErrSaleNotStarted   = errors.New("issuance: sale hasn't started yet")
	ErrPhaseRestricted  = errors.New("issuance: claim path not open in current phase")
	ErrNotEligible      = errors.New("issuance: caller lacks required holding")
	ErrAlreadyRedeemed  = errors.New("issuance: companion token already redeemed")
	ErrAmountOutOfRange = errors.New("issuance: quantity out of range")
	ErrPriceNotMet      = errors.New("issuance: payment below required price")
	ErrPoolExhausted    = errors.New("issuance: no more slots available")
	ErrSupplyExhausted  = errors.New("issuance: supply cap reached")
	ErrSaleLive         = errors.New("issuance: sale already started")
	ErrUnauthorized     = errors.New("issuance: unauthorized")
)
