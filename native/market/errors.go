package market

import "errors"

var (
	ErrNilState           = errors.New("market: state not configured")
	ErrNilLedger          = errors.New("market: token ledger not configured")
	ErrZeroAddress        = errors.New("market: zero caller address")
	ErrNoActiveOffer      = errors.New("market: no active offer for item")
	ErrRestrictedOffer    = errors.New("market: offer restricted to another buyer")
	ErrPriceNotMet        = errors.New("market: payment below offer price")
	ErrNotOwnerOrApproved = errors.New("market: caller is not owner nor approved")
)
