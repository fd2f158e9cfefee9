package events

import (
	"math/big"

	"scapechain/core/types"
	"scapechain/crypto"
)

const (
	TypeOfferCreated      = "market.offer_created"
	TypeOfferWithdrawn    = "market.offer_withdrawn"
	TypeSaleExecuted      = "market.sale_executed"
	TypeTreasuryWithdrawn = "treasury.withdrawn"
)

// OfferCreated is emitted when an item owner posts or replaces a sale offer.
type OfferCreated struct {
	TokenID         uint32
	Seller          [20]byte
	Price           *big.Int
	RestrictedBuyer *[20]byte
}

func (OfferCreated) EventType() string { return TypeOfferCreated }

func (e OfferCreated) Event() *types.Event {
	attrs := map[string]string{
		"tokenId": uintToString(uint64(e.TokenID)),
		"seller":  crypto.MustNewAddress(crypto.ScapePrefix, e.Seller[:]).String(),
		"price":   formatAmount(e.Price),
	}
	if e.RestrictedBuyer != nil {
		attrs["restrictedBuyer"] = crypto.MustNewAddress(crypto.ScapePrefix, e.RestrictedBuyer[:]).String()
	}
	return &types.Event{Type: TypeOfferCreated, Attributes: attrs}
}

// OfferWithdrawn is emitted when an offer is cancelled or invalidated by an
// out-of-band ownership change.
type OfferWithdrawn struct {
	TokenID uint32
}

func (OfferWithdrawn) EventType() string { return TypeOfferWithdrawn }

func (e OfferWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeOfferWithdrawn,
		Attributes: map[string]string{
			"tokenId": uintToString(uint64(e.TokenID)),
		},
	}
}

// SaleExecuted records a completed marketplace settlement.
type SaleExecuted struct {
	TokenID uint32
	Seller  [20]byte
	Buyer   [20]byte
	Price   *big.Int
	Fee     *big.Int
}

func (SaleExecuted) EventType() string { return TypeSaleExecuted }

func (e SaleExecuted) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleExecuted,
		Attributes: map[string]string{
			"tokenId": uintToString(uint64(e.TokenID)),
			"seller":  crypto.MustNewAddress(crypto.ScapePrefix, e.Seller[:]).String(),
			"buyer":   crypto.MustNewAddress(crypto.ScapePrefix, e.Buyer[:]).String(),
			"price":   formatAmount(e.Price),
			"fee":     formatAmount(e.Fee),
		},
	}
}

// TreasuryWithdrawn records a full drain of accumulated proceeds to the
// administrator account.
type TreasuryWithdrawn struct {
	Owner  [20]byte
	Amount *big.Int
}

func (TreasuryWithdrawn) EventType() string { return TypeTreasuryWithdrawn }

func (e TreasuryWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeTreasuryWithdrawn,
		Attributes: map[string]string{
			"owner":  crypto.MustNewAddress(crypto.ScapePrefix, e.Owner[:]).String(),
			"amount": formatAmount(e.Amount),
		},
	}
}
