package market

import (
	"fmt"
	"math/big"
)

// Offer is the single live sale offer for an item. Seller is the owner at
// offer time; the offer book removes the offer whenever ownership changes
// through any path other than Buy, so Seller never goes stale. A nil Buyer
// means anyone may accept.
type Offer struct {
	TokenID   uint32
	Seller    [20]byte
	Price     *big.Int
	Buyer     *[20]byte
	CreatedAt int64
}

// Clone returns a deep copy so callers can mutate the result without
// affecting the stored offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Price != nil {
		clone.Price = new(big.Int).Set(o.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	if o.Buyer != nil {
		buyer := *o.Buyer
		clone.Buyer = &buyer
	}
	return &clone
}

// Restricted reports whether the offer may only be accepted by a designated
// buyer.
func (o *Offer) Restricted() bool {
	return o != nil && o.Buyer != nil
}

// SanitizeOffer validates and normalises an offer definition, returning a
// cloned instance with a non-nil price. The original value is not mutated.
func SanitizeOffer(o *Offer) (*Offer, error) {
	if o == nil {
		return nil, fmt.Errorf("nil offer")
	}
	clone := o.Clone()
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("offer price must be positive")
	}
	return clone, nil
}
