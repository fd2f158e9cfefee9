package state

import (
	"math/big"

	"scapechain/native/market"
)

type offerRecord struct {
	TokenID    uint32
	Seller     [20]byte
	Price      *big.Int
	Restricted bool
	Buyer      [20]byte
	CreatedAt  uint64
}

// OfferGet loads the live offer for an item, if one exists.
func (m *Manager) OfferGet(id uint32) (*market.Offer, bool, error) {
	var rec offerRecord
	ok, err := m.get(offerKey(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	offer := &market.Offer{
		TokenID:   rec.TokenID,
		Seller:    rec.Seller,
		Price:     rec.Price,
		CreatedAt: int64(rec.CreatedAt),
	}
	if rec.Restricted {
		buyer := rec.Buyer
		offer.Buyer = &buyer
	}
	return offer, true, nil
}

// OfferPut stores the offer, replacing any prior offer for the same item.
func (m *Manager) OfferPut(offer *market.Offer) error {
	sanitized, err := market.SanitizeOffer(offer)
	if err != nil {
		return err
	}
	rec := offerRecord{
		TokenID:   sanitized.TokenID,
		Seller:    sanitized.Seller,
		Price:     sanitized.Price,
		CreatedAt: uint64(sanitized.CreatedAt),
	}
	if sanitized.Buyer != nil {
		rec.Restricted = true
		rec.Buyer = *sanitized.Buyer
	}
	return m.put(offerKey(sanitized.TokenID), &rec)
}

// OfferDelete removes any live offer for the item.
func (m *Manager) OfferDelete(id uint32) error {
	return m.db.Delete(offerKey(id))
}
