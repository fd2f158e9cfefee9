package events

import (
	"scapechain/core/types"
	"scapechain/crypto"
)

// TypeTokenTransfer is emitted for every ownership change in a collection,
// mints included (zero-valued from address).
const TypeTokenTransfer = "token.transfer"

type TokenTransfer struct {
	Collection string
	From       [20]byte
	To         [20]byte
	TokenID    uint32
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"collection": e.Collection,
			"from":       crypto.MustNewAddress(crypto.ScapePrefix, e.From[:]).String(),
			"to":         crypto.MustNewAddress(crypto.ScapePrefix, e.To[:]).String(),
			"tokenId":    uintToString(uint64(e.TokenID)),
		},
	}
}
