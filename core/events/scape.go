package events

import (
	"math/big"
	"strconv"

	"scapechain/core/types"
	"scapechain/crypto"
)

const (
	TypeScapeMinted      = "scape.minted"
	TypeSaleStartChanged = "scape.sale_start_changed"
	TypeCompanionClaimed = "scape.companion_claimed"
	TypeOwnershipMoved   = "scape.ownership_transferred"
	TypeContractURISet   = "scape.contract_uri_changed"
)

// ScapeMinted is emitted once per freshly issued scape.
type ScapeMinted struct {
	TokenID   uint32
	Recipient [20]byte
	Price     *big.Int
	Timestamp int64
}

func (ScapeMinted) EventType() string { return TypeScapeMinted }

func (e ScapeMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeScapeMinted,
		Attributes: map[string]string{
			"tokenId":   uintToString(uint64(e.TokenID)),
			"recipient": crypto.MustNewAddress(crypto.ScapePrefix, e.Recipient[:]).String(),
			"price":     formatAmount(e.Price),
			"timestamp": intToString(e.Timestamp),
		},
	}
}

// SaleStartChanged records an owner adjustment of the sale start time.
type SaleStartChanged struct {
	SaleStart int64
}

func (SaleStartChanged) EventType() string { return TypeSaleStartChanged }

func (e SaleStartChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleStartChanged,
		Attributes: map[string]string{
			"saleStart": intToString(e.SaleStart),
		},
	}
}

// CompanionClaimed marks the exactly-once redemption of a companion token
// against the scape pool.
type CompanionClaimed struct {
	CompanionID uint32
	TokenID     uint32
	Redeemer    [20]byte
}

func (CompanionClaimed) EventType() string { return TypeCompanionClaimed }

func (e CompanionClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeCompanionClaimed,
		Attributes: map[string]string{
			"companionId": uintToString(uint64(e.CompanionID)),
			"tokenId":     uintToString(uint64(e.TokenID)),
			"redeemer":    crypto.MustNewAddress(crypto.ScapePrefix, e.Redeemer[:]).String(),
		},
	}
}

// OwnershipTransferred records a change of the administrator account.
type OwnershipTransferred struct {
	Previous [20]byte
	Next     [20]byte
}

func (OwnershipTransferred) EventType() string { return TypeOwnershipMoved }

func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipMoved,
		Attributes: map[string]string{
			"previous": crypto.MustNewAddress(crypto.ScapePrefix, e.Previous[:]).String(),
			"next":     crypto.MustNewAddress(crypto.ScapePrefix, e.Next[:]).String(),
		},
	}
}

// ContractURIChanged records an update of the collection metadata pointer.
type ContractURIChanged struct {
	URI string
}

func (ContractURIChanged) EventType() string { return TypeContractURISet }

func (e ContractURIChanged) Event() *types.Event {
	return &types.Event{
		Type:       TypeContractURISet,
		Attributes: map[string]string{"uri": e.URI},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
