package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"scapechain/crypto"
	"scapechain/native/companion"
	"scapechain/native/issuance"
	"scapechain/native/market"
	"scapechain/native/token"
	"scapechain/native/treasury"
)

var denialSentinels = []error{
	issuance.ErrSaleNotStarted,
	issuance.ErrPhaseRestricted,
	issuance.ErrNotEligible,
	issuance.ErrAlreadyRedeemed,
	issuance.ErrAmountOutOfRange,
	issuance.ErrPriceNotMet,
	issuance.ErrPoolExhausted,
	issuance.ErrSupplyExhausted,
	issuance.ErrSaleLive,
	issuance.ErrUnauthorized,
	issuance.ErrZeroAddress,
	market.ErrNoActiveOffer,
	market.ErrZeroAddress,
	market.ErrRestrictedOffer,
	market.ErrPriceNotMet,
	market.ErrNotOwnerOrApproved,
	token.ErrTokenNotFound,
	token.ErrNotOwnerOrApproved,
	token.ErrNotOwner,
	token.ErrZeroAddress,
	companion.ErrAlreadyHolding,
	companion.ErrReferenceHolder,
	companion.ErrContractCaller,
	treasury.ErrUnauthorized,
}

func (s *Server) dispatch(req *RPCRequest) (interface{}, *RPCError) {
	switch req.Method {
	case "scape_mint":
		return s.handleMint(req)
	case "scape_redeemCompanion":
		return s.handleRedeemCompanion(req)
	case "scape_saleInfo":
		return s.handleSaleInfo()
	case "scape_ownerOf":
		return s.handleOwnerOf(req)
	case "scape_tokensOf":
		return s.handleTokensOf(req)
	case "scape_transfer":
		return s.handleTransfer(req)
	case "odp_claim":
		return s.handleCompanionClaim(req)
	case "market_makeOffer":
		return s.handleMakeOffer(req, false)
	case "market_makeOfferTo":
		return s.handleMakeOffer(req, true)
	case "market_cancelOffer":
		return s.handleCancelOffer(req)
	case "market_offerFor":
		return s.handleOfferFor(req)
	case "market_buy":
		return s.handleBuy(req)
	case "admin_setSaleStart":
		return s.handleSetSaleStart(req)
	case "admin_setContractURI":
		return s.handleSetContractURI(req)
	case "admin_withdraw":
		return s.handleWithdraw(req)
	default:
		return nil, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func singleParam(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "malformed params: " + err.Error()}
	}
	return nil
}

func parseAddress(encoded string) ([20]byte, *RPCError) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(encoded))
	if err != nil {
		return out, &RPCError{Code: codeInvalidParams, Message: "invalid address: " + err.Error()}
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseAmount(encoded string) (*big.Int, *RPCError) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(encoded), 10)
	if !ok || amount.Sign() < 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "invalid amount"}
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.ScapePrefix, addr[:]).String()
}

type mintParams struct {
	Caller   string `json:"caller"`
	Quantity uint32 `json:"quantity"`
	Payment  string `json:"payment"`
}

type mintResult struct {
	TokenIDs []uint32 `json:"tokenIds"`
}

func (s *Server) handleMint(req *RPCRequest) (interface{}, *RPCError) {
	var params mintParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseAmount(params.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ids, err := s.node.MintScape(caller, params.Quantity, payment)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return mintResult{TokenIDs: ids}, nil
}

type redeemParams struct {
	Caller      string `json:"caller"`
	CompanionID uint32 `json:"companionId"`
	Payment     string `json:"payment"`
}

func (s *Server) handleRedeemCompanion(req *RPCRequest) (interface{}, *RPCError) {
	var params redeemParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseAmount(params.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.node.RedeemCompanion(caller, params.CompanionID, payment)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return mintResult{TokenIDs: []uint32{id}}, nil
}

type saleInfoResult struct {
	Phase        string `json:"phase"`
	SaleStart    int64  `json:"saleStart"`
	GeneralStart int64  `json:"generalStart"`
	Issued       uint32 `json:"issued"`
	Remaining    uint32 `json:"remaining"`
	UnitPrice    string `json:"unitPrice"`
}

func (s *Server) handleSaleInfo() (interface{}, *RPCError) {
	info, err := s.node.SaleInfo()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return saleInfoResult{
		Phase:        info.Phase.String(),
		SaleStart:    info.SaleStart,
		GeneralStart: info.GeneralStart,
		Issued:       info.Issued,
		Remaining:    info.Remaining,
		UnitPrice:    info.UnitPrice.String(),
	}, nil
}

type tokenParams struct {
	TokenID uint32 `json:"tokenId"`
}

func (s *Server) handleOwnerOf(req *RPCRequest) (interface{}, *RPCError) {
	var params tokenParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := s.node.OwnerOf(params.TokenID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]string{"owner": formatAddress(owner)}, nil
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleTokensOf(req *RPCRequest) (interface{}, *RPCError) {
	var params addressParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ids, err := s.node.TokensOf(addr)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return mintResult{TokenIDs: ids}, nil
}

type transferParams struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint32 `json:"tokenId"`
}

func (s *Server) handleTransfer(req *RPCRequest) (interface{}, *RPCError) {
	var params transferParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.TransferScape(caller, from, to, params.TokenID); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleCompanionClaim(req *RPCRequest) (interface{}, *RPCError) {
	var params addressParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.node.ClaimCompanion(caller)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return mintResult{TokenIDs: []uint32{id}}, nil
}

type offerParams struct {
	Caller  string `json:"caller"`
	TokenID uint32 `json:"tokenId"`
	Price   string `json:"price"`
	Buyer   string `json:"buyer,omitempty"`
}

func (s *Server) handleMakeOffer(req *RPCRequest, restricted bool) (interface{}, *RPCError) {
	var params offerParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseAmount(params.Price)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var err error
	if restricted {
		var buyer [20]byte
		buyer, rpcErr = parseAddress(params.Buyer)
		if rpcErr != nil {
			return nil, rpcErr
		}
		err = s.node.MakeOfferTo(caller, params.TokenID, price, buyer)
	} else {
		err = s.node.MakeOffer(caller, params.TokenID, price)
	}
	if err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

type cancelParams struct {
	Caller  string `json:"caller"`
	TokenID uint32 `json:"tokenId"`
}

func (s *Server) handleCancelOffer(req *RPCRequest) (interface{}, *RPCError) {
	var params cancelParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.CancelOffer(caller, params.TokenID); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

type offerResult struct {
	TokenID         uint32 `json:"tokenId"`
	Seller          string `json:"seller"`
	Price           string `json:"price"`
	RestrictedBuyer string `json:"restrictedBuyer,omitempty"`
}

func (s *Server) handleOfferFor(req *RPCRequest) (interface{}, *RPCError) {
	var params tokenParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	offer, err := s.node.OfferFor(params.TokenID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	result := offerResult{
		TokenID: offer.TokenID,
		Seller:  formatAddress(offer.Seller),
		Price:   offer.Price.String(),
	}
	if offer.Buyer != nil {
		result.RestrictedBuyer = formatAddress(*offer.Buyer)
	}
	return result, nil
}

type buyParams struct {
	Caller  string `json:"caller"`
	TokenID uint32 `json:"tokenId"`
	Payment string `json:"payment"`
}

func (s *Server) handleBuy(req *RPCRequest) (interface{}, *RPCError) {
	var params buyParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseAmount(params.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.Buy(caller, params.TokenID, payment); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

type saleStartParams struct {
	Caller    string `json:"caller"`
	SaleStart int64  `json:"saleStart"`
}

func (s *Server) handleSetSaleStart(req *RPCRequest) (interface{}, *RPCError) {
	var params saleStartParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.SetSaleStart(caller, params.SaleStart); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

type contractURIParams struct {
	Caller string `json:"caller"`
	URI    string `json:"uri"`
}

func (s *Server) handleSetContractURI(req *RPCRequest) (interface{}, *RPCError) {
	var params contractURIParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.node.SetContractURI(caller, params.URI); err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleWithdraw(req *RPCRequest) (interface{}, *RPCError) {
	var params addressParams
	if rpcErr := singleParam(req, &params); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.node.Withdraw(caller)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return map[string]string{"amount": amount.String()}, nil
}
