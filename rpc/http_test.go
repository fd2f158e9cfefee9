package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scapechain/core"
	"scapechain/crypto"
	"scapechain/storage"
)

const testAdminToken = "test-admin-token"

var testUnitPrice = big.NewInt(20_000_000_000_000_000)

type rpcFixture struct {
	server *httptest.Server
	node   *core.Node
	owner  [20]byte
}

// newRPCFixture starts a node whose general phase is already open, so mint
// calls succeed against the real clock.
func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()
	owner := [20]byte{0xAA}
	node, err := core.NewNode(storage.NewMemDB(), core.NodeConfig{
		Owner:        owner,
		FeeRecipient: [20]byte{0xFE},
		UnitPrice:    testUnitPrice,
		SaleStart:    time.Now().Add(-619 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(node, testAdminToken).Handler())
	t.Cleanup(srv.Close)
	return &rpcFixture{server: srv, node: node, owner: owner}
}

func (fx *rpcFixture) call(t *testing.T, token, method string, params interface{}) *RPCResponse {
	t.Helper()
	var rawParams []json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		require.NoError(t, err)
		rawParams = []json.RawMessage{encoded}
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: "2.0", Method: method, Params: rawParams, ID: 1})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, fx.server.URL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := fx.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

func encodeAddr(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.ScapePrefix, addr[:]).String()
}

func resultInto(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error)
	encoded, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(encoded, out))
}

func TestSaleInfoEndpoint(t *testing.T) {
	fx := newRPCFixture(t)

	resp := fx.call(t, "", "scape_saleInfo", nil)
	var info saleInfoResult
	resultInto(t, resp, &info)

	require.Equal(t, "general", info.Phase)
	require.Equal(t, uint32(0), info.Issued)
	require.Equal(t, uint32(10_000), info.Remaining)
	require.Equal(t, testUnitPrice.String(), info.UnitPrice)
}

func TestMintAndOwnerOfEndpoints(t *testing.T) {
	fx := newRPCFixture(t)
	alice := [20]byte{1}

	resp := fx.call(t, "", "scape_mint", mintParams{
		Caller:   encodeAddr(alice),
		Quantity: 2,
		Payment:  new(big.Int).Mul(testUnitPrice, big.NewInt(2)).String(),
	})
	var minted mintResult
	resultInto(t, resp, &minted)
	require.Len(t, minted.TokenIDs, 2)

	resp = fx.call(t, "", "scape_ownerOf", tokenParams{TokenID: minted.TokenIDs[0]})
	var ownerOf map[string]string
	resultInto(t, resp, &ownerOf)
	require.Equal(t, encodeAddr(alice), ownerOf["owner"])

	resp = fx.call(t, "", "scape_tokensOf", addressParams{Address: encodeAddr(alice)})
	var holdings mintResult
	resultInto(t, resp, &holdings)
	require.ElementsMatch(t, minted.TokenIDs, holdings.TokenIDs)
}

func TestMintDenialMapsToDeniedCode(t *testing.T) {
	fx := newRPCFixture(t)
	alice := [20]byte{1}

	// Underpaying two units by one wei.
	payment := new(big.Int).Sub(new(big.Int).Mul(testUnitPrice, big.NewInt(2)), big.NewInt(1))
	resp := fx.call(t, "", "scape_mint", mintParams{
		Caller:   encodeAddr(alice),
		Quantity: 2,
		Payment:  payment.String(),
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeDenied, resp.Error.Code)
}

func TestMarketEndpoints(t *testing.T) {
	fx := newRPCFixture(t)
	alice := [20]byte{1}
	bob := [20]byte{2}

	resp := fx.call(t, "", "scape_mint", mintParams{
		Caller:   encodeAddr(alice),
		Quantity: 1,
		Payment:  testUnitPrice.String(),
	})
	var minted mintResult
	resultInto(t, resp, &minted)
	id := minted.TokenIDs[0]

	resp = fx.call(t, "", "market_makeOffer", offerParams{
		Caller:  encodeAddr(alice),
		TokenID: id,
		Price:   "1000000",
	})
	var ok map[string]bool
	resultInto(t, resp, &ok)
	require.True(t, ok["ok"])

	resp = fx.call(t, "", "market_offerFor", tokenParams{TokenID: id})
	var offer offerResult
	resultInto(t, resp, &offer)
	require.Equal(t, encodeAddr(alice), offer.Seller)
	require.Equal(t, "1000000", offer.Price)
	require.Empty(t, offer.RestrictedBuyer)

	resp = fx.call(t, "", "market_buy", buyParams{
		Caller:  encodeAddr(bob),
		TokenID: id,
		Payment: "1000000",
	})
	resultInto(t, resp, &ok)
	require.True(t, ok["ok"])

	resp = fx.call(t, "", "scape_ownerOf", tokenParams{TokenID: id})
	var ownerOf map[string]string
	resultInto(t, resp, &ownerOf)
	require.Equal(t, encodeAddr(bob), ownerOf["owner"])

	// The offer is gone, so a replay is a denial rather than a server error.
	resp = fx.call(t, "", "market_buy", buyParams{
		Caller:  encodeAddr(bob),
		TokenID: id,
		Payment: "1000000",
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeDenied, resp.Error.Code)
}

func TestAdminNamespaceRequiresToken(t *testing.T) {
	fx := newRPCFixture(t)

	resp := fx.call(t, "", "admin_withdraw", addressParams{Address: encodeAddr(fx.owner)})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = fx.call(t, "wrong-token", "admin_withdraw", addressParams{Address: encodeAddr(fx.owner)})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = fx.call(t, testAdminToken, "admin_withdraw", addressParams{Address: encodeAddr(fx.owner)})
	var withdrawal map[string]string
	resultInto(t, resp, &withdrawal)
	require.Equal(t, "0", withdrawal["amount"])
}

func TestAdminSetSaleStartWhenLive(t *testing.T) {
	fx := newRPCFixture(t)

	// The sale is already live, so even the owner cannot move the start.
	resp := fx.call(t, testAdminToken, "admin_setSaleStart", saleStartParams{
		Caller:    encodeAddr(fx.owner),
		SaleStart: time.Now().Add(time.Hour).Unix(),
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeDenied, resp.Error.Code)
}

func TestMethodNotFound(t *testing.T) {
	fx := newRPCFixture(t)
	resp := fx.call(t, "", "scape_burn", tokenParams{TokenID: 1})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestInvalidParams(t *testing.T) {
	fx := newRPCFixture(t)

	resp := fx.call(t, "", "scape_mint", mintParams{Caller: "garbage", Quantity: 1, Payment: "1"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = fx.call(t, "", "scape_mint", mintParams{Caller: encodeAddr([20]byte{1}), Quantity: 1, Payment: "-5"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	// No params at all.
	resp = fx.call(t, "", "scape_mint", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestRejectsNonPost(t *testing.T) {
	fx := newRPCFixture(t)
	resp, err := fx.server.Client().Get(fx.server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
