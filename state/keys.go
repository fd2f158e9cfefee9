package state

import (
	"encoding/binary"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	tokenOwnerPrefix    = []byte("token/owner/")
	tokenApprovalPrefix = []byte("token/approval/")
	tokenListPrefix     = []byte("token/list/")
	allocSlotPrefix     = []byte("alloc/slot/")
	allocCountPrefix    = []byte("alloc/count/")
	companionClaimPref  = []byte("issuance/claim/")
	offerPrefix         = []byte("market/offer/")
	accountPrefix       = []byte("account/")
	treasuryKeyBytes    = []byte("treasury/balance")
	ownerKeyBytes       = []byte("params/owner")
	saleStartKeyBytes   = []byte("params/sale-start")
	metadataKeyBytes    = []byte("params/metadata-cid")
	contractURIKeyBytes = []byte("params/contract-uri")
)

func hashKey(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint32Bytes(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func scopeBytes(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)) + "/")
}

func tokenOwnerKey(collection string, id uint32) []byte {
	return hashKey(tokenOwnerPrefix, scopeBytes(collection), uint32Bytes(id))
}

func tokenApprovalKey(collection string, id uint32) []byte {
	return hashKey(tokenApprovalPrefix, scopeBytes(collection), uint32Bytes(id))
}

func tokenListKey(collection string, addr [20]byte) []byte {
	return hashKey(tokenListPrefix, scopeBytes(collection), addr[:])
}

func allocSlotKey(pool string, index uint32) []byte {
	return hashKey(allocSlotPrefix, scopeBytes(pool), uint32Bytes(index))
}

func allocCountKey(pool string) []byte {
	return hashKey(allocCountPrefix, scopeBytes(pool))
}

func companionClaimKey(id uint32) []byte {
	return hashKey(companionClaimPref, uint32Bytes(id))
}

func offerKey(id uint32) []byte {
	return hashKey(offerPrefix, uint32Bytes(id))
}

func accountKey(addr [20]byte) []byte {
	return hashKey(accountPrefix, addr[:])
}

func treasuryKey() []byte    { return hashKey(treasuryKeyBytes) }
func ownerKey() []byte       { return hashKey(ownerKeyBytes) }
func saleStartKey() []byte   { return hashKey(saleStartKeyBytes) }
func metadataKey() []byte    { return hashKey(metadataKeyBytes) }
func contractURIKey() []byte { return hashKey(contractURIKeyBytes) }
