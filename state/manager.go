package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"scapechain/core/types"
	"scapechain/storage"
)

// Manager persists engine state as RLP records in a key-value database. It is
// the single concrete implementation of every engine-facing state interface;
// engines validate their inputs in full before the first write so that a
// rejected call leaves the database untouched.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}

// --- Accounts ---

type accountRecord struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the account for the address, returning a zero-valued
// account when none is stored.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var rec accountRecord
	ok, err := m.get(accountKey(addr), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return types.EnsureAccount(&types.Account{Nonce: rec.Nonce, Balance: rec.Balance}), nil
}

// PutAccount stores the account under the address.
func (m *Manager) PutAccount(addr [20]byte, acc *types.Account) error {
	acc = types.EnsureAccount(acc)
	return m.put(accountKey(addr), &accountRecord{Nonce: acc.Nonce, Balance: acc.Balance})
}

// --- Treasury ---

type balanceRecord struct {
	Balance *big.Int
}

// TreasuryBalance returns the accumulated native-currency proceeds.
func (m *Manager) TreasuryBalance() (*big.Int, error) {
	var rec balanceRecord
	ok, err := m.get(treasuryKey(), &rec)
	if err != nil {
		return nil, err
	}
	if !ok || rec.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(rec.Balance), nil
}

// TreasurySetBalance overwrites the treasury balance.
func (m *Manager) TreasurySetBalance(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative treasury balance")
	}
	return m.put(treasuryKey(), &balanceRecord{Balance: amount})
}

// --- Administrative parameters ---

type addressRecord struct {
	Addr [20]byte
}

type stringRecord struct {
	Value string
}

type uint64Record struct {
	Value uint64
}

// Owner returns the administrator address, if initialised.
func (m *Manager) Owner() ([20]byte, bool, error) {
	var rec addressRecord
	ok, err := m.get(ownerKey(), &rec)
	if err != nil {
		return [20]byte{}, false, err
	}
	return rec.Addr, ok, nil
}

// SetOwner stores the administrator address.
func (m *Manager) SetOwner(addr [20]byte) error {
	return m.put(ownerKey(), &addressRecord{Addr: addr})
}

// SaleStart returns the configured sale start in unix seconds.
func (m *Manager) SaleStart() (int64, bool, error) {
	var rec uint64Record
	ok, err := m.get(saleStartKey(), &rec)
	if err != nil {
		return 0, false, err
	}
	return int64(rec.Value), ok, nil
}

// SetSaleStart stores the sale start timestamp.
func (m *Manager) SetSaleStart(ts int64) error {
	if ts < 0 {
		return fmt.Errorf("state: negative sale start")
	}
	return m.put(saleStartKey(), &uint64Record{Value: uint64(ts)})
}

// MetadataPointer returns the collection metadata pointer (an IPFS CID in the
// observed deployment).
func (m *Manager) MetadataPointer() (string, error) {
	var rec stringRecord
	if _, err := m.get(metadataKey(), &rec); err != nil {
		return "", err
	}
	return rec.Value, nil
}

// SetMetadataPointer stores the collection metadata pointer.
func (m *Manager) SetMetadataPointer(cid string) error {
	return m.put(metadataKey(), &stringRecord{Value: cid})
}

// ContractURI returns the contract-level metadata URI.
func (m *Manager) ContractURI() (string, error) {
	var rec stringRecord
	if _, err := m.get(contractURIKey(), &rec); err != nil {
		return "", err
	}
	return rec.Value, nil
}

// SetContractURI stores the contract-level metadata URI.
func (m *Manager) SetContractURI(uri string) error {
	return m.put(contractURIKey(), &stringRecord{Value: uri})
}
