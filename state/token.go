package state

import (
	"fmt"
)

type tokenOwnerRecord struct {
	Owner [20]byte
}

type tokenListRecord struct {
	IDs []uint32
}

// TokenOwner returns the owner of a token in the collection, reporting false
// when the token was never minted.
func (m *Manager) TokenOwner(collection string, id uint32) ([20]byte, bool, error) {
	var rec tokenOwnerRecord
	ok, err := m.get(tokenOwnerKey(collection, id), &rec)
	if err != nil {
		return [20]byte{}, false, err
	}
	return rec.Owner, ok, nil
}

// TokenSetOwner records an ownership change and maintains the per-address
// token lists. A zero-valued previous owner denotes a mint.
func (m *Manager) TokenSetOwner(collection string, id uint32, owner [20]byte) error {
	prev, existed, err := m.TokenOwner(collection, id)
	if err != nil {
		return err
	}
	if existed {
		if err := m.removeFromList(collection, prev, id); err != nil {
			return err
		}
	}
	if err := m.appendToList(collection, owner, id); err != nil {
		return err
	}
	return m.put(tokenOwnerKey(collection, id), &tokenOwnerRecord{Owner: owner})
}

// TokensOf returns the token ids held by the address in the collection.
func (m *Manager) TokensOf(collection string, addr [20]byte) ([]uint32, error) {
	var rec tokenListRecord
	if _, err := m.get(tokenListKey(collection, addr), &rec); err != nil {
		return nil, err
	}
	return rec.IDs, nil
}

// TokenBalance returns the number of tokens the address holds in the
// collection.
func (m *Manager) TokenBalance(collection string, addr [20]byte) (uint64, error) {
	ids, err := m.TokensOf(collection, addr)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// TokenApproval returns the approved operator for the token, if any.
func (m *Manager) TokenApproval(collection string, id uint32) ([20]byte, bool, error) {
	var rec addressRecord
	ok, err := m.get(tokenApprovalKey(collection, id), &rec)
	if err != nil {
		return [20]byte{}, false, err
	}
	return rec.Addr, ok, nil
}

// TokenSetApproval stores the approved operator for the token.
func (m *Manager) TokenSetApproval(collection string, id uint32, operator [20]byte) error {
	return m.put(tokenApprovalKey(collection, id), &addressRecord{Addr: operator})
}

// TokenClearApproval removes any approved operator for the token.
func (m *Manager) TokenClearApproval(collection string, id uint32) error {
	return m.db.Delete(tokenApprovalKey(collection, id))
}

func (m *Manager) appendToList(collection string, addr [20]byte, id uint32) error {
	var rec tokenListRecord
	if _, err := m.get(tokenListKey(collection, addr), &rec); err != nil {
		return err
	}
	rec.IDs = append(rec.IDs, id)
	return m.put(tokenListKey(collection, addr), &rec)
}

func (m *Manager) removeFromList(collection string, addr [20]byte, id uint32) error {
	var rec tokenListRecord
	ok, err := m.get(tokenListKey(collection, addr), &rec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("state: token list missing for holder")
	}
	for i, held := range rec.IDs {
		if held == id {
			rec.IDs = append(rec.IDs[:i], rec.IDs[i+1:]...)
			return m.put(tokenListKey(collection, addr), &rec)
		}
	}
	return fmt.Errorf("state: token %d not in holder list", id)
}
