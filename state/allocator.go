package state

type slotRecord struct {
	Value uint32
}

// AllocatorSlot returns the materialized value at the slot index, reporting
// false when the position was never overwritten and should be treated as
// identity-valued.
func (m *Manager) AllocatorSlot(pool string, index uint32) (uint32, bool, error) {
	var rec slotRecord
	ok, err := m.get(allocSlotKey(pool, index), &rec)
	if err != nil {
		return 0, false, err
	}
	return rec.Value, ok, nil
}

// AllocatorSetSlot materializes the slot with a relocated value.
func (m *Manager) AllocatorSetSlot(pool string, index uint32, value uint32) error {
	return m.put(allocSlotKey(pool, index), &slotRecord{Value: value})
}

// IssuedCount returns the number of slots drawn from the pool so far.
func (m *Manager) IssuedCount(pool string) (uint32, error) {
	var rec uint64Record
	if _, err := m.get(allocCountKey(pool), &rec); err != nil {
		return 0, err
	}
	return uint32(rec.Value), nil
}

// SetIssuedCount overwrites the pool's issued counter.
func (m *Manager) SetIssuedCount(pool string, count uint32) error {
	return m.put(allocCountKey(pool), &uint64Record{Value: uint64(count)})
}

// CompanionRedeemed reports whether a companion token id has already been
// used to claim from the pool. Absent entries are unredeemed.
func (m *Manager) CompanionRedeemed(id uint32) (bool, error) {
	return m.db.Has(companionClaimKey(id))
}

// CompanionMarkRedeemed permanently flags a companion token id as used.
func (m *Manager) CompanionMarkRedeemed(id uint32) error {
	return m.db.Put(companionClaimKey(id), []byte{1})
}
