package companion

import (
	"errors"
	"testing"

	"scapechain/native/issuance"
	"scapechain/native/token"
)

// mockState backs both the token ledger and the allocator in one in-memory
// store, the way the shared state manager does in production.
type mockState struct {
	owners    map[uint32][20]byte
	approvals map[uint32][20]byte
	lists     map[[20]byte][]uint32
	slots     map[uint32]uint32
	issued    uint32
}

func newMockState() *mockState {
	return &mockState{
		owners:    make(map[uint32][20]byte),
		approvals: make(map[uint32][20]byte),
		lists:     make(map[[20]byte][]uint32),
		slots:     make(map[uint32]uint32),
	}
}

func (m *mockState) TokenOwner(collection string, id uint32) ([20]byte, bool, error) {
	owner, ok := m.owners[id]
	return owner, ok, nil
}

func (m *mockState) TokenSetOwner(collection string, id uint32, owner [20]byte) error {
	if prev, ok := m.owners[id]; ok {
		list := m.lists[prev]
		for i, v := range list {
			if v == id {
				m.lists[prev] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	m.owners[id] = owner
	m.lists[owner] = append(m.lists[owner], id)
	return nil
}

func (m *mockState) TokensOf(collection string, addr [20]byte) ([]uint32, error) {
	return append([]uint32(nil), m.lists[addr]...), nil
}

func (m *mockState) TokenBalance(collection string, addr [20]byte) (uint64, error) {
	return uint64(len(m.lists[addr])), nil
}

func (m *mockState) TokenApproval(collection string, id uint32) ([20]byte, bool, error) {
	op, ok := m.approvals[id]
	return op, ok, nil
}

func (m *mockState) TokenSetApproval(collection string, id uint32, operator [20]byte) error {
	m.approvals[id] = operator
	return nil
}

func (m *mockState) TokenClearApproval(collection string, id uint32) error {
	delete(m.approvals, id)
	return nil
}

func (m *mockState) AllocatorSlot(pool string, index uint32) (uint32, bool, error) {
	value, ok := m.slots[index]
	return value, ok, nil
}

func (m *mockState) AllocatorSetSlot(pool string, index uint32, value uint32) error {
	m.slots[index] = value
	return nil
}

func (m *mockState) IssuedCount(pool string) (uint32, error) { return m.issued, nil }

func (m *mockState) SetIssuedCount(pool string, count uint32) error {
	m.issued = count
	return nil
}

type stubReference struct {
	holders map[[20]byte]uint64
}

func (s *stubReference) BalanceOf(addr [20]byte) (uint64, error) {
	return s.holders[addr], nil
}

func newTestEngine() (*Engine, *mockState) {
	state := newMockState()
	ledger := token.NewLedger(Collection)
	ledger.SetState(state)
	engine := NewEngine(ledger)
	engine.SetState(state)
	engine.SetEntropy(issuance.NewKeccakSource([32]byte{0x5c}))
	return engine, state
}

func TestClaimIssuesOneToken(t *testing.T) {
	engine, _ := newTestEngine()
	alice := [20]byte{1}

	id, err := engine.Claim(alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owner, err := engine.OwnerOf(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != alice {
		t.Fatal("claimed token not owned by caller")
	}
	held, err := engine.TokenOf(alice)
	if err != nil || held != id {
		t.Fatalf("TokenOf mismatch: id=%d err=%v", held, err)
	}
	issued, _ := engine.Issued()
	if issued != 1 {
		t.Fatalf("expected 1 issued, got %d", issued)
	}
}

func TestClaimOncePerWallet(t *testing.T) {
	engine, _ := newTestEngine()
	alice := [20]byte{1}

	if _, err := engine.Claim(alice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Claim(alice); !errors.Is(err, ErrAlreadyHolding) {
		t.Fatalf("expected ErrAlreadyHolding, got %v", err)
	}
}

func TestClaimDeniesReferenceHolders(t *testing.T) {
	engine, _ := newTestEngine()
	collector := [20]byte{1}
	engine.SetReference(&stubReference{holders: map[[20]byte]uint64{collector: 3}})

	if _, err := engine.Claim(collector); !errors.Is(err, ErrReferenceHolder) {
		t.Fatalf("expected ErrReferenceHolder, got %v", err)
	}
	// A non-holder passes the same check.
	if _, err := engine.Claim([20]byte{2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClaimDeniesContractCallers(t *testing.T) {
	engine, _ := newTestEngine()
	bot := [20]byte{0xC0}
	engine.SetClassifier(NewStaticClassifier(bot))

	if _, err := engine.Claim(bot); !errors.Is(err, ErrContractCaller) {
		t.Fatalf("expected ErrContractCaller, got %v", err)
	}
	if _, err := engine.Claim([20]byte{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransferCannotStackCompanions(t *testing.T) {
	engine, _ := newTestEngine()
	alice := [20]byte{1}
	bob := [20]byte{2}

	aliceID, err := engine.Claim(alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engine.Claim(bob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Bob already holds one; the transfer guard blocks a second.
	err = engine.Ledger().Transfer(alice, alice, bob, aliceID)
	if !errors.Is(err, ErrAlreadyHolding) {
		t.Fatalf("expected ErrAlreadyHolding, got %v", err)
	}

	// An empty wallet can receive it.
	carol := [20]byte{3}
	if err := engine.Ledger().Transfer(alice, alice, carol, aliceID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owner, _ := engine.OwnerOf(aliceID)
	if owner != carol {
		t.Fatal("transfer did not land with carol")
	}
	// The rule binds the current holding, so the now-empty wallet may claim.
	if _, err := engine.Claim(alice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClaimZeroCaller(t *testing.T) {
	engine, state := newTestEngine()

	if _, err := engine.Claim([20]byte{}); !errors.Is(err, token.ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
	if state.issued != 0 {
		t.Fatalf("denied claim moved issued count to %d", state.issued)
	}
	if len(state.slots) != 0 || len(state.owners) != 0 {
		t.Fatal("denied claim must leave no writes")
	}
}

func TestStaticReferenceMembership(t *testing.T) {
	collector := [20]byte{1}
	ref := NewStaticReference(collector)

	if bal, err := ref.BalanceOf(collector); err != nil || bal != 1 {
		t.Fatalf("member balance=%d err=%v", bal, err)
	}
	if bal, err := ref.BalanceOf([20]byte{2}); err != nil || bal != 0 {
		t.Fatalf("non-member balance=%d err=%v", bal, err)
	}

	late := [20]byte{3}
	ref.Add(late)
	if bal, _ := ref.BalanceOf(late); bal != 1 {
		t.Fatal("added holder not reported")
	}

	engine, _ := newTestEngine()
	engine.SetReference(ref)
	if _, err := engine.Claim(collector); !errors.Is(err, ErrReferenceHolder) {
		t.Fatalf("expected ErrReferenceHolder, got %v", err)
	}
}

func TestClaimPoolExhausted(t *testing.T) {
	engine, state := newTestEngine()
	state.issued = MaxCount

	if _, err := engine.Claim([20]byte{1}); !errors.Is(err, issuance.ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestTokenOfEmptyWallet(t *testing.T) {
	engine, _ := newTestEngine()
	if _, err := engine.TokenOf([20]byte{1}); !errors.Is(err, ErrNotHolding) {
		t.Fatalf("expected ErrNotHolding, got %v", err)
	}
}
