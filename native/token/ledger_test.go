package token

import (
	"errors"
	"testing"

	"scapechain/core/events"
)

type collectionKey struct {
	collection string
	id         uint32
}

type mockLedgerState struct {
	owners    map[collectionKey][20]byte
	approvals map[collectionKey][20]byte
	lists     map[string]map[[20]byte][]uint32
}

func newMockLedgerState() *mockLedgerState {
	return &mockLedgerState{
		owners:    make(map[collectionKey][20]byte),
		approvals: make(map[collectionKey][20]byte),
		lists:     make(map[string]map[[20]byte][]uint32),
	}
}

func (m *mockLedgerState) TokenOwner(collection string, id uint32) ([20]byte, bool, error) {
	owner, ok := m.owners[collectionKey{collection, id}]
	return owner, ok, nil
}

func (m *mockLedgerState) TokenSetOwner(collection string, id uint32, owner [20]byte) error {
	key := collectionKey{collection, id}
	if prev, ok := m.owners[key]; ok {
		m.removeFromList(collection, prev, id)
	}
	m.owners[key] = owner
	if m.lists[collection] == nil {
		m.lists[collection] = make(map[[20]byte][]uint32)
	}
	m.lists[collection][owner] = append(m.lists[collection][owner], id)
	return nil
}

func (m *mockLedgerState) removeFromList(collection string, addr [20]byte, id uint32) {
	list := m.lists[collection][addr]
	for i, v := range list {
		if v == id {
			m.lists[collection][addr] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (m *mockLedgerState) TokensOf(collection string, addr [20]byte) ([]uint32, error) {
	return append([]uint32(nil), m.lists[collection][addr]...), nil
}

func (m *mockLedgerState) TokenBalance(collection string, addr [20]byte) (uint64, error) {
	return uint64(len(m.lists[collection][addr])), nil
}

func (m *mockLedgerState) TokenApproval(collection string, id uint32) ([20]byte, bool, error) {
	op, ok := m.approvals[collectionKey{collection, id}]
	return op, ok, nil
}

func (m *mockLedgerState) TokenSetApproval(collection string, id uint32, operator [20]byte) error {
	m.approvals[collectionKey{collection, id}] = operator
	return nil
}

func (m *mockLedgerState) TokenClearApproval(collection string, id uint32) error {
	delete(m.approvals, collectionKey{collection, id})
	return nil
}

func newTestLedger() (*Ledger, *mockLedgerState) {
	state := newMockLedgerState()
	ledger := NewLedger("scape")
	ledger.SetState(state)
	return ledger, state
}

func TestLedgerMintAndOwnership(t *testing.T) {
	ledger, _ := newTestLedger()
	alice := [20]byte{1}

	if err := ledger.Mint(alice, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owner, err := ledger.OwnerOf(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != alice {
		t.Fatal("wrong owner after mint")
	}
	balance, _ := ledger.BalanceOf(alice)
	if balance != 1 {
		t.Fatalf("expected balance 1, got %d", balance)
	}

	if err := ledger.Mint(alice, 7); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}
	if err := ledger.Mint([20]byte{}, 8); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected ErrZeroAddress, got %v", err)
	}
}

func TestLedgerOwnerOfMissing(t *testing.T) {
	ledger, _ := newTestLedger()
	if _, err := ledger.OwnerOf(99); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestLedgerTransfer(t *testing.T) {
	ledger, _ := newTestLedger()
	alice := [20]byte{1}
	bob := [20]byte{2}
	carol := [20]byte{3}

	if err := ledger.Mint(alice, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Strangers cannot move the token.
	if err := ledger.Transfer(bob, alice, bob, 7); !errors.Is(err, ErrNotOwnerOrApproved) {
		t.Fatalf("expected ErrNotOwnerOrApproved, got %v", err)
	}
	// From must match the actual owner.
	if err := ledger.Transfer(alice, bob, carol, 7); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if err := ledger.Transfer(alice, alice, bob, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	owner, _ := ledger.OwnerOf(7)
	if owner != bob {
		t.Fatal("transfer did not move ownership")
	}
	aliceBalance, _ := ledger.BalanceOf(alice)
	bobBalance, _ := ledger.BalanceOf(bob)
	if aliceBalance != 0 || bobBalance != 1 {
		t.Fatalf("balances not updated: alice=%d bob=%d", aliceBalance, bobBalance)
	}
}

func TestLedgerApprovalFlow(t *testing.T) {
	ledger, _ := newTestLedger()
	alice := [20]byte{1}
	operator := [20]byte{2}
	bob := [20]byte{3}

	if err := ledger.Mint(alice, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Approve(operator, operator, 7); !errors.Is(err, ErrNotOwnerOrApproved) {
		t.Fatalf("expected ErrNotOwnerOrApproved, got %v", err)
	}
	if err := ledger.Approve(alice, operator, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := ledger.IsApprovedOrOwner(operator, 7)
	if err != nil || !ok {
		t.Fatalf("operator should be approved: ok=%v err=%v", ok, err)
	}

	if err := ledger.Transfer(operator, alice, bob, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Approval is single-use: it must not survive the transfer.
	ok, _ = ledger.IsApprovedOrOwner(operator, 7)
	if ok {
		t.Fatal("approval survived transfer")
	}
}

func TestLedgerTransferGuardVetoes(t *testing.T) {
	ledger, _ := newTestLedger()
	alice := [20]byte{1}
	bob := [20]byte{2}
	veto := errors.New("held elsewhere")

	if err := ledger.Mint(alice, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ledger.SetTransferGuard(func(from, to [20]byte, id uint32) error {
		if to == bob {
			return veto
		}
		return nil
	})

	if err := ledger.Transfer(alice, alice, bob, 7); !errors.Is(err, veto) {
		t.Fatalf("expected guard veto, got %v", err)
	}
	owner, _ := ledger.OwnerOf(7)
	if owner != alice {
		t.Fatal("vetoed transfer moved ownership")
	}
	// Guard also covers mints.
	if err := ledger.Mint(bob, 8); !errors.Is(err, veto) {
		t.Fatalf("expected guard veto on mint, got %v", err)
	}
}

func TestLedgerNotifiesListeners(t *testing.T) {
	ledger, _ := newTestLedger()
	recorder := &events.Recorder{}
	ledger.SetEmitter(recorder)

	type move struct {
		from, to [20]byte
		id       uint32
	}
	var seen []move
	ledger.Subscribe(func(from, to [20]byte, id uint32) {
		seen = append(seen, move{from, to, id})
	})

	alice := [20]byte{1}
	bob := [20]byte{2}
	if err := ledger.Mint(alice, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Transfer(alice, alice, bob, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].from != ([20]byte{}) || seen[0].to != alice {
		t.Fatal("mint notification malformed")
	}
	if seen[1].from != alice || seen[1].to != bob || seen[1].id != 7 {
		t.Fatal("transfer notification malformed")
	}
	if len(recorder.Events) != 2 || recorder.Events[0].EventType() != events.TypeTokenTransfer {
		t.Fatalf("expected 2 transfer events, got %d", len(recorder.Events))
	}
}
