package core

import (
	"errors"
	"math/big"
	"testing"

	"scapechain/core/events"
	nativecommon "scapechain/native/common"
	"scapechain/native/companion"
	"scapechain/native/issuance"
	"scapechain/native/market"
	"scapechain/native/treasury"
	"scapechain/storage"
)

var (
	nodeOwner   = [20]byte{0xAA}
	feeAccount  = [20]byte{0xFE}
	unitPrice   = big.NewInt(20_000_000_000_000_000)
	testStart   = int64(1_700_000_000)
	generalOpen = issuance.NewSaleSchedule(testStart).GeneralOpens()
)

type nodeFixture struct {
	node *Node
	db   *storage.MemDB
	now  int64
}

func newNodeFixture(t *testing.T, cfg NodeConfig) *nodeFixture {
	t.Helper()
	db := storage.NewMemDB()
	if cfg.Owner == ([20]byte{}) {
		cfg.Owner = nodeOwner
	}
	if cfg.FeeRecipient == ([20]byte{}) {
		cfg.FeeRecipient = feeAccount
	}
	if cfg.UnitPrice == nil {
		cfg.UnitPrice = unitPrice
	}
	if cfg.SaleStart == 0 {
		cfg.SaleStart = testStart
	}
	node, err := NewNode(db, cfg)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fx := &nodeFixture{node: node, db: db, now: generalOpen}
	node.issuance.SetNowFunc(func() int64 { return fx.now })
	return fx
}

func TestNodeMintOfferBuyWithdraw(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{})
	alice := [20]byte{1}
	bob := [20]byte{2}

	ids, err := fx.node.MintScape(alice, 1, unitPrice)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := ids[0]
	owner, err := fx.node.OwnerOf(id)
	if err != nil || owner != alice {
		t.Fatalf("ownership after mint: %x %v", owner, err)
	}

	price := big.NewInt(1_000_000)
	if err := fx.node.MakeOffer(alice, id, price); err != nil {
		t.Fatalf("make offer: %v", err)
	}
	offer, err := fx.node.OfferFor(id)
	if err != nil || offer.Seller != alice {
		t.Fatalf("offer lookup: %+v %v", offer, err)
	}

	if err := fx.node.Buy(bob, id, price); err != nil {
		t.Fatalf("buy: %v", err)
	}
	owner, _ = fx.node.OwnerOf(id)
	if owner != bob {
		t.Fatal("item did not settle to buyer")
	}
	if _, err := fx.node.OfferFor(id); !errors.Is(err, market.ErrNoActiveOffer) {
		t.Fatalf("expected cleared offer, got %v", err)
	}

	// Treasury holds the primary proceeds plus the 2.5% resale fee.
	fee := new(big.Int).Div(new(big.Int).Mul(price, big.NewInt(250)), big.NewInt(10_000))
	want := new(big.Int).Add(unitPrice, fee)
	balance, err := fx.node.TreasuryBalance()
	if err != nil {
		t.Fatalf("treasury balance: %v", err)
	}
	if balance.Cmp(want) != 0 {
		t.Fatalf("treasury %s, want %s", balance, want)
	}

	if _, err := fx.node.Withdraw(bob); !errors.Is(err, treasury.ErrUnauthorized) {
		t.Fatalf("expected unauthorized withdraw, got %v", err)
	}
	amount, err := fx.node.Withdraw(nodeOwner)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(want) != 0 {
		t.Fatalf("withdrew %s, want %s", amount, want)
	}
	balance, _ = fx.node.TreasuryBalance()
	if balance.Sign() != 0 {
		t.Fatal("treasury not drained")
	}
}

func TestNodeCompanionFlow(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{
		Classifier: companion.NewStaticClassifier(),
	})
	alice := [20]byte{1}
	fx.now = testStart + 60 // initial phase

	companionID, err := fx.node.ClaimCompanion(alice)
	if err != nil {
		t.Fatalf("claim companion: %v", err)
	}

	// Holding the companion unlocks the initial phase.
	scapeID, err := fx.node.RedeemCompanion(alice, companionID, unitPrice)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	owner, _ := fx.node.OwnerOf(scapeID)
	if owner != alice {
		t.Fatal("redeemed scape not owned by caller")
	}

	// The claim is spent even for a later holder of the companion.
	bob := [20]byte{2}
	if err := fx.node.TransferCompanion(alice, alice, bob, companionID); err != nil {
		t.Fatalf("transfer companion: %v", err)
	}
	if _, err := fx.node.RedeemCompanion(bob, companionID, unitPrice); !errors.Is(err, issuance.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}

	// Plain mints stay shut until the general phase.
	if _, err := fx.node.MintScape(bob, 1, unitPrice); !errors.Is(err, issuance.ErrPhaseRestricted) {
		t.Fatalf("expected ErrPhaseRestricted, got %v", err)
	}
	fx.now = generalOpen
	if _, err := fx.node.MintScape(bob, 1, unitPrice); err != nil {
		t.Fatalf("general mint: %v", err)
	}
}

func TestNodeOutOfBandTransferInvalidatesOffer(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{})
	alice := [20]byte{1}
	bob := [20]byte{2}

	ids, err := fx.node.MintScape(alice, 1, unitPrice)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := ids[0]
	if err := fx.node.MakeOffer(alice, id, big.NewInt(500)); err != nil {
		t.Fatalf("make offer: %v", err)
	}
	if err := fx.node.TransferScape(alice, alice, bob, id); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := fx.node.OfferFor(id); !errors.Is(err, market.ErrNoActiveOffer) {
		t.Fatalf("expected stale offer dropped, got %v", err)
	}
}

func TestNodePersistsAcrossRestart(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{})
	alice := [20]byte{1}

	ids, err := fx.node.MintScape(alice, 2, new(big.Int).Mul(unitPrice, big.NewInt(2)))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Same database, different config: persisted parameters win.
	reopened, err := NewNode(fx.db, NodeConfig{
		Owner:        [20]byte{0xBB},
		FeeRecipient: feeAccount,
		UnitPrice:    unitPrice,
		SaleStart:    testStart + 9_999,
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.issuance.SetNowFunc(func() int64 { return generalOpen })

	for _, id := range ids {
		owner, err := reopened.OwnerOf(id)
		if err != nil || owner != alice {
			t.Fatalf("ownership lost across restart: %x %v", owner, err)
		}
	}
	info, err := reopened.SaleInfo()
	if err != nil {
		t.Fatalf("sale info: %v", err)
	}
	if info.SaleStart != testStart {
		t.Fatalf("sale start reseeded to %d", info.SaleStart)
	}
	if info.Issued != 2 {
		t.Fatalf("issued count lost: %d", info.Issued)
	}
	// The original owner retained the capability.
	if err := reopened.SetContractURI([20]byte{0xBB}, "x"); !errors.Is(err, issuance.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := reopened.SetContractURI(nodeOwner, "https://example.com/meta.json"); err != nil {
		t.Fatalf("set contract URI: %v", err)
	}
}

func TestNodePauseResume(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{})
	alice := [20]byte{1}

	fx.node.Pause(nativecommon.ModuleIssuance)
	if _, err := fx.node.MintScape(alice, 1, unitPrice); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	fx.node.Resume(nativecommon.ModuleIssuance)
	if _, err := fx.node.MintScape(alice, 1, unitPrice); err != nil {
		t.Fatalf("mint after resume: %v", err)
	}
}

func TestNodeEventsBuffered(t *testing.T) {
	fx := newNodeFixture(t, NodeConfig{})
	alice := [20]byte{1}

	if _, err := fx.node.MintScape(alice, 1, unitPrice); err != nil {
		t.Fatalf("mint: %v", err)
	}
	recent := fx.node.Events()
	if len(recent) == 0 {
		t.Fatal("expected buffered events")
	}
	var sawMint, sawTransfer bool
	for _, evt := range recent {
		switch evt.Type {
		case events.TypeScapeMinted:
			sawMint = true
		case events.TypeTokenTransfer:
			sawTransfer = true
		}
	}
	if !sawMint || !sawTransfer {
		t.Fatalf("missing events: mint=%v transfer=%v", sawMint, sawTransfer)
	}
}
