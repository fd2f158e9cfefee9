package core

import (
	"errors"
	"math/big"
	"sync"

	"scapechain/core/types"
	"scapechain/native/companion"
	"scapechain/native/fees"
	"scapechain/native/issuance"
	"scapechain/native/market"
	"scapechain/native/token"
	"scapechain/native/treasury"
	"scapechain/observability"
	"scapechain/state"
	"scapechain/storage"
)

// ScapeCollection names the primary collection in the state manager.
const ScapeCollection = "scape"

// NodeConfig carries the deployment-time parameters of the issuance engine.
type NodeConfig struct {
	Owner             [20]byte
	FeeRecipient      [20]byte
	UnitPrice         *big.Int
	SaleStart         int64
	MetadataCID       string
	ContractURI       string
	RefundOverpayment bool
	EntropySeed       [32]byte
	Reference         companion.ReferenceCollection
	Classifier        companion.AddressClassifier
}

// Node owns the engines and serializes every mutating call through a single
// mutex: requests are totally ordered, each runs to a terminal outcome, and a
// failure leaves shared state untouched (engines validate before writing).
type Node struct {
	stateMu sync.Mutex

	db         storage.Database
	state      *state.Manager
	scapes     *token.Ledger
	companions *companion.Engine
	issuance   *issuance.Engine
	market     *market.Engine
	treasury   *treasury.Engine
	pauses     *pauseSwitchboard
	eventLog   *eventLog
	metrics    *observability.EngineMetrics
}

// NewNode wires state, ledgers and engines over the supplied database. First
// startup seeds the administrator, sale start and metadata pointers from the
// config; later startups keep the persisted values.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	manager := state.NewManager(db)
	log := newEventLog()
	pauses := newPauseSwitchboard()

	if _, ok, err := manager.Owner(); err != nil {
		return nil, err
	} else if !ok {
		if err := manager.SetOwner(cfg.Owner); err != nil {
			return nil, err
		}
		if err := manager.SetSaleStart(cfg.SaleStart); err != nil {
			return nil, err
		}
		if err := manager.SetMetadataPointer(cfg.MetadataCID); err != nil {
			return nil, err
		}
		if err := manager.SetContractURI(cfg.ContractURI); err != nil {
			return nil, err
		}
	}

	scapes := token.NewLedger(ScapeCollection)
	scapes.SetState(manager)
	scapes.SetEmitter(log)

	companionLedger := token.NewLedger(companion.Collection)
	companionLedger.SetState(manager)
	companionLedger.SetEmitter(log)

	companions := companion.NewEngine(companionLedger)
	companions.SetState(manager)
	companions.SetEntropy(issuance.NewKeccakSource(cfg.EntropySeed))
	companions.SetReference(cfg.Reference)
	companions.SetClassifier(cfg.Classifier)
	companions.SetPauses(pauses)
	companions.SetEmitter(log)

	vault := treasury.NewEngine()
	vault.SetState(manager)
	vault.SetEmitter(log)

	mint := issuance.NewEngine(cfg.UnitPrice)
	mint.SetState(manager)
	mint.SetLedger(scapes)
	mint.SetCompanions(companions)
	mint.SetTreasury(vault)
	mint.SetEntropy(issuance.NewKeccakSource(cfg.EntropySeed))
	mint.SetPauses(pauses)
	mint.SetEmitter(log)
	mint.SetRefundOverpayment(cfg.RefundOverpayment)

	schedule, err := fees.NewSchedule(cfg.FeeRecipient, fees.DefaultSecondaryBps)
	if err != nil {
		return nil, err
	}
	offers := market.NewEngine(scapes, schedule)
	offers.SetState(manager)
	offers.SetTreasury(vault)
	offers.SetPauses(pauses)
	offers.SetEmitter(log)
	offers.SetRefundOverpayment(cfg.RefundOverpayment)

	return &Node{
		db:         db,
		state:      manager,
		scapes:     scapes,
		companions: companions,
		issuance:   mint,
		market:     offers,
		treasury:   vault,
		pauses:     pauses,
		eventLog:   log,
		metrics:    observability.Metrics(),
	}, nil
}

// --- Issuance surface ---

// MintScape issues quantity scapes to the caller on the general-phase path.
func (n *Node) MintScape(caller [20]byte, quantity uint32, payment *big.Int) ([]uint32, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	ids, err := n.issuance.Mint(caller, quantity, payment)
	n.observeMint(err)
	return ids, err
}

// RedeemCompanion issues one scape by consuming a companion token's claim.
func (n *Node) RedeemCompanion(caller [20]byte, companionID uint32, payment *big.Int) (uint32, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	id, err := n.issuance.RedeemCompanion(caller, companionID, payment)
	n.observeMint(err)
	return id, err
}

// ClaimCompanion issues one free companion token to the caller.
func (n *Node) ClaimCompanion(caller [20]byte) (uint32, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.companions.Claim(caller)
}

// SaleInfo reports the phase, schedule and supply counters.
func (n *Node) SaleInfo() (*issuance.SaleInfo, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	info, err := n.issuance.Info()
	if err == nil {
		n.metrics.AllocatorRemaining.Set(float64(info.Remaining))
	}
	return info, err
}

// --- Token surface ---

// OwnerOf returns the owner of a scape.
func (n *Node) OwnerOf(id uint32) ([20]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.scapes.OwnerOf(id)
}

// TokensOf returns the scapes held by the address.
func (n *Node) TokensOf(addr [20]byte) ([]uint32, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.scapes.TokensOf(addr)
}

// TransferScape moves a scape between wallets.
func (n *Node) TransferScape(caller, from, to [20]byte, id uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.scapes.Transfer(caller, from, to, id)
}

// ApproveScape designates an operator for a scape.
func (n *Node) ApproveScape(caller, operator [20]byte, id uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.scapes.Approve(caller, operator, id)
}

// TransferCompanion moves a companion token, subject to the one-per-wallet
// rule.
func (n *Node) TransferCompanion(caller, from, to [20]byte, id uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.companions.Ledger().Transfer(caller, from, to, id)
}

// --- Market surface ---

// MakeOffer posts an open sale offer.
func (n *Node) MakeOffer(caller [20]byte, id uint32, price *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.market.MakeOffer(caller, id, price)
}

// MakeOfferTo posts an offer restricted to one buyer.
func (n *Node) MakeOfferTo(caller [20]byte, id uint32, price *big.Int, buyer [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.market.MakeOfferTo(caller, id, price, buyer)
}

// CancelOffer withdraws the live offer for an item.
func (n *Node) CancelOffer(caller [20]byte, id uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.market.CancelOffer(caller, id)
}

// OfferFor returns the live offer for an item.
func (n *Node) OfferFor(id uint32) (*market.Offer, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.market.OfferFor(id)
}

// Buy accepts the live offer for an item.
func (n *Node) Buy(caller [20]byte, id uint32, payment *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	err := n.market.Buy(caller, id, payment)
	if err == nil {
		n.metrics.Sales.Inc()
	}
	return err
}

// --- Treasury / admin surface ---

// TreasuryBalance returns the accumulated proceeds.
func (n *Node) TreasuryBalance() (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	balance, err := n.treasury.Balance()
	if err == nil {
		n.metrics.ObserveTreasury(balance)
	}
	return balance, err
}

// Withdraw drains the treasury to the administrator account.
func (n *Node) Withdraw(caller [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	amount, err := n.treasury.Withdraw(caller)
	if err == nil {
		n.metrics.ObserveTreasury(big.NewInt(0))
	}
	return amount, err
}

// SetSaleStart moves the sale start, pre-launch only.
func (n *Node) SetSaleStart(caller [20]byte, ts int64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.issuance.SetSaleStart(caller, ts)
}

// SetMetadataPointer updates the collection metadata pointer, pre-launch only.
func (n *Node) SetMetadataPointer(caller [20]byte, cid string) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.issuance.SetMetadataPointer(caller, cid)
}

// SetContractURI updates the contract-level metadata URI.
func (n *Node) SetContractURI(caller [20]byte, uri string) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.issuance.SetContractURI(caller, uri)
}

// TransferOwnership hands the administrator capability to another account.
func (n *Node) TransferOwnership(caller, next [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.issuance.TransferOwnership(caller, next)
}

// Pause halts a module; Resume reopens it.
func (n *Node) Pause(module string)  { n.pauses.Pause(module) }
func (n *Node) Resume(module string) { n.pauses.Resume(module) }

// Events returns the most recent emitted events, oldest first.
func (n *Node) Events() []*types.Event {
	return n.eventLog.Recent()
}

// Companions exposes the companion engine (read paths for RPC).
func (n *Node) Companions() *companion.Engine { return n.companions }

func (n *Node) observeMint(err error) {
	switch {
	case err == nil:
		n.metrics.MintAttempts.WithLabelValues("ok", "").Inc()
	default:
		n.metrics.MintAttempts.WithLabelValues("denied", denialReason(err)).Inc()
	}
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, issuance.ErrSaleNotStarted):
		return "sale_not_started"
	case errors.Is(err, issuance.ErrPhaseRestricted):
		return "phase_restricted"
	case errors.Is(err, issuance.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, issuance.ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, issuance.ErrAmountOutOfRange):
		return "amount_out_of_range"
	case errors.Is(err, issuance.ErrPriceNotMet):
		return "price_not_met"
	case errors.Is(err, issuance.ErrSupplyExhausted), errors.Is(err, issuance.ErrPoolExhausted):
		return "supply_exhausted"
	default:
		return "other"
	}
}
