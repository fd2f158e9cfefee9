package market

import (
	"math/big"
	"time"

	"scapechain/core/events"
	"scapechain/core/types"
	nativecommon "scapechain/native/common"
	"scapechain/native/fees"
)

type engineState interface {
	OfferGet(id uint32) (*Offer, bool, error)
	OfferPut(offer *Offer) error
	OfferDelete(id uint32) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, acc *types.Account) error
}

// TokenLedger is the slice of the token ledger the offer book needs.
type TokenLedger interface {
	OwnerOf(id uint32) ([20]byte, error)
	IsApprovedOrOwner(caller [20]byte, id uint32) (bool, error)
	Transfer(caller, from, to [20]byte, id uint32) error
	Subscribe(fn func(from, to [20]byte, id uint32))
}

// TreasurySink receives marketplace fees and retained overpayments.
type TreasurySink interface {
	Credit(amount *big.Int) error
}

// Engine is the offer book: at most one live offer per item, created only by
// the item's owner or approved operator and settled atomically on accept.
//
// The engine subscribes to the token ledger's transfer notifications so any
// ownership change outside Buy drops the stale offer. Buy can therefore trust
// the stored offer-time seller.
type Engine struct {
	state    engineState
	ledger   TokenLedger
	treasury TreasurySink
	fees     *fees.Schedule
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64

	refundOverpayment bool
	settling          map[uint32]struct{}
}

// NewEngine creates a market engine bound to the supplied token ledger and
// fee schedule, and registers the stale-offer invalidation hook.
func NewEngine(ledger TokenLedger, schedule *fees.Schedule) *Engine {
	e := &Engine{
		ledger:   ledger,
		fees:     schedule,
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		settling: make(map[uint32]struct{}),
	}
	if ledger != nil {
		ledger.Subscribe(e.onTransfer)
	}
	return e
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTreasury configures the fee sink.
func (e *Engine) SetTreasury(sink TreasurySink) { e.treasury = sink }

// SetPauses wires the operational pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetRefundOverpayment switches the overpayment policy from the default
// (retain as donation to the treasury) to refunding the buyer's account.
func (e *Engine) SetRefundOverpayment(refund bool) { e.refundOverpayment = refund }

// onTransfer drops any live offer for an item whose ownership changed outside
// a settlement this engine is currently executing.
func (e *Engine) onTransfer(from, to [20]byte, id uint32) {
	if e.state == nil {
		return
	}
	if _, busy := e.settling[id]; busy {
		return
	}
	_, ok, err := e.state.OfferGet(id)
	if err != nil || !ok {
		return
	}
	if err := e.state.OfferDelete(id); err != nil {
		return
	}
	e.emitter.Emit(events.OfferWithdrawn{TokenID: id})
}

func (e *Engine) requireOwnership(caller [20]byte, id uint32) ([20]byte, error) {
	owner, err := e.ledger.OwnerOf(id)
	if err != nil {
		return [20]byte{}, err
	}
	allowed, err := e.ledger.IsApprovedOrOwner(caller, id)
	if err != nil {
		return [20]byte{}, err
	}
	if !allowed {
		return [20]byte{}, ErrNotOwnerOrApproved
	}
	return owner, nil
}

// MakeOffer posts an open offer for the item, replacing any prior offer.
func (e *Engine) MakeOffer(caller [20]byte, id uint32, price *big.Int) error {
	return e.makeOffer(caller, id, price, nil)
}

// MakeOfferTo posts an offer only the designated buyer may accept.
func (e *Engine) MakeOfferTo(caller [20]byte, id uint32, price *big.Int, buyer [20]byte) error {
	return e.makeOffer(caller, id, price, &buyer)
}

func (e *Engine) makeOffer(caller [20]byte, id uint32, price *big.Int, buyer *[20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleMarket); err != nil {
		return err
	}
	owner, err := e.requireOwnership(caller, id)
	if err != nil {
		return err
	}
	offer, err := SanitizeOffer(&Offer{
		TokenID:   id,
		Seller:    owner,
		Price:     price,
		Buyer:     buyer,
		CreatedAt: e.nowFn(),
	})
	if err != nil {
		return err
	}
	if err := e.state.OfferPut(offer); err != nil {
		return err
	}
	e.emitter.Emit(events.OfferCreated{
		TokenID:         id,
		Seller:          owner,
		Price:           offer.Price,
		RestrictedBuyer: offer.Buyer,
	})
	return nil
}

// CancelOffer removes the live offer for the item.
func (e *Engine) CancelOffer(caller [20]byte, id uint32) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if _, err := e.requireOwnership(caller, id); err != nil {
		return err
	}
	_, ok, err := e.state.OfferGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveOffer
	}
	if err := e.state.OfferDelete(id); err != nil {
		return err
	}
	e.emitter.Emit(events.OfferWithdrawn{TokenID: id})
	return nil
}

// OfferFor returns the live offer for the item.
func (e *Engine) OfferFor(id uint32) (*Offer, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	offer, ok, err := e.state.OfferGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveOffer
	}
	return offer, nil
}

// Buy accepts the live offer for the item: transfers the item from the
// offer-time seller to the caller, clears the offer and splits the payment
// between seller and treasury per the fee schedule. The whole sequence is
// validated before the first write.
func (e *Engine) Buy(caller [20]byte, id uint32, payment *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleMarket); err != nil {
		return err
	}
	// The ledger would reject a zero recipient mid-settlement; deny it while
	// the offer is still intact.
	if caller == ([20]byte{}) {
		return ErrZeroAddress
	}
	offer, ok, err := e.state.OfferGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveOffer
	}
	if offer.Restricted() && *offer.Buyer != caller {
		return ErrRestrictedOffer
	}
	paid := big.NewInt(0)
	if payment != nil {
		paid = new(big.Int).Set(payment)
	}
	if paid.Cmp(offer.Price) < 0 {
		return ErrPriceNotMet
	}

	// Clear the offer before moving the token so the invalidation hook does
	// not observe a live offer for a transfer this settlement performs.
	if err := e.state.OfferDelete(id); err != nil {
		return err
	}
	e.settling[id] = struct{}{}
	err = e.ledger.Transfer(offer.Seller, offer.Seller, caller, id)
	delete(e.settling, id)
	if err != nil {
		// The item never moved; reinstate the offer so a failed settlement
		// leaves the book as it was.
		if putErr := e.state.OfferPut(offer); putErr != nil {
			return putErr
		}
		return err
	}

	fee, net := e.splitFee(id, offer.Price)
	if err := e.creditAccount(offer.Seller, net); err != nil {
		return err
	}
	treasuryTake := fee
	excess := new(big.Int).Sub(paid, offer.Price)
	if excess.Sign() > 0 {
		if e.refundOverpayment {
			if err := e.creditAccount(caller, excess); err != nil {
				return err
			}
		} else {
			treasuryTake = new(big.Int).Add(treasuryTake, excess)
		}
	}
	if e.treasury != nil {
		if err := e.treasury.Credit(treasuryTake); err != nil {
			return err
		}
	}
	e.emitter.Emit(events.SaleExecuted{
		TokenID: id,
		Seller:  offer.Seller,
		Buyer:   caller,
		Price:   offer.Price,
		Fee:     fee,
	})
	return nil
}

func (e *Engine) splitFee(id uint32, price *big.Int) (fee, net *big.Int) {
	if e.fees == nil {
		return big.NewInt(0), new(big.Int).Set(price)
	}
	return e.fees.Split(price)
}

func (e *Engine) creditAccount(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	account, err := e.state.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return e.state.PutAccount(addr, account)
}
