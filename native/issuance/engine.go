package issuance

import (
	"errors"
	"math/big"
	"time"

	"scapechain/core/events"
	"scapechain/core/types"
	nativecommon "scapechain/native/common"
	"scapechain/native/token"
)

// MaxScapeCount is the hard supply cap of the scape pool.
const MaxScapeCount uint32 = 10_000

// ScapePool names the allocator pool backing the scape collection.
const ScapePool = "scape"

type engineState interface {
	AllocatorState
	CompanionRedeemed(id uint32) (bool, error)
	CompanionMarkRedeemed(id uint32) error
	SaleStart() (int64, bool, error)
	SetSaleStart(ts int64) error
	MetadataPointer() (string, error)
	SetMetadataPointer(cid string) error
	ContractURI() (string, error)
	SetContractURI(uri string) error
	Owner() ([20]byte, bool, error)
	SetOwner(addr [20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, acc *types.Account) error
}

// TokenMinter is the slice of the token ledger the engine needs: assigning a
// freshly allocated id to its recipient.
type TokenMinter interface {
	Mint(to [20]byte, id uint32) error
}

// CompanionView answers ownership queries against the companion collection.
type CompanionView interface {
	OwnerOf(id uint32) ([20]byte, error)
}

// TreasurySink receives sale proceeds.
type TreasurySink interface {
	Credit(amount *big.Int) error
}

// Engine drives the issuance state machine: eligibility gate, unique-id
// allocation, supply accounting, token minting and payment capture run as one
// all-or-nothing sequence per call. All validation happens before the first
// state write.
type Engine struct {
	state      engineState
	allocator  *Allocator
	scapes     TokenMinter
	companions CompanionView
	treasury   TreasurySink
	entropy    EntropySource
	emitter    events.Emitter
	pauses     nativecommon.PauseView
	nowFn      func() int64

	unitPrice         *big.Int
	refundOverpayment bool
}

// NewEngine creates an issuance engine over the scape pool with a no-op
// emitter and the supplied unit price.
func NewEngine(unitPrice *big.Int) *Engine {
	price := big.NewInt(0)
	if unitPrice != nil {
		price = new(big.Int).Set(unitPrice)
	}
	return &Engine{
		allocator: NewAllocator(ScapePool, MaxScapeCount),
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		unitPrice: price,
	}
}

// SetState configures the state backend used by the engine and its allocator.
func (e *Engine) SetState(state engineState) {
	e.state = state
	e.allocator.SetState(state)
}

// SetLedger configures the scape token ledger the engine mints into.
func (e *Engine) SetLedger(minter TokenMinter) { e.scapes = minter }

// SetCompanions configures the companion collection used by the initial-phase
// redemption path.
func (e *Engine) SetCompanions(view CompanionView) { e.companions = view }

// SetTreasury configures the proceeds sink.
func (e *Engine) SetTreasury(sink TreasurySink) { e.treasury = sink }

// SetEntropy configures the allocator's randomness source.
func (e *Engine) SetEntropy(src EntropySource) { e.entropy = src }

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

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetRefundOverpayment switches the overpayment policy from the default
// (retain as donation) to refunding the excess to the caller's account.
func (e *Engine) SetRefundOverpayment(refund bool) { e.refundOverpayment = refund }

// UnitPrice returns the configured price per unit.
func (e *Engine) UnitPrice() *big.Int { return new(big.Int).Set(e.unitPrice) }

// Allocator exposes the scape pool allocator for read-only inspection.
func (e *Engine) Allocator() *Allocator { return e.allocator }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) schedule() (SaleSchedule, error) {
	start, _, err := e.state.SaleStart()
	if err != nil {
		return SaleSchedule{}, err
	}
	return NewSaleSchedule(start), nil
}

func (e *Engine) gateInputs(schedule SaleSchedule) GateInputs {
	in := GateInputs{
		Schedule:  schedule,
		UnitPrice: e.unitPrice,
		Redeemed:  e.state.CompanionRedeemed,
	}
	if e.companions != nil {
		in.OwnsCompanion = func(id uint32, addr [20]byte) (bool, error) {
			owner, err := e.companions.OwnerOf(id)
			if err != nil {
				// An unissued companion is a plain ineligibility; anything
				// else is a state failure the caller must see.
				if errors.Is(err, token.ErrTokenNotFound) {
					return false, nil
				}
				return false, err
			}
			return owner == addr, nil
		}
	}
	return in
}

// Mint issues quantity scapes to the caller on the general-phase path.
// Returns the freshly allocated token ids.
func (e *Engine) Mint(caller [20]byte, quantity uint32, payment *big.Int) ([]uint32, error) {
	return e.claim(ClaimRequest{
		Caller:   caller,
		Quantity: quantity,
		Payment:  payment,
		Now:      e.now(),
	})
}

// RedeemCompanion issues one scape to the caller by consuming the companion
// token's one-time claim. The claim is consumed permanently, surviving any
// later transfer of the companion token.
func (e *Engine) RedeemCompanion(caller [20]byte, companionID uint32, payment *big.Int) (uint32, error) {
	ids, err := e.claim(ClaimRequest{
		Caller:      caller,
		Quantity:    1,
		Payment:     payment,
		CompanionID: &companionID,
		Now:         e.now(),
	})
	if err != nil {
		return 0, err
	}
	e.emitter.Emit(events.CompanionClaimed{
		CompanionID: companionID,
		TokenID:     ids[0],
		Redeemer:    caller,
	})
	return ids[0], nil
}

func (e *Engine) claim(req ClaimRequest) ([]uint32, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.scapes == nil {
		return nil, ErrNilLedger
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleIssuance); err != nil {
		return nil, err
	}

	schedule, err := e.schedule()
	if err != nil {
		return nil, err
	}
	attribution, err := Evaluate(req, e.gateInputs(schedule))
	if err != nil {
		return nil, err
	}

	issued, err := e.state.IssuedCount(ScapePool)
	if err != nil {
		return nil, err
	}
	if issued+req.Quantity > MaxScapeCount {
		return nil, ErrSupplyExhausted
	}

	// Validation complete; writes begin here.
	if attribution == AttributeCompanion {
		if err := e.state.CompanionMarkRedeemed(*req.CompanionID); err != nil {
			return nil, err
		}
	}

	ids := make([]uint32, 0, req.Quantity)
	for i := uint32(0); i < req.Quantity; i++ {
		id, err := e.allocator.Allocate(e.drawEntropy(req.Caller))
		if err != nil {
			return nil, err
		}
		if err := e.scapes.Mint(req.Caller, id); err != nil {
			return nil, err
		}
		e.emitter.Emit(events.ScapeMinted{
			TokenID:   id,
			Recipient: req.Caller,
			Price:     e.unitPrice,
			Timestamp: req.Now,
		})
		ids = append(ids, id)
	}

	if err := e.capturePayment(req.Caller, req.Quantity, req.Payment); err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Engine) drawEntropy(caller [20]byte) [32]byte {
	if e.entropy == nil {
		e.entropy = NewKeccakSource([32]byte{})
	}
	return e.entropy.Draw(caller)
}

// capturePayment credits the treasury with the required amount plus, under
// the default retain policy, any excess the caller attached. Under the refund
// policy the excess goes back to the caller's account instead.
func (e *Engine) capturePayment(caller [20]byte, quantity uint32, payment *big.Int) error {
	if e.treasury == nil {
		return nil
	}
	amount := big.NewInt(0)
	if payment != nil {
		amount = new(big.Int).Set(payment)
	}
	if !e.refundOverpayment {
		return e.treasury.Credit(amount)
	}
	required := RequiredPayment(e.unitPrice, quantity)
	excess := new(big.Int).Sub(amount, required)
	if excess.Sign() > 0 {
		account, err := e.state.GetAccount(caller)
		if err != nil {
			return err
		}
		account.Balance = new(big.Int).Add(account.Balance, excess)
		if err := e.state.PutAccount(caller, account); err != nil {
			return err
		}
	}
	return e.treasury.Credit(required)
}

// SaleInfo reports the current phase, schedule and supply counters.
type SaleInfo struct {
	Phase        Phase
	SaleStart    int64
	GeneralStart int64
	Issued       uint32
	Remaining    uint32
	UnitPrice    *big.Int
}

// Info returns a snapshot of the sale state at the current time.
func (e *Engine) Info() (*SaleInfo, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	schedule, err := e.schedule()
	if err != nil {
		return nil, err
	}
	issued, err := e.state.IssuedCount(ScapePool)
	if err != nil {
		return nil, err
	}
	return &SaleInfo{
		Phase:        schedule.Phase(e.now()),
		SaleStart:    schedule.Start,
		GeneralStart: schedule.GeneralOpens(),
		Issued:       issued,
		Remaining:    MaxScapeCount - issued,
		UnitPrice:    e.UnitPrice(),
	}, nil
}
