package issuance

import (
	"scapechain/core/events"
)

func (e *Engine) requireOwner(caller [20]byte) error {
	owner, ok, err := e.state.Owner()
	if err != nil {
		return err
	}
	if !ok || caller != owner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requirePreLaunch() error {
	start, ok, err := e.state.SaleStart()
	if err != nil {
		return err
	}
	if ok && e.now() >= start {
		return ErrSaleLive
	}
	return nil
}

// SetSaleStart moves the sale start time. Owner-only and immutable once the
// sale is live.
func (e *Engine) SetSaleStart(caller [20]byte, ts int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.requirePreLaunch(); err != nil {
		return err
	}
	if err := e.state.SetSaleStart(ts); err != nil {
		return err
	}
	e.emitter.Emit(events.SaleStartChanged{SaleStart: ts})
	return nil
}

// SetMetadataPointer updates the collection metadata pointer. Owner-only and
// pre-launch only, like the sale start.
func (e *Engine) SetMetadataPointer(caller [20]byte, cid string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.requirePreLaunch(); err != nil {
		return err
	}
	return e.state.SetMetadataPointer(cid)
}

// SetContractURI updates the contract-level metadata URI. Owner-only, allowed
// at any time.
func (e *Engine) SetContractURI(caller [20]byte, uri string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SetContractURI(uri); err != nil {
		return err
	}
	e.emitter.Emit(events.ContractURIChanged{URI: uri})
	return nil
}

// TransferOwnership hands the administrator capability to another account.
func (e *Engine) TransferOwnership(caller, next [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.state.SetOwner(next); err != nil {
		return err
	}
	e.emitter.Emit(events.OwnershipTransferred{Previous: caller, Next: next})
	return nil
}
