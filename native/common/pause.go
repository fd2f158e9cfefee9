package common

import "errors"

// Module names accepted by the pause switchboard.
const (
	ModuleIssuance  = "issuance"
	ModuleCompanion = "companion"
	ModuleMarket    = "market"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module has been administratively halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the module is halted. A nil view or an
// empty module name always passes.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
