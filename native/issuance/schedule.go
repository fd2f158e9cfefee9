package issuance

import "time"

// DefaultPhaseDuration is the length of the companion-only initial phase.
const DefaultPhaseDuration = 618 * time.Minute

// Phase identifies the sale window a point in time falls into.
type Phase uint8

const (
	// PhasePending precedes the sale start; every claim is denied.
	PhasePending Phase = iota
	// PhaseInitial admits companion-token redemptions only.
	PhaseInitial
	// PhaseGeneral admits anyone, 1 to 3 units per call.
	PhaseGeneral
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseInitial:
		return "initial"
	case PhaseGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// SaleSchedule derives the current phase from the sale start timestamp and
// the fixed initial-phase duration. The start is mutable pre-launch only; the
// engine enforces that, the schedule is a pure value.
type SaleSchedule struct {
	Start    int64
	Duration time.Duration
}

// NewSaleSchedule builds a schedule with the default 618-minute initial
// phase.
func NewSaleSchedule(start int64) SaleSchedule {
	return SaleSchedule{Start: start, Duration: DefaultPhaseDuration}
}

// GeneralOpens returns the unix second at which the general phase begins.
func (s SaleSchedule) GeneralOpens() int64 {
	return s.Start + int64(s.Duration/time.Second)
}

// Phase returns the phase the supplied unix second falls into.
func (s SaleSchedule) Phase(now int64) Phase {
	switch {
	case now < s.Start:
		return PhasePending
	case now < s.GeneralOpens():
		return PhaseInitial
	default:
		return PhaseGeneral
	}
}
