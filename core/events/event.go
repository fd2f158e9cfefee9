package events

import "scapechain/core/types"

// Event represents a structured state change emitted by the engines.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder captures emitted events in order. Intended for tests and for the
// node's per-call event queue.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// Lowered returns the generic representation of every recorded event that
// supports lowering.
func (r *Recorder) Lowered() []*types.Event {
	if r == nil {
		return nil
	}
	out := make([]*types.Event, 0, len(r.Events))
	for _, evt := range r.Events {
		if l, ok := evt.(interface{ Event() *types.Event }); ok {
			out = append(out, l.Event())
		}
	}
	return out
}
