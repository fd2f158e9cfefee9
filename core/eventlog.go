package core

import (
	"sync"

	"scapechain/core/events"
	"scapechain/core/types"
)

const eventLogCapacity = 512

// eventLog is the node's emitter: it keeps a bounded ring of lowered events
// for the RPC surface. Engines emit typed events; consumers read the generic
// representation.
type eventLog struct {
	mu      sync.Mutex
	entries []*types.Event
}

func newEventLog() *eventLog {
	return &eventLog{}
}

// Emit implements events.Emitter.
func (l *eventLog) Emit(evt events.Event) {
	lowered, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, lowered.Event())
	if len(l.entries) > eventLogCapacity {
		l.entries = l.entries[len(l.entries)-eventLogCapacity:]
	}
}

// Recent returns the buffered events, oldest first.
func (l *eventLog) Recent() []*types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*types.Event, len(l.entries))
	copy(out, l.entries)
	return out
}

// pauseSwitchboard is the operational halt switch for the native modules.
type pauseSwitchboard struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func newPauseSwitchboard() *pauseSwitchboard {
	return &pauseSwitchboard{paused: make(map[string]bool)}
}

// IsPaused implements common.PauseView.
func (p *pauseSwitchboard) IsPaused(module string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused[module]
}

func (p *pauseSwitchboard) Pause(module string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused[module] = true
}

func (p *pauseSwitchboard) Resume(module string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.paused, module)
}
