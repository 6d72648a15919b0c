// Package bridge pairs one caller media stream with one speech service
// session and runs the conversation between them. All per-call state is
// owned by a single event loop; nothing here is shared across calls.
package bridge

import "sync/atomic"

// Mic gate states. The gate is LOCKED exactly while assistant audio
// playback is outstanding; that is the only condition under which caller
// frames are discarded.
const (
	gateOpen int32 = iota
	gateLocked
)

// micGate is the half-duplex arbitration flag between caller and assistant
// audio. Read from the caller path, flipped from the event loop.
type micGate struct {
	state     atomic.Int32
	forwarded atomic.Int64
	dropped   atomic.Int64
}

func newMicGate() *micGate {
	g := &micGate{}
	g.state.Store(gateLocked)

	return g
}

func (g *micGate) Lock()        { g.state.Store(gateLocked) }
func (g *micGate) Open()        { g.state.Store(gateOpen) }
func (g *micGate) Locked() bool { return g.state.Load() == gateLocked }

// Admit counts a caller frame and reports whether it may be forwarded.
func (g *micGate) Admit() bool {
	if g.Locked() {
		g.dropped.Add(1)

		return false
	}
	g.forwarded.Add(1)

	return true
}

func (g *micGate) Counts() (forwarded, dropped int64) {
	return g.forwarded.Load(), g.dropped.Load()
}
