// Package flow drives scripted intake conversations. One engine instance
// exists per call session; it consumes recognized-text events and decides
// what the assistant says next. Scripts are immutable tables loaded at
// process start; adding a call variant means adding a table, not code.
package flow

import (
	"fmt"

	"github.com/dwellio/voicebridge/internal/scheduling"
)

// Turn is the engine's decision for one conversational turn.
type Turn struct {
	// Say is the literal utterance the assistant should speak next.
	// Empty means the assistant stays quiet this turn.
	Say string

	// Completed marks the flow's terminal state: the intake record is
	// ready and no further prompts will be produced.
	Completed bool
}

// Engine is a per-session conversation state machine. Implementations are
// not goroutine safe; the session supervisor serializes all calls through
// its event queue.
type Engine interface {
	// Variant returns the script variant driving this engine.
	Variant() string

	// Opening returns the first utterance of the call.
	Opening() Turn

	// HandleTranscript advances the state machine with one recognized
	// caller utterance.
	HandleTranscript(text string) Turn

	// HandleSilence advances the state machine when a turn window closed
	// without any recognized speech.
	HandleSilence() Turn

	// Completed reports whether the flow reached its terminal state.
	Completed() bool

	// Record returns the consolidated intake record, or nil before the
	// terminal state.
	Record() *Record
}

// Planner supplies appointment slots and round-robin agent assignment for
// rendering the appointment-offer prompt. External collaborators per the
// system boundary; only this interface matters here.
type Planner interface {
	NextSlots(n int) []scheduling.Slot
	NextAgent() string
}

// NewEngine builds the engine for a script variant.
func NewEngine(script *Script, info CallInfo, planner Planner) (Engine, error) {
	switch script.Direction {
	case DirectionInbound:
		return newInboundEngine(script, info, planner), nil
	case DirectionOutbound:
		return newOutboundEngine(script, info, planner), nil
	default:
		return nil, fmt.Errorf("script %q: unknown direction %q", script.Variant, script.Direction)
	}
}
