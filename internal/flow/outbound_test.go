package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwellio/voicebridge/internal/flow"
)

func TestOutboundEngine_ObjectionShortCircuits(t *testing.T) {
	testCases := map[string]struct {
		transcript string
		wantLine   string
	}{
		"already has representation": {
			transcript: "we already have an agent",
			wantLine:   "agent's toes",
		},
		"already sold": {
			transcript: "oh we already sold it last month",
			wantLine:   "Congratulations",
		},
		"not interested": {
			transcript: "i'm not interested, please stop calling",
			wantLine:   "off",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, "expired-listing")

			turn := e.HandleTranscript(tc.transcript)
			assert.Contains(t, turn.Say, tc.wantLine)
			assert.False(t, turn.Completed)

			// The turn after an objection line always closes, whatever
			// the caller says.
			turn = e.HandleTranscript("well actually let me tell you a long story")
			assert.True(t, turn.Completed)
			assert.Contains(t, turn.Say, "thanks for your time")
			assert.True(t, e.Completed())
		})
	}
}

func TestOutboundEngine_ObjectionCategoryRecorded(t *testing.T) {
	e := newTestEngine(t, "expired-listing")

	e.HandleTranscript("we already have an agent")
	e.HandleTranscript("okay")

	rec := e.Record()
	require.NotNil(t, rec)
	assert.Equal(t, flow.ObjectionHasRepresentation, rec.Fields["objection"])
}

func TestOutboundEngine_AdvanceHeuristic(t *testing.T) {
	testCases := map[string]struct {
		transcript  string
		wantAdvance bool
	}{
		"filler only stays put": {
			transcript:  "um okay sure",
			wantAdvance: false,
		},
		"two real tokens stay put on open-ended step": {
			transcript:  "bad timing",
			wantAdvance: false,
		},
		"three real tokens advance": {
			transcript:  "the price was too high",
			wantAdvance: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, "expired-listing")
			// Ownership accepts a bare yes; that lands on the open-ended
			// empathy probe.
			turn := e.HandleTranscript("yes")
			require.Contains(t, turn.Say, "got in the way")

			turn = e.HandleTranscript(tc.transcript)
			if tc.wantAdvance {
				assert.Contains(t, turn.Say, "where were you hoping to move")
			} else {
				assert.Contains(t, turn.Say, "got in the way")
			}
		})
	}
}

func TestOutboundEngine_ShortAnswerStepAcceptsBareYes(t *testing.T) {
	e := newTestEngine(t, "expired-listing")

	turn := e.HandleTranscript("yes")
	assert.Contains(t, turn.Say, "got in the way")
}

func TestOutboundEngine_SilenceAdvances(t *testing.T) {
	e := newTestEngine(t, "expired-listing")

	// Silence on the ownership step moves on exactly like an answer would.
	turn := e.HandleSilence()
	assert.Contains(t, turn.Say, "got in the way")
	turn = e.HandleSilence()
	assert.Contains(t, turn.Say, "where were you hoping to move")
}

func TestOutboundEngine_AppointmentOfferEndsTheCall(t *testing.T) {
	testCases := map[string]struct {
		reply string
	}{
		"any reply closes": {reply: "hmm let me think about that one"},
		"a bare no closes": {reply: "no"},
		"silence closes":   {reply: ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, "expired-listing")
			e.HandleTranscript("yes")
			e.HandleTranscript("the price was too high")
			e.HandleTranscript("we wanted to be closer to family")
			turn := e.HandleTranscript("yes within a few months")
			require.Contains(t, turn.Say, "Dana Reeves")

			if tc.reply == "" {
				turn = e.HandleSilence()
			} else {
				turn = e.HandleTranscript(tc.reply)
			}
			assert.True(t, turn.Completed)
			assert.True(t, e.Completed())
		})
	}
}

func TestOutboundEngine_RecordCollectsAnswers(t *testing.T) {
	e := newTestEngine(t, "expired-listing")
	e.HandleTranscript("yes")
	e.HandleTranscript("the price was too high")
	e.HandleTranscript("we wanted to be closer to family")
	e.HandleTranscript("yes within a few months")
	turn := e.HandleTranscript("sure a walkthrough works")
	require.True(t, turn.Completed)

	rec := e.Record()
	require.NotNil(t, rec)
	assert.Equal(t, "expired-listing", rec.FlowVariant)
	assert.Equal(t, "the price was too high", rec.Fields["obstacle"])
	assert.Equal(t, "we wanted to be closer to family", rec.Fields["motivation"])
	assert.Contains(t, rec.Notes, "timeline: yes within a few months")
}
