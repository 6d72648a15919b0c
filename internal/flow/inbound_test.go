package flow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwellio/voicebridge/internal/flow"
	"github.com/dwellio/voicebridge/internal/scheduling"
)

type stubPlanner struct{}

func (stubPlanner) NextSlots(n int) []scheduling.Slot {
	base := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	slots := make([]scheduling.Slot, 0, n)
	for i := 0; i < n; i++ {
		start := base.Add(time.Duration(i) * 2 * time.Hour)
		slots = append(slots, scheduling.Slot{Start: start, End: start.Add(time.Hour)})
	}

	return slots
}

func (stubPlanner) NextAgent() string { return "Dana Reeves" }

func newTestEngine(t *testing.T, variant string) flow.Engine {
	t.Helper()

	lib, err := flow.LoadLibrary("")
	require.NoError(t, err)
	script, ok := lib.Get(variant)
	require.True(t, ok, "variant %q not in default library", variant)

	engine, err := flow.NewEngine(script, flow.CallInfo{
		LeadID: "lead-1",
		OrgID:  "org-1",
		CallID: "CA123",
	}, stubPlanner{})
	require.NoError(t, err)

	return engine
}

// driveIdentity walks a buyer engine past the confirmed name, phone, and
// email steps, leaving it at the budget step.
func driveIdentity(t *testing.T, e flow.Engine) {
	t.Helper()

	turn := e.HandleTranscript("my name is john smith")
	require.Contains(t, turn.Say, "John")
	turn = e.HandleTranscript("yes")
	require.Contains(t, turn.Say, "phone number")

	turn = e.HandleTranscript("208 715 7827")
	require.Contains(t, turn.Say, "Did I get that right")
	turn = e.HandleTranscript("yep")
	require.Contains(t, turn.Say, "email")

	turn = e.HandleTranscript("john at example dot com")
	require.Contains(t, turn.Say, "john@example.com")
	turn = e.HandleTranscript("that's right")
	require.Contains(t, turn.Say, "price range")
}

func TestInboundEngine_NameConfirmation(t *testing.T) {
	testCases := map[string]struct {
		reply        string
		wantReplay   bool
		wantNextStep string
	}{
		"yes advances to phone": {
			reply:        "yes that's correct",
			wantNextStep: "phone number",
		},
		"no replays the name step": {
			reply:      "nah that's wrong",
			wantReplay: true,
		},
		"unparseable answer also replays": {
			reply:      "the weather is nice today",
			wantReplay: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, "buyer")

			turn := e.HandleTranscript("my name is john smith")
			assert.Contains(t, turn.Say, "John Smith")

			turn = e.HandleTranscript(tc.reply)
			if tc.wantReplay {
				assert.Contains(t, turn.Say, "first and last name")
				assert.False(t, e.Completed())
			} else {
				assert.Contains(t, turn.Say, tc.wantNextStep)
			}
		})
	}
}

func TestInboundEngine_RejectedNameCanBeRedictated(t *testing.T) {
	e := newTestEngine(t, "buyer")

	e.HandleTranscript("my name is john smith")
	e.HandleTranscript("no")

	turn := e.HandleTranscript("my name is jane doe")
	assert.Contains(t, turn.Say, "Jane Doe")

	turn = e.HandleTranscript("yes")
	assert.Contains(t, turn.Say, "phone number")
}

func TestInboundEngine_PhoneAccumulatesAcrossTurns(t *testing.T) {
	e := newTestEngine(t, "buyer")
	e.HandleTranscript("john smith")
	e.HandleTranscript("yes")

	// First chunk is short of ten digits, so the engine keeps collecting
	// instead of confirming.
	turn := e.HandleTranscript("208")
	assert.NotContains(t, turn.Say, "Did I get that right")

	turn = e.HandleTranscript("7157827")
	assert.Contains(t, turn.Say, "2 0 8 7 1 5 7 8 2 7")

	turn = e.HandleTranscript("yes")
	assert.Contains(t, turn.Say, "email")
}

func TestInboundEngine_PhoneRejectionClearsDigits(t *testing.T) {
	e := newTestEngine(t, "buyer")
	e.HandleTranscript("john smith")
	e.HandleTranscript("yes")

	e.HandleTranscript("2087157827")
	turn := e.HandleTranscript("no that's wrong")
	assert.Contains(t, turn.Say, "phone number")

	// A fresh ten digits must be collected from scratch.
	turn = e.HandleTranscript("3105550199")
	assert.Contains(t, turn.Say, "3 1 0 5 5 5 0 1 9 9")
}

func TestInboundEngine_OffTopicAnswersWithoutAdvancing(t *testing.T) {
	e := newTestEngine(t, "buyer")
	driveIdentity(t, e)

	turn := e.HandleTranscript("wait, what commission do you charge")
	assert.Contains(t, turn.Say, "free")
	assert.Contains(t, turn.Say, "anything else")

	// Declining the followup resumes the interrupted step.
	turn = e.HandleTranscript("no that's it")
	assert.Contains(t, turn.Say, "price range")

	turn = e.HandleTranscript("somewhere around 300k")
	assert.Contains(t, turn.Say, "beds")
}

func TestInboundEngine_OffTopicBudgetForcesAdvance(t *testing.T) {
	e := newTestEngine(t, "buyer")
	driveIdentity(t, e)

	turn := e.HandleTranscript("what commission do you charge")
	assert.Contains(t, turn.Say, "anything else")
	turn = e.HandleTranscript("how is the market doing")
	assert.Contains(t, turn.Say, "anything else")

	// Two side questions exhaust the budget; the third turn advances no
	// matter how it classifies.
	turn = e.HandleTranscript("what about interest rates though")
	assert.Contains(t, turn.Say, "beds")
}

func TestInboundEngine_SilenceReplaysCurrentPrompt(t *testing.T) {
	e := newTestEngine(t, "buyer")

	turn := e.HandleSilence()
	assert.Contains(t, turn.Say, "first and last name")
	assert.False(t, turn.Completed)
}

func TestInboundEngine_FullBuyerFlow(t *testing.T) {
	e := newTestEngine(t, "buyer")
	driveIdentity(t, e)

	turn := e.HandleTranscript("two fifty to three hundred k")
	require.Contains(t, turn.Say, "beds")
	turn = e.HandleTranscript("3 beds and 2 baths")
	require.Contains(t, turn.Say, "neighborhoods")
	turn = e.HandleTranscript("somewhere near the river district")
	require.Contains(t, turn.Say, "How soon")
	turn = e.HandleTranscript("in the next three months or so")
	require.Contains(t, turn.Say, "Dana Reeves")

	turn = e.HandleTranscript("tuesday works for me")
	assert.True(t, turn.Completed)
	assert.Contains(t, turn.Say, "all set")
	assert.True(t, e.Completed())

	rec := e.Record()
	require.NotNil(t, rec)
	assert.Equal(t, "buyer", rec.FlowVariant)
	assert.Equal(t, "CA123", rec.CallID)
	assert.Equal(t, "lead-1", rec.LeadID)
	assert.Equal(t, "org-1", rec.OrgID)

	name, ok := rec.Fields["name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John", name["firstName"])
	assert.Equal(t, "Smith", name["lastName"])
	assert.Equal(t, "2087157827", rec.Fields["phone"])
	assert.Equal(t, "john@example.com", rec.Fields["email"])

	price, ok := rec.Fields["price_range"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(250000), price["min"])
	assert.Equal(t, int64(300000), price["max"])

	assert.Contains(t, rec.Notes, "river district")
}

func TestInboundEngine_CompletedEngineStaysTerminal(t *testing.T) {
	e := newTestEngine(t, "buyer")
	driveIdentity(t, e)
	for _, answer := range []string{"300k", "3 beds", "downtown", "soon as possible", "sure"} {
		e.HandleTranscript(answer)
	}
	require.True(t, e.Completed())

	turn := e.HandleTranscript("hello?")
	assert.True(t, turn.Completed)
	assert.Empty(t, turn.Say)
}
