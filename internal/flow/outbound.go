package flow

import (
	"regexp"
	"strings"
)

// Objection categories for the outbound campaign. Keys match the script's
// objections table.
const (
	ObjectionAlreadyTransacted = "already_transacted"
	ObjectionHasRepresentation = "has_representation"
	ObjectionNotInterested     = "not_interested"
)

type objectionMode int

const (
	objectionModeCore objectionMode = iota
	objectionModeObjection
	objectionModeDone
)

// objectionContext tracks where the outbound session sits relative to a
// detected pushback. Once mode leaves core it never returns.
type objectionContext struct {
	mode             objectionMode
	detectedCategory string
}

var objectionPatterns = []struct {
	category string
	re       *regexp.Regexp
}{
	{ObjectionAlreadyTransacted, regexp.MustCompile(`\b(already sold|we sold|sold (it|the house|the place|the property)|it sold|no longer own|off the market)\b`)},
	{ObjectionHasRepresentation, regexp.MustCompile(`\b((have|got|hired|found) (an? )?(agent|realtor|broker)|working with (an? )?(agent|realtor|broker|someone)|listed (it )?with|relisted)\b`)},
	{ObjectionNotInterested, regexp.MustCompile(`\b(not interested|stop calling|take (me|us) off|do(n'?t| not) call|no thank|remove (me|us)|leave (me|us) alone)\b`)},
}

func detectObjection(text string) string {
	s := strings.ToLower(text)
	for _, p := range objectionPatterns {
		if p.re.MatchString(s) {
			return p.category
		}
	}
	return ""
}

// fillerWords never count toward the advance heuristic. Bare yes/no is
// deliberately absent so short-answer steps can accept it.
var fillerWords = map[string]struct{}{
	"okay": {}, "ok": {}, "um": {}, "uh": {}, "sure": {}, "hmm": {},
	"mhm": {}, "well": {}, "like": {}, "so": {}, "right": {}, "alright": {},
}

func nonFillerTokens(text string) int {
	n := 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?")
		if tok == "" {
			continue
		}
		if _, filler := fillerWords[tok]; !filler {
			n++
		}
	}
	return n
}

// qualifiesAsAnswer applies the advance heuristic: open-ended steps want at
// least three substantive tokens, short-answer steps take any non-filler
// utterance.
func qualifiesAsAnswer(text string, shortAnswerOK bool) bool {
	n := nonFillerTokens(text)
	if shortAnswerOK {
		return n >= 1
	}
	return n >= 3
}

type outboundEngine struct {
	script  *Script
	info    CallInfo
	planner Planner

	stepIndex int
	fields    map[string]*CapturedField
	notes     []string
	objection objectionContext

	assignedAgent string
	offeredSlots  string

	completed bool
	record    *Record
}

func newOutboundEngine(script *Script, info CallInfo, planner Planner) *outboundEngine {
	return &outboundEngine{
		script:  script,
		info:    info,
		planner: planner,
		fields:  make(map[string]*CapturedField),
	}
}

func (e *outboundEngine) Variant() string { return e.script.Variant }

func (e *outboundEngine) Completed() bool { return e.completed }

func (e *outboundEngine) Record() *Record { return e.record }

func (e *outboundEngine) Opening() Turn {
	return Turn{Say: e.script.Greeting}
}

func (e *outboundEngine) HandleTranscript(text string) Turn {
	if e.completed {
		return Turn{Completed: true}
	}
	text = strings.TrimSpace(text)

	// After an objection line, the very next turn closes no matter what
	// the caller said.
	if e.objection.mode == objectionModeObjection {
		return e.finish()
	}

	if cat := detectObjection(text); cat != "" {
		e.objection.mode = objectionModeObjection
		e.objection.detectedCategory = cat
		e.notes = append(e.notes, "objection: "+cat)
		line, ok := e.script.Objections[cat]
		if !ok || line == "" {
			return e.finish()
		}
		return Turn{Say: line}
	}

	step := e.script.Steps[e.stepIndex]

	// The terminal scheduling ask ends the script on any response.
	if step.AppointmentOffer {
		if text != "" {
			e.capture(step, text)
		}
		return e.finish()
	}

	if !qualifiesAsAnswer(text, step.ShortAnswerOK) {
		return Turn{Say: e.renderPrompt(step)}
	}

	e.capture(step, text)
	return e.advance()
}

// HandleSilence treats a missing transcript as an implicit "continue" and
// moves on, except after the appointment offer where it closes out.
func (e *outboundEngine) HandleSilence() Turn {
	if e.completed {
		return Turn{Completed: true}
	}
	if e.objection.mode == objectionModeObjection {
		return e.finish()
	}
	if e.script.Steps[e.stepIndex].AppointmentOffer {
		return e.finish()
	}
	return e.advance()
}

func (e *outboundEngine) capture(step Step, text string) {
	e.fields[step.Capture] = &CapturedField{
		Name:          step.Capture,
		RawTranscript: text,
		TypedValue:    text,
		Status:        FieldConfirmed,
	}
	e.notes = append(e.notes, step.Key+": "+text)
}

func (e *outboundEngine) advance() Turn {
	e.stepIndex++
	if e.stepIndex >= len(e.script.Steps) {
		return e.finish()
	}
	step := e.script.Steps[e.stepIndex]
	return Turn{Say: e.renderPrompt(step)}
}

func (e *outboundEngine) finish() Turn {
	e.objection.mode = objectionModeDone
	e.completed = true
	e.record = e.buildRecord()
	return Turn{Say: e.script.Closing, Completed: true}
}

func (e *outboundEngine) buildRecord() *Record {
	fields := make(map[string]any, len(e.fields)+1)
	for name, f := range e.fields {
		fields[name] = f.TypedValue
	}
	if e.objection.detectedCategory != "" {
		fields["objection"] = e.objection.detectedCategory
	}
	return &Record{
		FlowVariant: e.script.Variant,
		LeadID:      e.info.LeadID,
		OrgID:       e.info.OrgID,
		CallID:      e.info.CallID,
		Fields:      fields,
		Notes:       strings.Join(e.notes, "\n"),
	}
}

func (e *outboundEngine) renderPrompt(step Step) string {
	return renderPrompt(step, e.planner, &e.assignedAgent, &e.offeredSlots)
}
