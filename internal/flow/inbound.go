package flow

import (
	"fmt"
	"strings"

	"github.com/dwellio/voicebridge/internal/extract"
)

const (
	defaultMaxOffTopic  = 2
	phoneDigitsComplete = 10
)

// confirmationContext is the one-shot yes/no sub-dialog inserted after an
// identity field parses. At most one exists per session.
type confirmationContext struct {
	stepKey   string
	candidate *CapturedField
	spoken    string
}

// offTopicContext bounds the side-question sub-dialog. count never decreases
// until flow completion.
type offTopicContext struct {
	active           bool
	awaitingFollowup bool
	count            int
	maxCount         int
}

type inboundEngine struct {
	script  *Script
	info    CallInfo
	planner Planner

	stepIndex    int
	fields       map[string]*CapturedField
	notes        []string
	confirmation *confirmationContext
	offTopic     offTopicContext
	phoneDigits  string

	assignedAgent string
	offeredSlots  string

	completed bool
	record    *Record
}

func newInboundEngine(script *Script, info CallInfo, planner Planner) *inboundEngine {
	maxCount := defaultMaxOffTopic
	if script.OffTopic != nil && script.OffTopic.MaxCount > 0 {
		maxCount = script.OffTopic.MaxCount
	}
	return &inboundEngine{
		script:   script,
		info:     info,
		planner:  planner,
		fields:   make(map[string]*CapturedField),
		offTopic: offTopicContext{maxCount: maxCount},
	}
}

func (e *inboundEngine) Variant() string { return e.script.Variant }

func (e *inboundEngine) Completed() bool { return e.completed }

func (e *inboundEngine) Record() *Record { return e.record }

func (e *inboundEngine) Opening() Turn {
	return Turn{Say: e.script.Greeting}
}

func (e *inboundEngine) HandleTranscript(text string) Turn {
	if e.completed {
		return Turn{Completed: true}
	}
	text = strings.TrimSpace(text)

	if e.confirmation != nil {
		return e.handleConfirmation(text)
	}

	step := e.script.Steps[e.stepIndex]

	if step.OffTopicWindow && e.script.OffTopic != nil {
		if turn, handled := e.handleOffTopic(step, text); handled {
			return turn
		}
	}

	return e.handleAnswer(step, text)
}

// HandleSilence replays whatever the session is waiting on.
func (e *inboundEngine) HandleSilence() Turn {
	if e.completed {
		return Turn{Completed: true}
	}
	if e.confirmation != nil {
		return Turn{Say: fmt.Sprintf("I have that as %s. Did I get that right?", e.confirmation.spoken)}
	}
	return Turn{Say: e.renderPrompt(e.script.Steps[e.stepIndex])}
}

func (e *inboundEngine) handleConfirmation(text string) Turn {
	c := e.confirmation
	e.confirmation = nil

	if extract.ParseYesNo(text) == extract.AnswerYes {
		c.candidate.Status = FieldConfirmed
		e.fields[c.candidate.Name] = c.candidate
		return e.advance()
	}

	// "No" and unparseable alike discard the candidate and replay the same
	// step unchanged; no step is ever skipped on confirmation failure.
	c.candidate.Status = FieldRejected
	if c.candidate.Name == FieldPhone {
		e.phoneDigits = ""
	}
	return Turn{Say: e.renderPrompt(e.script.Steps[e.stepIndex])}
}

func (e *inboundEngine) handleOffTopic(step Step, text string) (Turn, bool) {
	ot := &e.offTopic

	if ot.count >= ot.maxCount {
		// Budget exhausted: the next turn force-advances regardless of
		// classification so the dialog cannot stall.
		ot.active = false
		ot.awaitingFollowup = false
		return Turn{}, false
	}

	if topic := e.classifySideQuestion(text); topic != nil {
		ot.active = true
		ot.awaitingFollowup = true
		ot.count++
		return Turn{Say: topic.Answer + " " + e.script.OffTopic.Followup}, true
	}

	if ot.awaitingFollowup {
		ot.active = false
		ot.awaitingFollowup = false
		// A substantive reply to "anything else?" is usually the answer
		// to the interrupted step; let it flow through. A bare "no" or
		// similar just resumes the step.
		if len(strings.Fields(text)) > 2 && extract.ParseYesNo(text) == extract.AnswerUnknown {
			return Turn{}, false
		}
		return Turn{Say: e.renderPrompt(step)}, true
	}

	return Turn{}, false
}

func (e *inboundEngine) classifySideQuestion(text string) *OffTopicTopic {
	s := strings.ToLower(text)
	for i := range e.script.OffTopic.Topics {
		topic := &e.script.OffTopic.Topics[i]
		for _, kw := range topic.Keywords {
			if containsWord(s, kw) {
				return topic
			}
		}
	}
	return nil
}

func (e *inboundEngine) handleAnswer(step Step, text string) Turn {
	switch step.Capture {
	case FieldName:
		name := extract.ParseName(text)
		if name == nil {
			return Turn{Say: e.reask(step)}
		}
		cand := &CapturedField{Name: FieldName, RawTranscript: text, TypedValue: name, Status: FieldPending}
		spoken := strings.TrimSpace(name.First + " " + name.Last)
		return e.maybeConfirm(step, cand, spoken)

	case FieldPhone:
		e.phoneDigits += extract.Digits(text)
		if len(e.phoneDigits) < phoneDigitsComplete {
			// Digits arrive dictated piecemeal; keep collecting.
			return Turn{Say: e.reask(step)}
		}
		cand := &CapturedField{Name: FieldPhone, RawTranscript: text, TypedValue: e.phoneDigits, Status: FieldPending}
		return e.maybeConfirm(step, cand, spellDigits(e.phoneDigits))

	case FieldEmail:
		email, ok := extract.ParseEmail(text)
		if !ok {
			return Turn{Say: e.reask(step)}
		}
		cand := &CapturedField{Name: FieldEmail, RawTranscript: text, TypedValue: email, Status: FieldPending}
		return e.maybeConfirm(step, cand, email)

	default:
		// Ordinary discovery step: parse what we can and advance
		// unconditionally; only identity fields are confirmed.
		e.fields[step.Capture] = &CapturedField{
			Name:          step.Capture,
			RawTranscript: text,
			TypedValue:    e.typedValue(step, text),
			Status:        FieldConfirmed,
		}
		if text != "" {
			e.notes = append(e.notes, step.Key+": "+text)
		}
		return e.advance()
	}
}

func (e *inboundEngine) maybeConfirm(step Step, cand *CapturedField, spoken string) Turn {
	if !step.RequiresConfirmation {
		cand.Status = FieldConfirmed
		e.fields[cand.Name] = cand
		return e.advance()
	}
	e.confirmation = &confirmationContext{stepKey: step.Key, candidate: cand, spoken: spoken}
	return Turn{Say: fmt.Sprintf("I have that as %s. Did I get that right?", spoken)}
}

func (e *inboundEngine) typedValue(step Step, text string) any {
	switch step.Capture {
	case FieldPriceRange:
		pr := extract.ParsePriceRange(text)
		return map[string]any{"min": int64PtrValue(pr.Min), "max": int64PtrValue(pr.Max)}
	case FieldHomeSpecs:
		hs := extract.ParseHomeSpecs(text)
		return map[string]any{
			"beds":  intPtrValue(hs.Beds),
			"baths": floatPtrValue(hs.Baths),
			"sqft":  intPtrValue(hs.Sqft),
		}
	default:
		return text
	}
}

func (e *inboundEngine) advance() Turn {
	e.stepIndex++
	if e.stepIndex >= len(e.script.Steps) {
		return e.finish()
	}
	return Turn{Say: e.renderPrompt(e.script.Steps[e.stepIndex])}
}

func (e *inboundEngine) finish() Turn {
	e.completed = true
	e.record = e.buildRecord()
	return Turn{Say: e.script.Closing, Completed: true}
}

func (e *inboundEngine) buildRecord() *Record {
	fields := make(map[string]any, len(e.fields))
	for name, f := range e.fields {
		if n, ok := f.TypedValue.(*extract.Name); ok {
			fields[name] = map[string]any{"firstName": n.First, "lastName": n.Last}
			continue
		}
		fields[name] = f.TypedValue
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

func (e *inboundEngine) renderPrompt(step Step) string {
	return renderPrompt(step, e.planner, &e.assignedAgent, &e.offeredSlots)
}

func (e *inboundEngine) reask(step Step) string {
	if step.Reask != "" {
		return step.Reask
	}
	return e.renderPrompt(step)
}
