package flow

import "strings"

// renderPrompt fills the {agent} and {slots} placeholders. Each is resolved
// at most once per session so a replayed prompt reads back the same offer.
func renderPrompt(step Step, planner Planner, agent, slots *string) string {
	p := step.Prompt
	if strings.Contains(p, "{agent}") {
		if *agent == "" {
			*agent = nextAgent(planner)
		}
		p = strings.ReplaceAll(p, "{agent}", *agent)
	}
	if strings.Contains(p, "{slots}") {
		if *slots == "" {
			*slots = nextSlots(planner)
		}
		p = strings.ReplaceAll(p, "{slots}", *slots)
	}
	return p
}

func nextAgent(planner Planner) string {
	if planner == nil {
		return "our team"
	}
	return planner.NextAgent()
}

func nextSlots(planner Planner) string {
	if planner == nil {
		return "a couple of times this week"
	}
	slots := planner.NextSlots(2)
	if len(slots) == 0 {
		return "a couple of times this week"
	}
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label()
	}
	return strings.Join(labels, " or ")
}

// spellDigits spaces a digit string out for read-back.
func spellDigits(digits string) string {
	parts := make([]string, len(digits))
	for i := range digits {
		parts[i] = digits[i : i+1]
	}
	return strings.Join(parts, " ")
}

// containsWord reports whether word appears as a whole token in s. s must
// already be lowercased.
func containsWord(s, word string) bool {
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}) {
		if tok == word {
			return true
		}
	}
	return false
}

func int64PtrValue(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtrValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtrValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
