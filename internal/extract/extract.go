// Package extract turns freeform recognized speech into typed intake fields.
// Every function is total: bad input yields a no-match result, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Name is a parsed contact name.
type Name struct {
	First string
	Last  string
}

var nameLeadIns = []string{
	"my name is ", "my name's ", "this is ", "it is ", "it's ", "i am ", "i'm ",
}

// ParseName splits a spoken name on whitespace: first token becomes the first
// name, the remainder the last name. Returns nil when nothing usable remains.
func ParseName(text string) *Name {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, lead := range nameLeadIns {
		if strings.HasPrefix(s, lead) {
			s = s[len(lead):]
			break
		}
	}
	s = strings.Trim(s, " .,!?")
	if s == "" {
		return nil
	}

	fields := strings.Fields(s)
	n := &Name{First: titleCase(fields[0])}
	if len(fields) > 1 {
		n.Last = titleCase(strings.Join(fields[1:], " "))
	}
	return n
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Digits strips everything but decimal digits. Phone numbers arrive dictated
// piecemeal across turns; the caller accumulates until ten digits are in hand.
func Digits(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var emailPattern = regexp.MustCompile(`[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

var emailSpoken = strings.NewReplacer(
	" at ", " @ ",
	" dot ", " . ",
	" underscore ", " _ ",
	" dash ", " - ",
)

// emailGlue collapses whitespace around address punctuation only, so the
// words around the address keep their boundaries.
var emailGlue = regexp.MustCompile(`\s*([@._\-])\s*`)

// ParseEmail finds a single local@domain token, normalizing the spoken forms
// "at" and "dot" first ("john at example dot com" -> "john@example.com").
func ParseEmail(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = emailSpoken.Replace(" " + s + " ")
	s = emailGlue.ReplaceAllString(s, "$1")

	match := emailPattern.FindString(s)
	if match == "" {
		return "", false
	}
	return match, true
}

// Answer is the result of a yes/no classification.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

var yesWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "correct": true,
	"right": true, "sure": true, "absolutely": true, "affirmative": true,
	"perfect": true, "exactly": true,
}

var noWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "wrong": true, "incorrect": true,
	"negative": true,
}

// ParseYesNo matches against a small fixed vocabulary. Anything ambiguous or
// outside the vocabulary is AnswerUnknown, which callers treat as a reprompt.
func ParseYesNo(text string) Answer {
	var yes, no bool
	for _, tok := range tokenize(text) {
		if yesWords[tok] {
			yes = true
		}
		if noWords[tok] {
			no = true
		}
	}
	switch {
	case no:
		// "nah that's wrong" may also contain "right"-adjacent words;
		// a negation wins.
		return AnswerNo
	case yes:
		return AnswerYes
	default:
		return AnswerUnknown
	}
}

// PriceRange is a parsed budget. A single number yields Min == Max; no
// numbers yields two nils.
type PriceRange struct {
	Min *int64
	Max *int64
}

var numericToken = regexp.MustCompile(`^\$?(\d[\d,]*(?:\.\d+)?)([km])?$`)

var unitWords = map[string]int64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "fifteen": 15,
}

var tensWords = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// ParsePriceRange extracts one or two numeric amounts, each optionally
// suffixed k (x1,000) or m (x1,000,000). Digit tokens and a small spelled-out
// vocabulary ("two fifty", "three hundred k") are supported; when only the
// upper bound carries a suffix the lower bound inherits it.
func ParsePriceRange(text string) PriceRange {
	amounts := extractAmounts(text)

	switch len(amounts) {
	case 0:
		return PriceRange{}
	case 1:
		v := amounts[0].value()
		return PriceRange{Min: &v, Max: &v}
	default:
		lo, hi := amounts[0], amounts[1]
		// "two fifty to three hundred k": the trailing suffix scales both.
		if lo.mult == 1 && hi.mult > 1 && lo.raw < 1000 {
			lo.mult = hi.mult
		}
		lov, hiv := lo.value(), hi.value()
		if lov > hiv {
			lov, hiv = hiv, lov
		}
		return PriceRange{Min: &lov, Max: &hiv}
	}
}

type amount struct {
	raw  int64
	mult int64
}

func (a amount) value() int64 { return a.raw * a.mult }

func extractAmounts(text string) []amount {
	tokens := tokenize(text)
	var out []amount
	var cur *amount

	flush := func() {
		if cur != nil && cur.raw > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}

	for _, tok := range tokens {
		if m := numericToken.FindStringSubmatch(tok); m != nil {
			flush()
			f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err != nil {
				continue
			}
			a := amount{mult: 1}
			switch m[2] {
			case "k":
				a.mult = 1000
			case "m":
				a.mult = 1000000
			}
			if a.mult > 1 && f != float64(int64(f)) {
				// "1.5m" style fractional amounts.
				a.raw = int64(f * float64(a.mult))
				a.mult = 1
			} else {
				a.raw = int64(f)
			}
			out = append(out, a)
			continue
		}

		if v, ok := unitWords[tok]; ok {
			if cur == nil {
				cur = &amount{mult: 1}
			}
			if cur.raw > 0 {
				flush()
				cur = &amount{mult: 1}
			}
			cur.raw = v
			continue
		}
		if v, ok := tensWords[tok]; ok {
			if cur != nil && cur.raw > 0 && cur.raw < 10 {
				// "two fifty" -> 250
				cur.raw = cur.raw*100 + v
			} else {
				if cur == nil {
					cur = &amount{mult: 1}
				} else if cur.raw > 0 {
					flush()
					cur = &amount{mult: 1}
				}
				cur.raw = v
			}
			continue
		}
		if tok == "hundred" && cur != nil && cur.raw > 0 {
			cur.raw *= 100
			continue
		}
		if tok == "thousand" && cur != nil && cur.raw > 0 {
			cur.mult *= 1000
			flush()
			continue
		}
		if (tok == "k" || tok == "grand") && cur != nil && cur.raw > 0 {
			cur.mult *= 1000
			flush()
			continue
		}
		if (tok == "m" || tok == "million") && cur != nil && cur.raw > 0 {
			cur.mult *= 1000000
			flush()
			continue
		}

		flush()
	}
	flush()

	return out
}

// HomeSpecs are per-field extractions from one utterance; each is nullable.
type HomeSpecs struct {
	Beds  *int
	Baths *float64
	Sqft  *int
}

var (
	bedsPattern  = regexp.MustCompile(`(\d+)\s*(?:bed|beds|bedroom|bedrooms|br)\b`)
	bathsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:bath|baths|bathroom|bathrooms|ba)\b`)
	sqftPattern  = regexp.MustCompile(`(\d[\d,]*)\s*(?:sq|square|sqft)`)
)

// ParseHomeSpecs extracts beds, baths and square footage independently.
func ParseHomeSpecs(text string) HomeSpecs {
	s := strings.ToLower(text)
	var specs HomeSpecs

	if m := bedsPattern.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			specs.Beds = &v
		}
	}
	if m := bathsPattern.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			specs.Baths = &v
		}
	}
	if m := sqftPattern.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			specs.Sqft = &v
		}
	}
	return specs
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9$.,]+`)

func tokenize(text string) []string {
	s := strings.ToLower(strings.TrimSpace(text))
	var out []string
	for _, tok := range tokenSplit.Split(s, -1) {
		tok = strings.Trim(tok, ".,")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
