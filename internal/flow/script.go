package flow

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Capture field names with dedicated parsing.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldEmail      = "email"
	FieldPriceRange = "price_range"
	FieldHomeSpecs  = "home_specs"
)

// Step is one immutable script entry. Loaded once at process start and
// shared read-only across sessions.
type Step struct {
	Key     string `yaml:"key"`
	Prompt  string `yaml:"prompt"`
	Reask   string `yaml:"reask,omitempty"` // spoken when the answer doesn't parse; falls back to Prompt
	Capture string `yaml:"capture,omitempty"`

	// RequiresConfirmation inserts a yes/no verification sub-dialog after
	// the field parses (identity/contact fields only).
	RequiresConfirmation bool `yaml:"requires_confirmation,omitempty"`

	// OffTopicWindow marks inbound steps where a side question may be
	// answered without advancing.
	OffTopicWindow bool `yaml:"off_topic_window,omitempty"`

	// ShortAnswerOK marks outbound steps where a bare yes/no counts as a
	// real answer.
	ShortAnswerOK bool `yaml:"short_answer_ok,omitempty"`

	// AppointmentOffer marks the terminal scheduling ask; its prompt may
	// reference {slots} and {agent}.
	AppointmentOffer bool `yaml:"appointment_offer,omitempty"`
}

// OffTopicTopic pairs trigger keywords with the canned answer spoken for
// side questions in that topic.
type OffTopicTopic struct {
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// OffTopicConfig bounds the side-question sub-dialog per session.
type OffTopicConfig struct {
	MaxCount int             `yaml:"max_count"`
	Followup string          `yaml:"followup"`
	Topics   []OffTopicTopic `yaml:"topics"`
}

// Script is one call variant's ordered step table.
type Script struct {
	Variant    string            `yaml:"variant"`
	Direction  string            `yaml:"direction"`
	Greeting   string            `yaml:"greeting"`
	Closing    string            `yaml:"closing"`
	Steps      []Step            `yaml:"steps"`
	OffTopic   *OffTopicConfig   `yaml:"off_topic,omitempty"`
	Objections map[string]string `yaml:"objections,omitempty"` // category -> line, outbound only
}

// Library holds every loaded script keyed by variant.
type Library struct {
	scripts map[string]*Script
}

//go:embed scripts.yaml
var defaultScripts []byte

type scriptFile struct {
	Scripts []*Script `yaml:"scripts"`
}

// LoadLibrary reads script tables from path, or the embedded defaults when
// path is empty.
func LoadLibrary(path string) (*Library, error) {
	data := defaultScripts
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read scripts: %w", err)
		}
	}

	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scripts: %w", err)
	}
	if len(file.Scripts) == 0 {
		return nil, fmt.Errorf("no scripts defined")
	}

	lib := &Library{scripts: make(map[string]*Script, len(file.Scripts))}
	for _, s := range file.Scripts {
		if s.Variant == "" {
			return nil, fmt.Errorf("script with empty variant")
		}
		if s.Direction != DirectionInbound && s.Direction != DirectionOutbound {
			return nil, fmt.Errorf("script %q: unknown direction %q", s.Variant, s.Direction)
		}
		if len(s.Steps) == 0 {
			return nil, fmt.Errorf("script %q: no steps", s.Variant)
		}
		if _, dup := lib.scripts[s.Variant]; dup {
			return nil, fmt.Errorf("duplicate script variant %q", s.Variant)
		}
		lib.scripts[s.Variant] = s
	}
	return lib, nil
}

// Get looks up a script by variant.
func (l *Library) Get(variant string) (*Script, bool) {
	s, ok := l.scripts[variant]
	return s, ok
}

// Variants lists the loaded variants.
func (l *Library) Variants() []string {
	out := make([]string, 0, len(l.scripts))
	for v := range l.scripts {
		out = append(out, v)
	}
	return out
}
