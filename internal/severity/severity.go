// Package severity classifies interaction effect codes into severity tiers
// and derives the confidence badge shown next to each interaction.
package severity

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Severity string

const (
	Major    Severity = "major"
	Moderate Severity = "moderate"
	Minor    Severity = "minor"
)

// Rank orders tiers from least to most serious. Unknown values rank as Moderate.
func (s Severity) Rank() int {
	switch Severity(strings.ToLower(string(s))) {
	case Major:
		return 3
	case Minor:
		return 1
	default:
		return 2
	}
}

// Confidence is a UI heuristic derived from a severity tier, not a statistical measure.
type Confidence string

const (
	High Confidence = "HIGH"
	Med  Confidence = "MED"
	Low  Confidence = "LOW"
)

// ConfidenceFor maps MAJOR to HIGH, MINOR to LOW and anything else to MED.
func ConfidenceFor(s Severity) Confidence {
	switch Severity(strings.ToLower(strings.TrimSpace(string(s)))) {
	case Major:
		return High
	case Minor:
		return Low
	default:
		return Med
	}
}

// Parse recognizes the three tier names, case-insensitively.
func Parse(label string) (Severity, bool) {
	switch s := Severity(strings.ToLower(strings.TrimSpace(label))); s {
	case Major, Moderate, Minor:
		return s, true
	}
	return "", false
}

// defaultEffects is the built-in effect table. It follows the clinical weight
// of the mechanisms the extraction pipeline emits.
var defaultEffects = map[string]Severity{
	"bleeding_risk":                  Major,
	"increased_anticoagulant_effect": Major,
	"cardiac_risk":                   Major,
	"serotonin_syndrome":             Major,
	"cns_depression":                 Major,
	"hypotension_risk":               Moderate,
	"enzyme_inhibition":              Moderate,
	"enzyme_induction":               Moderate,
	"increased_effect":               Moderate,
	"interaction":                    Moderate,
	"reduced_effect":                 Minor,
}

// Classifier maps effect codes to severity tiers. It is immutable once built.
type Classifier struct {
	effects map[string]Severity
}

func Default() *Classifier {
	return &Classifier{effects: maps.Clone(defaultEffects)}
}

// New builds a classifier from an explicit effect table. Keys are matched case-insensitively.
func New(effects map[string]Severity) (*Classifier, error) {
	c := &Classifier{effects: make(map[string]Severity, len(effects))}
	for effect, sev := range effects {
		tier, ok := Parse(string(sev))
		if !ok {
			return nil, fmt.Errorf("effect %q: invalid severity %q", effect, sev)
		}
		c.effects[strings.ToLower(strings.TrimSpace(effect))] = tier
	}
	return c, nil
}

type policyFile struct {
	// Merge keeps the built-in table and overrides it entry by entry.
	Merge   bool              `yaml:"merge"`
	Effects map[string]string `yaml:"effects"`
}

// LoadFile reads a YAML policy:
//
//	merge: true
//	effects:
//	  bleeding_risk: major
//	  reduced_effect: minor
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read severity policy: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse severity policy %s: %w", path, err)
	}

	table := make(map[string]Severity, len(pf.Effects))
	if pf.Merge {
		maps.Copy(table, defaultEffects)
	}
	for effect, sev := range pf.Effects {
		table[strings.ToLower(strings.TrimSpace(effect))] = Severity(sev)
	}

	c, err := New(table)
	if err != nil {
		return nil, fmt.Errorf("severity policy %s: %w", path, err)
	}
	return c, nil
}

// Tier classifies an effect code or a severity label. Tier names map to
// themselves; unrecognized or empty input is Moderate.
func (c *Classifier) Tier(label string) Severity {
	if s, ok := Parse(label); ok {
		return s
	}
	if s, ok := c.effects[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return Moderate
}

// Len reports how many effect codes the table carries.
func (c *Classifier) Len() int {
	return len(c.effects)
}
